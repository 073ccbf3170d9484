package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf-dataset/internal/domain"
)

var errRunAborted = errors.New("run aborted")

// newRunCmd creates the run subcommand.
func newRunCmd() *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "run [pdf-file]",
		Short: "Build the dataset from a PDF",
		Long: `Run processes the selected pages in order. A page whose correction fails
is written with its cleaned source text. A page that cannot be extracted or
rendered stops the run, unless --on-page-error=skip is given. Rows written
before a stop are kept; use --resume to continue later.

The command exits 0 even when the run stops early, so that partial output
counts as a result. Pass --fail-on-abort to exit 1 instead.`,
		Example: `  pdf-dataset run manual.pdf
  pdf-dataset run --title "Manual do Proprietário" -o dataset.csv manual.pdf
  pdf-dataset run --resume --on-page-error=skip manual.pdf
  pdf-dataset run -c pipeline.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, args, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			stats, err := runPipeline(cmd.Context())
			if err != nil {
				return err
			}

			if stats.Aborted() && flags.failOnAbort {
				return errRunAborted
			}
			return nil
		},
	}

	flags.registerRun(cmd)
	return cmd
}

func runPipeline(parent context.Context) (*domain.RunStats, error) {
	if parent == nil {
		parent = context.Background()
	}
	ui := NewUI(noColor)

	svc, cleanup, err := buildService(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\n\nReceived interrupt signal, finishing current page...")
			cancel()
		case <-ctx.Done():
		}
	}()

	// A document that cannot be planned is reported by Run like any other abort.
	total := -1
	plan, err := svc.Plan(ctx)
	if err == nil {
		total = plan.Pages()
		ui.Info("Processing %s: %s", cfg.Input.PDFPath, describePlan(plan))
	}

	// Create event channel
	eventCh := make(chan domain.StreamEvent, 100)

	// Start the pipeline in a goroutine
	statsCh := make(chan *domain.RunStats, 1)
	go func() {
		var stats *domain.RunStats
		if plan != nil {
			stats = svc.RunPlan(ctx, plan, eventCh)
		} else {
			stats = svc.Run(ctx, eventCh)
		}
		close(eventCh)
		statsCh <- stats
	}()

	ui.Track(eventCh, total)

	stats := <-statsCh
	ui.Summary(stats, cfg.Output.CSVPath, cfg.Output.ImageDir)
	return stats, nil
}
