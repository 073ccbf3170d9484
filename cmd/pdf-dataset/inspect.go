package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newInspectCmd creates the inspect subcommand.
func newInspectCmd() *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "inspect [pdf-file]",
		Short: "Show page count and the pages a run would process",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, args, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			svc, cleanup, err := buildService(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			plan, err := svc.Plan(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("File:        %s\n", plan.Document.FilePath)
			fmt.Printf("Pages:       %d\n", plan.Document.TotalPages)
			if plan.AlreadyDone > 0 {
				fmt.Printf("In dataset:  up to page %d (%s)\n", plan.AlreadyDone, cfg.Output.CSVPath)
			}
			fmt.Printf("Planned:     %s\n", describePlan(plan))
			return nil
		},
	}

	flags.registerRange(cmd)
	return cmd
}
