package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/spherical/pdf-dataset/internal/domain"
)

// UI provides user-friendly output utilities.
type UI struct {
	out     io.Writer
	errOut  io.Writer
	noColor bool
}

// NewUI creates a new UI instance.
func NewUI(noColor bool) *UI {
	return &UI{out: os.Stdout, errOut: os.Stderr, noColor: noColor}
}

func (ui *UI) print(w io.Writer, attr color.Attribute, symbol, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if ui.noColor {
		fmt.Fprintf(w, "%s %s\n", symbol, msg)
		return
	}
	color.New(attr).Fprintf(w, "%s %s\n", symbol, msg)
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	ui.print(ui.out, color.FgGreen, "✓", format, args...)
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	ui.print(ui.errOut, color.FgYellow, "⚠", format, args...)
}

// Error prints an error message.
func (ui *UI) Error(format string, args ...interface{}) {
	ui.print(ui.errOut, color.FgRed, "✗", format, args...)
}

// Info prints an informational message.
func (ui *UI) Info(format string, args ...interface{}) {
	ui.print(ui.out, color.FgCyan, "ℹ", format, args...)
}

// newProgressBar creates the per-page progress bar.
func (ui *UI) newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("pages"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(ui.errOut),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(!ui.noColor),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(ui.errOut, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Track consumes pipeline events until the channel is closed, driving a
// progress bar sized for total pages (-1 when unknown). Warnings are printed once the bar is
// done so they do not tear it.
func (ui *UI) Track(events <-chan domain.StreamEvent, total int) {
	bar := ui.newProgressBar(total)
	var notes []string
	aborted := false

	for event := range events {
		switch event.Type {
		case domain.EventPageProcessing:
			bar.Describe(fmt.Sprintf("page %d", event.PageNumber))

		case domain.EventPageComplete:
			_ = bar.Add(1)

		case domain.EventPageSkipped:
			_ = bar.Add(1)
			notes = append(notes, fmt.Sprintf("page %d skipped: %v", event.PageNumber, event.Payload))

		case domain.EventCorrectionFallback:
			notes = append(notes, fmt.Sprintf("page %d kept uncorrected text: %v", event.PageNumber, event.Payload))

		case domain.EventError:
			aborted = true

		case domain.EventComplete:
			if aborted {
				// leave the bar where the run stopped
				_ = bar.Exit()
			} else {
				_ = bar.Finish()
			}
		}
	}

	for _, note := range notes {
		ui.Warning("%s", note)
	}
}

// Summary prints the outcome of a run.
func (ui *UI) Summary(stats *domain.RunStats, csvPath, imageDir string) {
	fmt.Fprintln(ui.out)
	if stats.Aborted() {
		ui.Error("Run stopped after %d of %d pages: %v", stats.Processed, stats.Planned, stats.Err)
	} else {
		ui.Success("%d of %d pages written to %s (images in %s)", stats.Processed, stats.Planned, csvPath, imageDir)
	}

	fmt.Fprintf(ui.out, "  corrected: %d  uncorrected fallback: %d  skipped: %d\n",
		stats.Corrected, stats.Fallbacks, stats.Skipped)
	fmt.Fprintf(ui.out, "  run id: %s  time: %v\n", stats.RunID, stats.Duration.Round(time.Millisecond))
}
