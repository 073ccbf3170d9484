package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf-dataset/internal/config"
)

// pipelineFlags are the per-command overrides of the loaded configuration.
// Only flags the user actually set are applied.
type pipelineFlags struct {
	output        string
	images        string
	endpoint      string
	timeout       time.Duration
	title         string
	noCorrection  bool
	first         int
	last          int
	skipLast      bool
	resume        bool
	onPageError   string
	extractor     string
	renderBackend string
	failOnAbort   bool
}

// registerRange adds the flags that decide which pages a run covers.
func (f *pipelineFlags) registerRange(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output CSV file (default output.csv)")
	cmd.Flags().IntVar(&f.first, "first", 0, "first page to process (1-based)")
	cmd.Flags().IntVar(&f.last, "last", 0, "last page to process (0 = end of document)")
	cmd.Flags().BoolVar(&f.skipLast, "skip-last-page", false, "leave out the document's final page")
	cmd.Flags().BoolVar(&f.resume, "resume", false, "continue after the last page already in the CSV")
}

// registerRun adds the remaining flags of the run command.
func (f *pipelineFlags) registerRun(cmd *cobra.Command) {
	f.registerRange(cmd)
	cmd.Flags().StringVar(&f.images, "images", "", "directory for rendered page images (default images)")
	cmd.Flags().StringVar(&f.endpoint, "endpoint", "", "correction service URL")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "timeout for one correction request")
	cmd.Flags().StringVar(&f.title, "title", "", "document title included in the correction prompt")
	cmd.Flags().BoolVar(&f.noCorrection, "no-correction", false, "write normalized text without calling the correction service")
	cmd.Flags().StringVar(&f.onPageError, "on-page-error", "", "what to do when a page cannot be extracted or rendered: abort or skip")
	cmd.Flags().StringVar(&f.extractor, "extractor", "", "text extractor: fitz or pdf")
	cmd.Flags().StringVar(&f.renderBackend, "render-backend", "", "page renderer: fitz or ghostscript")
	cmd.Flags().BoolVar(&f.failOnAbort, "fail-on-abort", false, "exit with status 1 when the run stops early")
}

// apply copies every flag set on cmd into c. A positional PDF path wins
// over the configured one.
func (f *pipelineFlags) apply(cmd *cobra.Command, args []string, c *config.Config) {
	if len(args) > 0 {
		c.Input.PDFPath = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		c.Output.CSVPath = f.output
	}
	if flags.Changed("first") {
		c.Pages.First = f.first
	}
	if flags.Changed("last") {
		c.Pages.Last = f.last
	}
	if flags.Changed("skip-last-page") {
		c.Pages.SkipLast = f.skipLast
	}
	if flags.Changed("resume") {
		c.Pages.Resume = f.resume
	}

	// Flags below are only registered on run; Changed is false elsewhere.
	if flags.Changed("images") {
		c.Output.ImageDir = f.images
	}
	if flags.Changed("endpoint") {
		c.Correction.Endpoint = f.endpoint
	}
	if flags.Changed("timeout") {
		c.Correction.Timeout = f.timeout
	}
	if flags.Changed("title") {
		c.Correction.DocumentTitle = f.title
	}
	if flags.Changed("no-correction") {
		c.Correction.Enabled = !f.noCorrection
	}
	if flags.Changed("on-page-error") {
		c.Pages.OnError = f.onPageError
	}
	if flags.Changed("extractor") {
		c.PDF.Extractor = f.extractor
	}
	if flags.Changed("render-backend") {
		c.Render.Backend = f.renderBackend
	}
}
