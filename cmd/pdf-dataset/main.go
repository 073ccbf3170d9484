// Package main provides the pdf-dataset CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spherical/pdf-dataset/internal/config"
	"github.com/spherical/pdf-dataset/internal/observability"
)

// Set with -ldflags "-X main.version=..."
var version = "dev"

var (
	// Global flags
	cfgFile string
	verbose bool
	noColor bool

	// Configuration and logger
	cfg    *config.Config
	logger *observability.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "pdf-dataset",
	Short: "Turn a PDF manual into a per-page text and image dataset",
	Long: `pdf-dataset walks a PDF page by page. For every page it extracts and
cleans the text, renders the page to an image, asks a correction service
to fix the text and appends one row to a CSV file:

  PageNumber,Text,ImagePaths

Rows are appended as soon as a page is done, so the CSV can be inspected
while a run is in progress and an interrupted run can be resumed.

Configuration comes from an optional YAML file, the environment (a .env
file in the working directory is loaded) and command-line flags, in that
order of increasing priority.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load() // Ignore error if .env doesn't exist

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if verbose {
			cfg.Observability.LogLevel = "debug"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       cfg.Observability.LogLevel,
			Format:      cfg.Observability.LogFormat,
			ServiceName: "pdf-dataset",
		})

		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: defaults + env vars)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		NewUI(noColor).Error("%v", err)
		os.Exit(1)
	}
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pdf-dataset version %s\n", version)
		},
	}
}
