// Package config provides configuration loading for the dataset pipeline.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spherical/pdf-dataset/internal/domain"
)

// Page error policies.
const (
	OnErrorAbort = "abort"
	OnErrorSkip  = "skip"
)

// Backend names.
const (
	BackendFitz        = "fitz"
	BackendGhostscript = "ghostscript"
	BackendPDF         = "pdf"
	BackendPDFCPU      = "pdfcpu"
)

// Config holds all configuration for a run.
type Config struct {
	Input         InputConfig         `yaml:"input"`
	Output        OutputConfig        `yaml:"output"`
	Pages         PagesConfig         `yaml:"pages"`
	PDF           PDFConfig           `yaml:"pdf"`
	Render        RenderConfig        `yaml:"render"`
	Correction    CorrectionConfig    `yaml:"correction"`
	Normalize     NormalizeConfig     `yaml:"normalize"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// InputConfig names the source document.
type InputConfig struct {
	PDFPath string `yaml:"pdf_path"`
}

// OutputConfig names the dataset files.
type OutputConfig struct {
	CSVPath  string `yaml:"csv_path"`
	ImageDir string `yaml:"image_dir"`
}

// PagesConfig controls which pages are processed and how page failures are handled.
type PagesConfig struct {
	First    int    `yaml:"first"`
	Last     int    `yaml:"last"`
	SkipLast bool   `yaml:"skip_last"`
	Resume   bool   `yaml:"resume"`
	OnError  string `yaml:"on_error"` // abort or skip
}

// PDFConfig selects the parsing backends.
type PDFConfig struct {
	Extractor string `yaml:"extractor"` // fitz or pdf
	Inspector string `yaml:"inspector"` // pdfcpu or fitz
}

// RenderConfig holds page rasterization settings.
type RenderConfig struct {
	Backend         string  `yaml:"backend"` // fitz or ghostscript
	DPI             float64 `yaml:"dpi"`
	Format          string  `yaml:"format"` // png or jpeg
	JPEGQuality     int     `yaml:"jpeg_quality"`
	GhostscriptPath string  `yaml:"ghostscript_path"`
}

// CorrectionConfig holds correction service settings.
type CorrectionConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Endpoint      string        `yaml:"endpoint"`
	Timeout       time.Duration `yaml:"timeout"`
	DocumentTitle string        `yaml:"document_title"`
}

// NormalizeConfig toggles optional cleanup rules.
type NormalizeConfig struct {
	JoinHyphenated bool `yaml:"join_hyphenated"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
// The result is not validated; call Validate once flag overrides are applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("read config file", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("parse config file", err)
		}

		// Paths written in the file are relative to the file itself.
		cfg.Input.PDFPath = ResolveRelativePath(path, cfg.Input.PDFPath)
		cfg.Output.CSVPath = ResolveRelativePath(path, cfg.Output.CSVPath)
		cfg.Output.ImageDir = ResolveRelativePath(path, cfg.Output.ImageDir)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns the built-in defaults: every page, 300 dpi PNGs and
// correction through the local service.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			CSVPath:  "output.csv",
			ImageDir: "images",
		},
		Pages: PagesConfig{
			First:   1,
			OnError: OnErrorAbort,
		},
		PDF: PDFConfig{
			Extractor: BackendFitz,
			Inspector: BackendPDFCPU,
		},
		Render: RenderConfig{
			Backend:         BackendFitz,
			DPI:             300,
			Format:          "png",
			JPEGQuality:     85,
			GhostscriptPath: "gs",
		},
		Correction: CorrectionConfig{
			Enabled:  true,
			Endpoint: "http://localhost:3000/ia",
			Timeout:  15 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input.PDFPath) == "" {
		return domain.ConfigError("pdf path is required", nil)
	}
	if c.Output.CSVPath == "" {
		return domain.ConfigError("output csv path is required", nil)
	}
	if c.Output.ImageDir == "" {
		return domain.ConfigError("output image directory is required", nil)
	}

	if c.Pages.First < 0 || c.Pages.Last < 0 {
		return domain.ConfigError("page bounds must not be negative", nil)
	}
	if c.Pages.Last > 0 && c.Pages.First > c.Pages.Last {
		return domain.ConfigError(fmt.Sprintf("first page %d is after last page %d", c.Pages.First, c.Pages.Last), nil)
	}
	if c.Pages.OnError != OnErrorAbort && c.Pages.OnError != OnErrorSkip {
		return domain.ConfigError(fmt.Sprintf("invalid page error policy: %s", c.Pages.OnError), nil)
	}

	if c.PDF.Extractor != BackendFitz && c.PDF.Extractor != BackendPDF {
		return domain.ConfigError(fmt.Sprintf("invalid text extractor: %s", c.PDF.Extractor), nil)
	}
	if c.PDF.Inspector != BackendPDFCPU && c.PDF.Inspector != BackendFitz {
		return domain.ConfigError(fmt.Sprintf("invalid inspector: %s", c.PDF.Inspector), nil)
	}

	if c.Render.Backend != BackendFitz && c.Render.Backend != BackendGhostscript {
		return domain.ConfigError(fmt.Sprintf("invalid render backend: %s", c.Render.Backend), nil)
	}
	if c.Render.DPI < 10 || c.Render.DPI > 1200 {
		return domain.ConfigError(fmt.Sprintf("render dpi must be between 10 and 1200, got %v", c.Render.DPI), nil)
	}
	if c.Render.Format != "png" && c.Render.Format != "jpeg" {
		return domain.ConfigError(fmt.Sprintf("invalid image format: %s", c.Render.Format), nil)
	}
	if c.Render.JPEGQuality < 1 || c.Render.JPEGQuality > 100 {
		return domain.ConfigError(fmt.Sprintf("jpeg quality must be between 1 and 100, got %d", c.Render.JPEGQuality), nil)
	}

	if c.Correction.Enabled {
		if !strings.HasPrefix(c.Correction.Endpoint, "http://") && !strings.HasPrefix(c.Correction.Endpoint, "https://") {
			return domain.ConfigError(fmt.Sprintf("correction endpoint must be an http(s) URL: %q", c.Correction.Endpoint), nil)
		}
		if c.Correction.Timeout <= 0 {
			return domain.ConfigError("correction timeout must be positive", nil)
		}
	}

	return nil
}

// PageRange returns the configured page selection.
func (c *Config) PageRange() domain.PageRange {
	return domain.PageRange{
		First:    c.Pages.First,
		Last:     c.Pages.Last,
		SkipLast: c.Pages.SkipLast,
	}
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PDF_PATH"); v != "" {
		cfg.Input.PDFPath = v
	}

	if v := os.Getenv("OUTPUT_CSV"); v != "" {
		cfg.Output.CSVPath = v
	}

	if v := os.Getenv("OUTPUT_IMAGE_DIR"); v != "" {
		cfg.Output.ImageDir = v
	}

	if v := os.Getenv("CORRECTION_ENDPOINT"); v != "" {
		cfg.Correction.Endpoint = v
	}

	if v := os.Getenv("CORRECTION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return domain.ConfigError("parse CORRECTION_TIMEOUT", err)
		}
		cfg.Correction.Timeout = d
	}

	if v := os.Getenv("CORRECTION_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return domain.ConfigError("parse CORRECTION_ENABLED", err)
		}
		cfg.Correction.Enabled = enabled
	}

	if v := os.Getenv("DOCUMENT_TITLE"); v != "" {
		cfg.Correction.DocumentTitle = v
	}

	if v := os.Getenv("TEXT_EXTRACTOR"); v != "" {
		cfg.PDF.Extractor = v
	}

	if v := os.Getenv("RENDER_BACKEND"); v != "" {
		cfg.Render.Backend = v
	}

	if v := os.Getenv("GHOSTSCRIPT_PATH"); v != "" {
		cfg.Render.GhostscriptPath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	return nil
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if targetPath == "" || filepath.IsAbs(targetPath) || configPath == "" {
		return targetPath
	}
	return filepath.Join(filepath.Dir(configPath), targetPath)
}
