package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf-dataset/internal/domain"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Input.PDFPath = "manual.pdf"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "output.csv", cfg.Output.CSVPath)
	assert.Equal(t, "images", cfg.Output.ImageDir)
	assert.Equal(t, "http://localhost:3000/ia", cfg.Correction.Endpoint)
	assert.Equal(t, 15*time.Minute, cfg.Correction.Timeout)
	assert.True(t, cfg.Correction.Enabled)
	assert.Equal(t, 300.0, cfg.Render.DPI)
	assert.False(t, cfg.Pages.SkipLast)
	assert.Equal(t, OnErrorAbort, cfg.Pages.OnError)
}

func TestLoad_YAMLAndRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.yaml")
	content := `
input:
  pdf_path: manual.pdf
output:
  csv_path: out/pages.csv
  image_dir: /abs/images
pages:
  skip_last: true
  on_error: skip
correction:
  endpoint: http://corrector:8080/ia
  timeout: 90s
render:
  backend: ghostscript
  format: jpeg
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, filepath.Join(dir, "manual.pdf"), cfg.Input.PDFPath)
	assert.Equal(t, filepath.Join(dir, "out/pages.csv"), cfg.Output.CSVPath)
	assert.Equal(t, "/abs/images", cfg.Output.ImageDir)
	assert.True(t, cfg.Pages.SkipLast)
	assert.Equal(t, OnErrorSkip, cfg.Pages.OnError)
	assert.Equal(t, "http://corrector:8080/ia", cfg.Correction.Endpoint)
	assert.Equal(t, 90*time.Second, cfg.Correction.Timeout)
	assert.Equal(t, BackendGhostscript, cfg.Render.Backend)
	assert.Equal(t, "jpeg", cfg.Render.Format)
	// untouched keys keep their defaults
	assert.Equal(t, 300.0, cfg.Render.DPI)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PDF_PATH", "/data/manual.pdf")
	t.Setenv("OUTPUT_CSV", "/data/out.csv")
	t.Setenv("OUTPUT_IMAGE_DIR", "/data/img")
	t.Setenv("CORRECTION_ENDPOINT", "https://example.test/fix")
	t.Setenv("CORRECTION_TIMEOUT", "2m")
	t.Setenv("CORRECTION_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/data/manual.pdf", cfg.Input.PDFPath)
	assert.Equal(t, "/data/out.csv", cfg.Output.CSVPath)
	assert.Equal(t, "/data/img", cfg.Output.ImageDir)
	assert.Equal(t, "https://example.test/fix", cfg.Correction.Endpoint)
	assert.Equal(t, 2*time.Minute, cfg.Correction.Timeout)
	assert.False(t, cfg.Correction.Enabled)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoad_BadEnvTimeout(t *testing.T) {
	t.Setenv("CORRECTION_TIMEOUT", "forever")

	_, err := Load("")
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing pdf", mutate: func(c *Config) { c.Input.PDFPath = " " }, wantErr: true},
		{name: "missing csv", mutate: func(c *Config) { c.Output.CSVPath = "" }, wantErr: true},
		{name: "first after last", mutate: func(c *Config) { c.Pages.First, c.Pages.Last = 5, 2 }, wantErr: true},
		{name: "bad policy", mutate: func(c *Config) { c.Pages.OnError = "retry" }, wantErr: true},
		{name: "bad extractor", mutate: func(c *Config) { c.PDF.Extractor = "itext" }, wantErr: true},
		{name: "bad backend", mutate: func(c *Config) { c.Render.Backend = "blank" }, wantErr: true},
		{name: "bad format", mutate: func(c *Config) { c.Render.Format = "gif" }, wantErr: true},
		{name: "bad dpi", mutate: func(c *Config) { c.Render.DPI = 0 }, wantErr: true},
		{name: "bad endpoint", mutate: func(c *Config) { c.Correction.Endpoint = "localhost:3000" }, wantErr: true},
		{name: "bad endpoint ignored when disabled", mutate: func(c *Config) {
			c.Correction.Enabled = false
			c.Correction.Endpoint = ""
		}},
		{name: "zero timeout", mutate: func(c *Config) { c.Correction.Timeout = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPageRange(t *testing.T) {
	cfg := validConfig()
	cfg.Pages.First = 2
	cfg.Pages.Last = 4
	cfg.Pages.SkipLast = true

	assert.Equal(t, domain.PageRange{First: 2, Last: 4, SkipLast: true}, cfg.PageRange())
}
