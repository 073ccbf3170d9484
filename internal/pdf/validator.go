package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spherical/pdf-dataset/internal/domain"
	"github.com/spherical/pdf-dataset/internal/observability"
)

// Validator provides input validation for PDF files and render settings
type Validator struct {
	logger *observability.Logger
}

// NewValidator creates a new validator instance
func NewValidator(logger *observability.Logger) *Validator {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Validator{logger: logger}
}

// ValidatePDFPath validates that a file path is valid and points to a PDF
func (v *Validator) ValidatePDFPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" {
		return domain.ValidationError(fmt.Sprintf("file is not a PDF (has extension %s)", ext), nil)
	}

	const maxSize = 100 * 1024 * 1024 // 100MB
	if info.Size() > maxSize {
		v.logger.Warn().
			Int64("size_mb", info.Size()/(1024*1024)).
			Msg("PDF file is very large, processing may take a while")
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.ValidationError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	file.Close()

	return nil
}

// ValidatePage checks that a 1-based page index exists in a document of total pages
func (v *Validator) ValidatePage(page, total int) error {
	if page < 1 || page > total {
		return domain.ValidationError(fmt.Sprintf("page %d out of range 1-%d", page, total), nil)
	}
	return nil
}

// ValidateRenderOptions validates resolution, format and quality
func (v *Validator) ValidateRenderOptions(opts RenderOptions) error {
	if opts.DPI < 10 || opts.DPI > 1200 {
		return domain.ValidationError(fmt.Sprintf("dpi must be between 10 and 1200, got %v", opts.DPI), nil)
	}
	if opts.Format != FormatPNG && opts.Format != FormatJPEG {
		return domain.ValidationError(fmt.Sprintf("unsupported image format %q", opts.Format), nil)
	}
	if opts.Format == FormatJPEG && (opts.JPEGQuality < 1 || opts.JPEGQuality > 100) {
		return domain.ValidationError(fmt.Sprintf("quality must be between 1 and 100, got %d", opts.JPEGQuality), nil)
	}
	return nil
}
