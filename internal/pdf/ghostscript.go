package pdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spherical/pdf-dataset/internal/domain"
)

// GhostscriptRenderer rasterizes pages by running the Ghostscript binary.
type GhostscriptRenderer struct {
	binary    string
	opts      RenderOptions
	validator *Validator
}

// NewGhostscriptRenderer creates a renderer calling the given gs binary
func NewGhostscriptRenderer(binary string, opts RenderOptions, validator *Validator) *GhostscriptRenderer {
	if binary == "" {
		binary = "gs"
	}
	if validator == nil {
		validator = NewValidator(nil)
	}
	return &GhostscriptRenderer{binary: binary, opts: opts, validator: validator}
}

// Available reports whether the configured binary can be found
func (r *GhostscriptRenderer) Available() bool {
	_, err := exec.LookPath(r.binary)
	return err == nil
}

// args builds the command line rendering a single page to outputPath
func (r *GhostscriptRenderer) args(pdfPath string, page int, outputPath string) []string {
	device := "png16m"
	if r.opts.Format == FormatJPEG {
		device = "jpeg"
	}

	args := []string{
		"-dSAFER",
		"-dBATCH",
		"-dNOPAUSE",
		"-dQUIET",
		"-sDEVICE=" + device,
		fmt.Sprintf("-r%g", r.opts.DPI),
		fmt.Sprintf("-dFirstPage=%d", page),
		fmt.Sprintf("-dLastPage=%d", page),
	}
	if r.opts.Format == FormatJPEG {
		args = append(args, fmt.Sprintf("-dJPEGQ=%d", r.opts.JPEGQuality))
	}
	return append(args, "-sOutputFile="+outputPath, pdfPath)
}

// RenderPage rasterizes a 1-based page into outputDir and returns the file name
func (r *GhostscriptRenderer) RenderPage(ctx context.Context, pdfPath string, page int, outputDir string) (string, error) {
	if err := r.validator.ValidateRenderOptions(r.opts); err != nil {
		return "", err
	}
	if page < 1 {
		return "", domain.ValidationError(fmt.Sprintf("invalid page %d", page), nil)
	}

	name := ImageFileName(page, r.opts.Format)
	tmpPath := filepath.Join(outputDir, "."+name+".tmp")

	cmd := exec.CommandContext(ctx, r.binary, r.args(pdfPath, page, tmpPath)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tmpPath)
		return "", domain.RenderError(
			fmt.Sprintf("ghostscript failed: %s", strings.TrimSpace(string(output))), err).OnPage(page)
	}

	// gs exits 0 for a page past the end and simply writes nothing.
	info, err := os.Stat(tmpPath)
	if err != nil || info.Size() == 0 {
		os.Remove(tmpPath)
		return "", domain.RenderError("ghostscript produced no image", err).OnPage(page)
	}

	if err := os.Rename(tmpPath, filepath.Join(outputDir, name)); err != nil {
		os.Remove(tmpPath)
		return "", domain.IOError("move image into place", err)
	}
	return name, nil
}
