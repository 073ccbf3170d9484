package pdf

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spherical/pdf-dataset/internal/domain"
)

// Image formats supported by the renderers.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// RenderOptions holds rasterization settings shared by all render backends.
type RenderOptions struct {
	DPI         float64
	Format      string
	JPEGQuality int
}

// DefaultRenderOptions renders 300 dpi PNGs.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{DPI: 300, Format: FormatPNG, JPEGQuality: 85}
}

// ImageFileName returns the deterministic file name for a rendered page.
func ImageFileName(page int, format string) string {
	ext := "png"
	if format == FormatJPEG {
		ext = "jpg"
	}
	return fmt.Sprintf("page_%d.%s", page, ext)
}

// writeImage encodes img into dir/name. The file is written under a
// temporary name and renamed so a reader never sees a partial image.
func writeImage(img image.Image, dir, name string, opts RenderOptions) error {
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return domain.IOError("create image file", err)
	}
	tmpPath := tmp.Name()

	if opts.Format == FormatJPEG {
		err = jpeg.Encode(tmp, img, &jpeg.Options{Quality: opts.JPEGQuality})
	} else {
		err = png.Encode(tmp, img)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return domain.RenderError(fmt.Sprintf("encode %s", opts.Format), err)
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpPath)
		return domain.IOError("move image into place", err)
	}
	return nil
}
