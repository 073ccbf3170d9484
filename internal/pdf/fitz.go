package pdf

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/spherical/pdf-dataset/internal/domain"
)

// FitzBackend inspects, extracts and renders pages with MuPDF through go-fitz.
// The document is opened once and the handle is reused until Close or until a
// different path is requested. Not safe for concurrent use.
type FitzBackend struct {
	opts      RenderOptions
	validator *Validator
	doc       *fitz.Document
	path      string
}

// NewFitzBackend creates a backend rendering with the given options
func NewFitzBackend(opts RenderOptions, validator *Validator) *FitzBackend {
	if validator == nil {
		validator = NewValidator(nil)
	}
	return &FitzBackend{opts: opts, validator: validator}
}

func (b *FitzBackend) open(pdfPath string) (*fitz.Document, error) {
	if b.doc != nil && b.path == pdfPath {
		return b.doc, nil
	}
	if err := b.Close(); err != nil {
		return nil, err
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, domain.ExtractionError("failed to open PDF", err)
	}
	b.doc = doc
	b.path = pdfPath
	return doc, nil
}

// Inspect validates the file and counts its pages
func (b *FitzBackend) Inspect(ctx context.Context, pdfPath string) (*domain.Document, error) {
	if err := b.validator.ValidatePDFPath(pdfPath); err != nil {
		return nil, err
	}

	doc, err := b.open(pdfPath)
	if err != nil {
		return nil, err
	}

	return &domain.Document{FilePath: pdfPath, TotalPages: doc.NumPage()}, nil
}

// ExtractText returns the embedded text of a 1-based page
func (b *FitzBackend) ExtractText(ctx context.Context, pdfPath string, page int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := b.open(pdfPath)
	if err != nil {
		return "", err
	}
	if err := b.validator.ValidatePage(page, doc.NumPage()); err != nil {
		return "", err
	}

	text, err := doc.Text(page - 1)
	if err != nil {
		return "", domain.ExtractionError("failed to extract text", err).OnPage(page)
	}
	return text, nil
}

// RenderPage rasterizes a 1-based page into outputDir and returns the file name
func (b *FitzBackend) RenderPage(ctx context.Context, pdfPath string, page int, outputDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := b.validator.ValidateRenderOptions(b.opts); err != nil {
		return "", err
	}

	doc, err := b.open(pdfPath)
	if err != nil {
		return "", domain.RenderError("failed to open PDF", err).OnPage(page)
	}
	if err := b.validator.ValidatePage(page, doc.NumPage()); err != nil {
		return "", err
	}

	img, err := doc.ImageDPI(page-1, b.opts.DPI)
	if err != nil {
		return "", domain.RenderError(fmt.Sprintf("failed to rasterize at %v dpi", b.opts.DPI), err).OnPage(page)
	}

	name := ImageFileName(page, b.opts.Format)
	if err := writeImage(img, outputDir, name, b.opts); err != nil {
		return "", err
	}
	return name, nil
}

// Close releases the open document, if any
func (b *FitzBackend) Close() error {
	if b.doc == nil {
		return nil
	}
	err := b.doc.Close()
	b.doc = nil
	b.path = ""
	return err
}
