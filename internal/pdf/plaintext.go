package pdf

import (
	"context"

	"github.com/ledongthuc/pdf"

	"github.com/spherical/pdf-dataset/internal/domain"
)

// PlainExtractor reads page text with the pure-Go ledongthuc/pdf reader.
// It opens the document on every call, trading speed for not needing cgo.
type PlainExtractor struct {
	validator *Validator
}

// NewPlainExtractor creates a pure-Go text extractor
func NewPlainExtractor(validator *Validator) *PlainExtractor {
	if validator == nil {
		validator = NewValidator(nil)
	}
	return &PlainExtractor{validator: validator}
}

// ExtractText returns the embedded text of a 1-based page
func (e *PlainExtractor) ExtractText(ctx context.Context, pdfPath string, page int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", domain.ExtractionError("failed to open PDF", err)
	}
	defer f.Close()

	if err := e.validator.ValidatePage(page, r.NumPage()); err != nil {
		return "", err
	}

	p := r.Page(page)
	if p.V.IsNull() {
		return "", nil
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", domain.ExtractionError("failed to extract text", err).OnPage(page)
	}
	return text, nil
}
