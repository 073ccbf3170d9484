package pdf

import (
	"context"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/spherical/pdf-dataset/internal/domain"
)

// PDFCPUInspector validates the document structure with pdfcpu before
// counting pages, so a corrupt file fails before any output is written.
type PDFCPUInspector struct {
	validator *Validator
	conf      *model.Configuration
}

// NewPDFCPUInspector creates an inspector using relaxed validation
func NewPDFCPUInspector(validator *Validator) *PDFCPUInspector {
	if validator == nil {
		validator = NewValidator(nil)
	}

	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	return &PDFCPUInspector{validator: validator, conf: conf}
}

// Inspect validates the file and counts its pages
func (i *PDFCPUInspector) Inspect(ctx context.Context, pdfPath string) (*domain.Document, error) {
	if err := i.validator.ValidatePDFPath(pdfPath); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := api.ValidateFile(pdfPath, i.conf); err != nil {
		return nil, domain.ValidationError("PDF failed structural validation", err)
	}

	pageCount, err := api.PageCountFile(pdfPath)
	if err != nil {
		return nil, domain.ExtractionError("failed to count pages", err)
	}

	return &domain.Document{FilePath: pdfPath, TotalPages: pageCount}, nil
}
