package pdf

import (
	"fmt"

	"github.com/spherical/pdf-dataset/internal/domain"
	"github.com/spherical/pdf-dataset/internal/observability"
)

// Backend names accepted by NewBackends.
const (
	BackendFitz        = "fitz"
	BackendPDF         = "pdf"
	BackendPDFCPU      = "pdfcpu"
	BackendGhostscript = "ghostscript"
)

// Options selects and configures the PDF backends for a run.
type Options struct {
	Inspector       string
	Extractor       string
	Renderer        string
	Render          RenderOptions
	GhostscriptPath string
}

// Backends bundles the document-facing collaborators of the pipeline.
type Backends struct {
	Inspector domain.Inspector
	Extractor domain.TextExtractor
	Renderer  domain.Renderer

	fitz *FitzBackend
}

// NewBackends builds the backends named in opts. A single MuPDF handle is
// shared by every component that uses fitz.
func NewBackends(opts Options, logger *observability.Logger) (*Backends, error) {
	validator := NewValidator(logger)
	if err := validator.ValidateRenderOptions(opts.Render); err != nil {
		return nil, err
	}

	b := &Backends{}
	fitzBackend := func() *FitzBackend {
		if b.fitz == nil {
			b.fitz = NewFitzBackend(opts.Render, validator)
		}
		return b.fitz
	}

	switch opts.Inspector {
	case BackendPDFCPU, "":
		b.Inspector = NewPDFCPUInspector(validator)
	case BackendFitz:
		b.Inspector = fitzBackend()
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unknown inspector %q", opts.Inspector), nil)
	}

	switch opts.Extractor {
	case BackendFitz, "":
		b.Extractor = fitzBackend()
	case BackendPDF:
		b.Extractor = NewPlainExtractor(validator)
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unknown text extractor %q", opts.Extractor), nil)
	}

	switch opts.Renderer {
	case BackendFitz, "":
		b.Renderer = fitzBackend()
	case BackendGhostscript:
		gs := NewGhostscriptRenderer(opts.GhostscriptPath, opts.Render, validator)
		if !gs.Available() {
			return nil, domain.ConfigError(fmt.Sprintf("ghostscript binary %q not found", opts.GhostscriptPath), nil)
		}
		b.Renderer = gs
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unknown render backend %q", opts.Renderer), nil)
	}

	return b, nil
}

// Close releases any open document handle
func (b *Backends) Close() error {
	if b.fitz != nil {
		return b.fitz.Close()
	}
	return nil
}
