package domain

import "context"

// Inspector opens a PDF once to validate it and count its pages
type Inspector interface {
	Inspect(ctx context.Context, pdfPath string) (*Document, error)
}

// TextExtractor returns the raw embedded text of a single page
type TextExtractor interface {
	// ExtractText returns the text of the 1-based page
	ExtractText(ctx context.Context, pdfPath string, page int) (string, error)
}

// Renderer rasterizes one page into outputDir and returns the image file name
type Renderer interface {
	RenderPage(ctx context.Context, pdfPath string, page int, outputDir string) (string, error)
}

// Normalizer applies local, deterministic cleanup to extracted text
type Normalizer interface {
	Normalize(text string) string
}

// RecordSink durably persists one record per call
type RecordSink interface {
	Append(record PageRecord) error
}

// Corrector sends page text to the correction service. It never fails:
// errors are reported inside the returned Correction.
type Corrector interface {
	Correct(ctx context.Context, text string, page int) Correction
}
