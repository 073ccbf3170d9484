package main

import (
	"fmt"

	"github.com/spherical/pdf-dataset/internal/config"
	"github.com/spherical/pdf-dataset/internal/domain"
	"github.com/spherical/pdf-dataset/internal/extract"
	"github.com/spherical/pdf-dataset/internal/llm"
	"github.com/spherical/pdf-dataset/internal/observability"
	"github.com/spherical/pdf-dataset/internal/pdf"
	"github.com/spherical/pdf-dataset/internal/text"
)

// buildService wires the configured backends into a pipeline service. The
// returned cleanup releases the document handle and pooled connections.
func buildService(c *config.Config, logger *observability.Logger) (*extract.Service, func(), error) {
	backends, err := pdf.NewBackends(pdf.Options{
		Inspector: c.PDF.Inspector,
		Extractor: c.PDF.Extractor,
		Renderer:  c.Render.Backend,
		Render: pdf.RenderOptions{
			DPI:         c.Render.DPI,
			Format:      c.Render.Format,
			JPEGQuality: c.Render.JPEGQuality,
		},
		GhostscriptPath: c.Render.GhostscriptPath,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	var rules []text.Rule
	if c.Normalize.JoinHyphenated {
		rules = append(rules, text.JoinHyphenated)
	}

	deps := extract.Dependencies{
		Inspector:  backends.Inspector,
		Extractor:  backends.Extractor,
		Renderer:   backends.Renderer,
		Normalizer: text.NewNormalizer(rules...),
	}

	var client *llm.Client
	if c.Correction.Enabled {
		client = llm.NewClient(llm.Options{
			Endpoint:      c.Correction.Endpoint,
			Timeout:       c.Correction.Timeout,
			DocumentTitle: c.Correction.DocumentTitle,
		}, logger)
		deps.Corrector = client
	} else {
		logger.Info().Msg("Correction disabled, writing normalized text")
	}

	svc := extract.NewService(extract.Config{
		PDFPath:         c.Input.PDFPath,
		CSVPath:         c.Output.CSVPath,
		ImageDir:        c.Output.ImageDir,
		Pages:           c.PageRange(),
		Resume:          c.Pages.Resume,
		SkipFailedPages: c.Pages.OnError == config.OnErrorSkip,
	}, deps, logger)

	cleanup := func() {
		if client != nil {
			client.Close()
		}
		if err := backends.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close document")
		}
	}

	return svc, cleanup, nil
}

// describePlan renders a plan for humans, e.g. "pages 1-11 of 12".
func describePlan(plan *domain.Plan) string {
	total := plan.Document.TotalPages
	switch {
	case plan.Pages() == 0:
		return "no pages to process"
	case plan.Pages() == 1:
		return fmt.Sprintf("page %d of %d", plan.First, total)
	default:
		return fmt.Sprintf("pages %d-%d of %d", plan.First, plan.Last, total)
	}
}
