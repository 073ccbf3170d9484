package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/spherical/pdf-dataset/internal/dataset"
	"github.com/spherical/pdf-dataset/internal/domain"
	"github.com/spherical/pdf-dataset/internal/observability"
	"github.com/spherical/pdf-dataset/internal/text"
)

// Config describes one run over a document
type Config struct {
	PDFPath  string
	CSVPath  string
	ImageDir string
	Pages    domain.PageRange
	// Resume starts after the highest page already present in CSVPath.
	Resume bool
	// SkipFailedPages turns extraction and render failures into per-page
	// skips instead of stopping the run.
	SkipFailedPages bool
}

// Dependencies are the leaf steps the service sequences. Normalizer and
// Sink default to trimming and a CSV sink on Config.CSVPath. A nil
// Corrector disables correction.
type Dependencies struct {
	Inspector  domain.Inspector
	Extractor  domain.TextExtractor
	Renderer   domain.Renderer
	Normalizer domain.Normalizer
	Corrector  domain.Corrector
	Sink       domain.RecordSink
}

// Service orchestrates the page-by-page dataset build
type Service struct {
	cfg  Config
	deps Dependencies

	logger *observability.Logger
}

// NewService creates a new pipeline service
func NewService(cfg Config, deps Dependencies, logger *observability.Logger) *Service {
	if deps.Normalizer == nil {
		deps.Normalizer = text.NewNormalizer()
	}
	if deps.Sink == nil {
		deps.Sink = dataset.NewCSVSink(cfg.CSVPath)
	}
	if logger == nil {
		logger = observability.Nop()
	}

	return &Service{
		cfg:    cfg,
		deps:   deps,
		logger: logger.WithComponent("pipeline"),
	}
}

// Run processes the configured page range one page at a time. It never
// returns an error: a failure that stops the run is logged, emitted as an
// EventError and recorded in RunStats.Err. Rows written before the failure
// stay in the dataset.
func (s *Service) Run(ctx context.Context, eventCh chan<- domain.StreamEvent) *domain.RunStats {
	return s.execute(ctx, nil, eventCh)
}

// RunPlan is Run with a plan already computed by Plan, so the document is
// not inspected a second time.
func (s *Service) RunPlan(ctx context.Context, plan *domain.Plan, eventCh chan<- domain.StreamEvent) *domain.RunStats {
	return s.execute(ctx, plan, eventCh)
}

func (s *Service) execute(ctx context.Context, plan *domain.Plan, eventCh chan<- domain.StreamEvent) *domain.RunStats {
	stats := &domain.RunStats{RunID: uuid.NewString()}
	logger := s.logger.WithRun(stats.RunID)
	startTime := time.Now()

	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventStart,
		Payload:   fmt.Sprintf("Starting dataset build from %s", s.cfg.PDFPath),
		Timestamp: time.Now(),
	})

	err := s.run(ctx, plan, logger, stats, eventCh)
	stats.Duration = time.Since(startTime)

	if err != nil {
		stats.Err = err
		logger.Error().
			Err(err).
			Int("processed", stats.Processed).
			Msg("Run aborted, rows written so far are kept")
		s.emitError(eventCh, err)
	}

	s.emitEvent(eventCh, domain.StreamEvent{
		Type: domain.EventComplete,
		Payload: fmt.Sprintf("Dataset build finished: %d/%d pages written in %v",
			stats.Processed, stats.Planned, stats.Duration.Round(time.Millisecond)),
		Timestamp: time.Now(),
	})

	logger.Info().
		Int("processed", stats.Processed).
		Int("corrected", stats.Corrected).
		Int("fallbacks", stats.Fallbacks).
		Int("skipped", stats.Skipped).
		Dur("duration", stats.Duration).
		Msg("Run finished")

	return stats
}

func (s *Service) run(ctx context.Context, plan *domain.Plan, logger *observability.Logger, stats *domain.RunStats, eventCh chan<- domain.StreamEvent) error {
	if err := os.MkdirAll(s.cfg.ImageDir, 0o755); err != nil {
		return domain.IOError("create image directory", err)
	}

	if plan == nil {
		var err error
		if plan, err = s.Plan(ctx); err != nil {
			return err
		}
	}
	stats.TotalPages = plan.Document.TotalPages
	stats.Planned = plan.Pages()

	if plan.AlreadyDone > 0 {
		logger.Info().Int("last_written", plan.AlreadyDone).Msg("Resuming after pages already in dataset")
	}
	logger.Info().
		Int("total_pages", plan.Document.TotalPages).
		Int("first", plan.First).
		Int("last", plan.Last).
		Msg("Processing document")
	if stats.Planned == 0 {
		logger.Warn().Msg("Page range is empty, nothing to do")
		return nil
	}

	for page := plan.First; page <= plan.Last; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.emitEvent(eventCh, domain.StreamEvent{
			Type:       domain.EventPageProcessing,
			PageNumber: page,
			Payload:    fmt.Sprintf("Processing page %d", page),
			Timestamp:  time.Now(),
		})

		pageLogger := logger.WithPage(page)
		record, correction, err := s.processPage(ctx, page)
		if err != nil {
			if s.cfg.SkipFailedPages && ctx.Err() == nil {
				stats.Skipped++
				pageLogger.Warn().Err(err).Msg("Skipping page")
				s.emitEvent(eventCh, domain.StreamEvent{
					Type:       domain.EventPageSkipped,
					PageNumber: page,
					Payload:    err.Error(),
					Timestamp:  time.Now(),
				})
				continue
			}
			return err
		}

		if correction.Fallback() {
			stats.Fallbacks++
			s.emitEvent(eventCh, domain.StreamEvent{
				Type:       domain.EventCorrectionFallback,
				PageNumber: page,
				Payload:    correction.Err.Error(),
				Timestamp:  time.Now(),
			})
		}

		if err := s.deps.Sink.Append(record); err != nil {
			return err
		}

		stats.Processed++
		if correction.Corrected {
			stats.Corrected++
		}
		pageLogger.Info().
			Str("image", record.ImagePath).
			Bool("corrected", correction.Corrected).
			Msg("Page done")

		s.emitEvent(eventCh, domain.StreamEvent{
			Type:       domain.EventPageComplete,
			PageNumber: page,
			Payload:    fmt.Sprintf("Completed page %d", page),
			Timestamp:  time.Now(),
		})
	}

	return nil
}

// Plan inspects the document and resolves the pages a run would process,
// honoring Resume. It writes nothing.
func (s *Service) Plan(ctx context.Context) (*domain.Plan, error) {
	doc, err := s.deps.Inspector.Inspect(ctx, s.cfg.PDFPath)
	if err != nil {
		return nil, err
	}

	plan := &domain.Plan{Document: doc}
	plan.First, plan.Last = s.cfg.Pages.Resolve(doc.TotalPages)

	if s.cfg.Resume {
		done, err := dataset.LastPageNumber(s.cfg.CSVPath)
		if err != nil {
			return nil, err
		}
		if done >= plan.First {
			plan.AlreadyDone = done
			plan.First = done + 1
		}
	}

	return plan, nil
}

// processPage runs extract, normalize, render and correct for one page.
// Only extraction and rendering can fail; correction falls back instead.
func (s *Service) processPage(ctx context.Context, page int) (domain.PageRecord, domain.Correction, error) {
	raw, err := s.deps.Extractor.ExtractText(ctx, s.cfg.PDFPath, page)
	if err != nil {
		return domain.PageRecord{}, domain.Correction{}, wrapStep(err, domain.ErrorTypeExtraction, "extract text", page)
	}
	cleaned := s.deps.Normalizer.Normalize(raw)

	imageName, err := s.deps.Renderer.RenderPage(ctx, s.cfg.PDFPath, page, s.cfg.ImageDir)
	if err != nil {
		return domain.PageRecord{}, domain.Correction{}, wrapStep(err, domain.ErrorTypeRender, "render page", page)
	}
	imageName = filepath.Base(imageName)
	if _, err := os.Stat(filepath.Join(s.cfg.ImageDir, imageName)); err != nil {
		return domain.PageRecord{}, domain.Correction{}, domain.RenderError("rendered image missing", err).OnPage(page)
	}

	// An interrupt lets the page finish: only the client timeout bounds correction.
	correction := domain.Correction{Text: cleaned}
	if s.deps.Corrector != nil {
		correction = s.deps.Corrector.Correct(context.WithoutCancel(ctx), cleaned, page)
	}

	return domain.PageRecord{
		PageNumber: page,
		Text:       correction.Text,
		ImagePath:  imageName,
	}, correction, nil
}

// wrapStep tags errors that do not already carry a domain type
func wrapStep(err error, errType domain.ErrorType, message string, page int) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if _, ok := domain.TypeOf(err); ok {
		return err
	}
	return domain.NewError(errType, message, err).OnPage(page)
}

// emitEvent safely emits an event to the channel
func (s *Service) emitEvent(eventCh chan<- domain.StreamEvent, event domain.StreamEvent) {
	if eventCh != nil {
		select {
		case eventCh <- event:
		default:
			s.logger.Warn().Str("event", string(event.Type)).Msg("Event channel full, dropping event")
		}
	}
}

// emitError emits an error event
func (s *Service) emitError(eventCh chan<- domain.StreamEvent, err error) {
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventError,
		Payload:   err.Error(),
		Timestamp: time.Now(),
	})
}
