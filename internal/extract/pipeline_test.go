package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf-dataset/internal/dataset"
	"github.com/spherical/pdf-dataset/internal/llm"
	"github.com/spherical/pdf-dataset/internal/pdf"
	"github.com/spherical/pdf-dataset/internal/pdf/pdftest"
	"github.com/spherical/pdf-dataset/internal/text"
)

// correctionServer answers OK<n> for the n-th request and fails the requests
// listed in failing.
func correctionServer(t *testing.T, failing ...int64) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)

		var req llm.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		for _, f := range failing {
			if f == n {
				http.Error(w, "upstream exploded", http.StatusInternalServerError)
				return
			}
		}
		fmt.Fprintf(w, "OK%d", n)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func buildPipeline(t *testing.T, dir, endpoint string, pages []string) (*Service, Config) {
	t.Helper()
	cfg := Config{
		PDFPath:  pdftest.Write(t, dir, "manual.pdf", pages),
		CSVPath:  filepath.Join(dir, "output.csv"),
		ImageDir: filepath.Join(dir, "images"),
	}

	backends, err := pdf.NewBackends(pdf.Options{
		Inspector: pdf.BackendPDFCPU,
		Extractor: pdf.BackendFitz,
		Renderer:  pdf.BackendFitz,
		Render:    pdf.RenderOptions{DPI: 72, Format: pdf.FormatPNG},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { backends.Close() })

	client := llm.NewClient(llm.Options{Endpoint: endpoint, Timeout: 5 * time.Second}, nil)
	t.Cleanup(client.Close)

	svc := NewService(cfg, Dependencies{
		Inspector:  backends.Inspector,
		Extractor:  backends.Extractor,
		Renderer:   backends.Renderer,
		Normalizer: text.NewNormalizer(),
		Corrector:  client,
	}, nil)
	return svc, cfg
}

func TestPipeline_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	srv, calls := correctionServer(t, 2)
	svc, cfg := buildPipeline(t, dir, srv.URL, []string{
		"Check the oil level",
		"Replace the wiper blades",
		"Inflate the tyres",
	})

	stats := svc.Run(context.Background(), nil)

	require.NoError(t, stats.Err)
	assert.Equal(t, 3, stats.TotalPages)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Corrected)
	assert.Equal(t, 1, stats.Fallbacks)
	assert.EqualValues(t, 3, calls.Load(), "one request per page, no retries")

	records, err := dataset.ReadRecords(cfg.CSVPath)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "OK1", records[0].Text)
	assert.Equal(t, "OK3", records[2].Text)

	// the failed page keeps its normalized source text
	assert.Equal(t, "Replace the wiper blades", records[1].Text)

	for i, rec := range records {
		assert.Equal(t, i+1, rec.PageNumber)
		assert.Equal(t, fmt.Sprintf("page_%d.png", i+1), rec.ImagePath)
		assert.FileExists(t, filepath.Join(cfg.ImageDir, rec.ImagePath))
	}
}

func TestPipeline_SecondRunAppends(t *testing.T) {
	dir := t.TempDir()
	srv, _ := correctionServer(t)
	pages := []string{"first", "second"}

	svc, cfg := buildPipeline(t, dir, srv.URL, pages)
	require.NoError(t, svc.Run(context.Background(), nil).Err)

	svc, _ = buildPipeline(t, dir, srv.URL, pages)
	require.NoError(t, svc.Run(context.Background(), nil).Err)

	records, err := dataset.ReadRecords(cfg.CSVPath)
	require.NoError(t, err, "a second run must not write a second header")
	require.Len(t, records, 4)
	assert.Equal(t, []int{1, 2, 1, 2}, []int{
		records[0].PageNumber, records[1].PageNumber, records[2].PageNumber, records[3].PageNumber,
	})
}

func TestPipeline_ServiceDown(t *testing.T) {
	dir := t.TempDir()
	srv, _ := correctionServer(t)
	url := srv.URL
	srv.Close()

	svc, cfg := buildPipeline(t, dir, url, []string{"only page"})
	stats := svc.Run(context.Background(), nil)

	require.NoError(t, stats.Err)
	assert.Equal(t, 1, stats.Fallbacks)

	records, err := dataset.ReadRecords(cfg.CSVPath)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "only page", records[0].Text)
}

func TestPipeline_InterruptDuringCorrectionFinishesPage(t *testing.T) {
	f := newFixture(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan struct{}, 1)
	interrupted := make(chan struct{})
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		received <- struct{}{}
		select {
		case <-interrupted:
		case <-r.Context().Done():
			return
		}
		fmt.Fprintf(w, "fixed %d", n)
	}))
	defer srv.Close()

	go func() {
		<-received
		cancel()
		close(interrupted)
	}()

	client := llm.NewClient(llm.Options{Endpoint: srv.URL, Timeout: 5 * time.Second}, nil)
	defer client.Close()
	deps := f.deps()
	deps.Corrector = client

	stats := NewService(f.cfg, deps, nil).Run(ctx, nil)

	assert.ErrorIs(t, stats.Err, context.Canceled)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Corrected)
	assert.Zero(t, stats.Fallbacks)
	assert.EqualValues(t, 1, calls.Load())

	records := f.records(t)
	require.Len(t, records, 1)
	assert.Equal(t, "fixed 1", records[0].Text)
}
