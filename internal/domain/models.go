package domain

import (
	"time"
)

// CSV column names for PageRecord, in column order.
const (
	ColumnPageNumber = "PageNumber"
	ColumnText       = "Text"
	ColumnImagePaths = "ImagePaths"
)

// Document represents the source PDF file being processed
type Document struct {
	FilePath   string
	TotalPages int
}

// PageRecord is one row of the output dataset. It is built once per page
// and never modified after it has been handed to the sink.
type PageRecord struct {
	PageNumber int
	Text       string
	ImagePath  string // File name only, relative to the image directory
}

// PageRange selects the 1-based pages a run processes.
type PageRange struct {
	First    int  // 0 or 1 means the first page
	Last     int  // 0 means the last page of the document
	SkipLast bool // Exclude the document's final page
}

// Resolve returns the inclusive bounds of the range for a document with
// total pages. When the range is empty, last < first.
func (r PageRange) Resolve(total int) (first, last int) {
	first = r.First
	if first < 1 {
		first = 1
	}

	last = total
	if r.Last > 0 && r.Last < total {
		last = r.Last
	}
	if r.SkipLast && last == total {
		last = total - 1
	}

	return first, last
}

// Count returns how many pages Resolve selects.
func (r PageRange) Count(total int) int {
	first, last := r.Resolve(total)
	if last < first {
		return 0
	}
	return last - first + 1
}

// Plan is the resolved work for a run: the document and the inclusive page
// bounds still to process.
type Plan struct {
	Document    *Document
	First       int
	Last        int
	AlreadyDone int // Highest page found in the dataset when resuming
}

// Pages returns the number of pages the plan covers.
func (p *Plan) Pages() int {
	if p.Last < p.First {
		return 0
	}
	return p.Last - p.First + 1
}

// EventType represents the type of stream event
type EventType string

const (
	EventStart              EventType = "start"
	EventPageProcessing     EventType = "page_processing"
	EventCorrectionFallback EventType = "correction_fallback"
	EventPageComplete       EventType = "page_complete"
	EventPageSkipped        EventType = "page_skipped"
	EventError              EventType = "error"
	EventComplete           EventType = "complete"
)

// StreamEvent represents an event emitted during processing
type StreamEvent struct {
	Type       EventType   `json:"type"`
	PageNumber int         `json:"page_number,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// RunStats summarizes a finished run. Err is set when the run stopped
// before the planned range was exhausted.
type RunStats struct {
	RunID      string
	TotalPages int
	Planned    int
	Processed  int
	Corrected  int
	Fallbacks  int
	Skipped    int
	Duration   time.Duration
	Err        error
}

// Aborted reports whether the run stopped early.
func (s *RunStats) Aborted() bool {
	return s.Err != nil
}

// Correction is the outcome of a correction request. Text always holds
// usable output: the corrected text on success, the input otherwise.
type Correction struct {
	Text      string
	Corrected bool
	Err       error
}

// Fallback reports whether the correction failed and Text is the original input.
func (c Correction) Fallback() bool {
	return !c.Corrected && c.Err != nil
}
