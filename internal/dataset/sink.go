// Package dataset persists page records as CSV rows.
package dataset

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spherical/pdf-dataset/internal/domain"
)

// Header is the first row of every dataset file.
var Header = []string{domain.ColumnPageNumber, domain.ColumnText, domain.ColumnImagePaths}

// HostNewline is the line ending used for records and embedded line breaks.
var HostNewline = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

// CSVSink appends records to a CSV file. Each Append opens, writes and
// closes the file, so an interrupted run leaves every earlier row intact.
// It assumes it is the only writer of the file.
type CSVSink struct {
	path    string
	useCRLF bool
}

// NewCSVSink creates a sink writing to path with the host line ending
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path, useCRLF: HostNewline == "\r\n"}
}

// WithCRLF forces CRLF (true) or LF (false) line endings
func (s *CSVSink) WithCRLF(crlf bool) *CSVSink {
	s.useCRLF = crlf
	return s
}

// Append writes record as one row, preceded by the header when the file
// does not exist yet (or is empty).
func (s *CSVSink) Append(record domain.PageRecord) (err error) {
	needHeader, err := s.needsHeader()
	if err != nil {
		return err
	}

	row, err := s.encode(record, needHeader)
	if err != nil {
		return domain.IOError("encode record", err).OnPage(record.PageNumber)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return domain.IOError("open dataset file", err).OnPage(record.PageNumber)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = domain.IOError("close dataset file", cerr).OnPage(record.PageNumber)
		}
	}()

	// header and row go out in a single write
	if _, err := f.Write(row); err != nil {
		return domain.IOError("write record", err).OnPage(record.PageNumber)
	}
	return nil
}

func (s *CSVSink) needsHeader() (bool, error) {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, domain.IOError("stat dataset file", err)
	}
	if info.IsDir() {
		return false, domain.IOError("dataset path is a directory: "+s.path, nil)
	}
	return info.Size() == 0, nil
}

func (s *CSVSink) encode(record domain.PageRecord, header bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = s.useCRLF

	if header {
		if err := w.Write(Header); err != nil {
			return nil, err
		}
	}

	if err := w.Write([]string{
		strconv.Itoa(record.PageNumber),
		EncodeText(record.Text),
		filepath.Base(record.ImagePath),
	}); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeText turns literal "\n" escape sequences into real line breaks and
// normalizes CRLF to LF; the CSV writer then emits the host line ending.
func EncodeText(text string) string {
	text = strings.ReplaceAll(text, `\n`, "\n")
	return strings.ReplaceAll(text, "\r\n", "\n")
}
