package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spherical/pdf-dataset/internal/domain"
)

// ReadRecords parses a dataset file. On a malformed row it returns the
// records read so far together with the parse error.
func ReadRecords(path string) ([]domain.PageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	var records []domain.PageRecord
	for line := 0; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		if line == 0 && row[0] == domain.ColumnPageNumber {
			continue
		}

		page, err := strconv.Atoi(row[0])
		if err != nil {
			return records, fmt.Errorf("row %d: invalid page number %q: %w", line+1, row[0], err)
		}
		records = append(records, domain.PageRecord{PageNumber: page, Text: row[1], ImagePath: row[2]})
	}
}

// LastPageNumber returns the highest page number stored in the dataset, or
// 0 when the file does not exist. A torn trailing row is ignored.
func LastPageNumber(path string) (int, error) {
	records, err := ReadRecords(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	var parseErr *csv.ParseError
	if err != nil && !errors.As(err, &parseErr) {
		return 0, domain.IOError("read dataset file", err)
	}

	last := 0
	for _, rec := range records {
		if rec.PageNumber > last {
			last = rec.PageNumber
		}
	}
	return last, nil
}
