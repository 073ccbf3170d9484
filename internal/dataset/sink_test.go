package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf-dataset/internal/domain"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVSink_HeaderOnce(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		path := filepath.Join(t.TempDir(), "out.csv")
		sink := NewCSVSink(path)

		for i := 1; i <= n; i++ {
			require.NoError(t, sink.Append(domain.PageRecord{PageNumber: i, Text: "t", ImagePath: "page.png"}))
		}

		rows := readRows(t, path)
		require.Len(t, rows, n+1)
		assert.Equal(t, Header, rows[0])
		headers := 0
		for _, row := range rows {
			if row[0] == domain.ColumnPageNumber {
				headers++
			}
		}
		assert.Equal(t, 1, headers)
	}
}

func TestCSVSink_SameRecordTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	sink := NewCSVSink(path)
	first := domain.PageRecord{PageNumber: 1, Text: "primeira", ImagePath: "page_1.png"}
	second := domain.PageRecord{PageNumber: 2, Text: "segunda", ImagePath: "page_2.png"}

	require.NoError(t, sink.Append(first))
	require.NoError(t, sink.Append(second))

	records, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.PageRecord{first, second}, records)
}

func TestCSVSink_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	existing := "PageNumber,Text,ImagePaths\n1,old,page_1.png\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	require.NoError(t, NewCSVSink(path).WithCRLF(false).Append(domain.PageRecord{PageNumber: 2, Text: "new", ImagePath: "page_2.png"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, existing+"2,new,page_2.png\n", string(data))
}

func TestCSVSink_EmptyFileGetsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	require.NoError(t, NewCSVSink(path).Append(domain.PageRecord{PageNumber: 1, Text: "x", ImagePath: "page_1.png"}))

	rows := readRows(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, Header, rows[0])
}

func TestCSVSink_MultilineRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "real newline", in: "linha 1\nlinha 2", want: "linha 1\nlinha 2"},
		{name: "literal escape", in: `linha 1\nlinha 2`, want: "linha 1\nlinha 2"},
		{name: "crlf", in: "linha 1\r\nlinha 2", want: "linha 1\nlinha 2"},
		{name: "quotes and commas", in: `diz "olá", e sai`, want: `diz "olá", e sai`},
		{name: "blank lines", in: "a\n\n\nb", want: "a\n\n\nb"},
	}

	for _, crlf := range []bool{false, true} {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "out.csv")
				sink := NewCSVSink(path).WithCRLF(crlf)
				require.NoError(t, sink.Append(domain.PageRecord{PageNumber: 1, Text: tt.in, ImagePath: "page_1.png"}))

				rows := readRows(t, path)
				require.Len(t, rows, 2)
				assert.Equal(t, tt.want, rows[1][1])
			})
		}
	}
}

func TestCSVSink_QuoteEscaping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, NewCSVSink(path).WithCRLF(false).Append(domain.PageRecord{PageNumber: 7, Text: "a \"b\"\nc", ImagePath: "page_7.png"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "7,\"a \"\"b\"\"\nc\",page_7.png\n"))
}

func TestCSVSink_LineEndings(t *testing.T) {
	dir := t.TempDir()

	lf := filepath.Join(dir, "lf.csv")
	require.NoError(t, NewCSVSink(lf).WithCRLF(false).Append(domain.PageRecord{PageNumber: 1, Text: "a\nb", ImagePath: "p.png"}))
	data, _ := os.ReadFile(lf)
	assert.NotContains(t, string(data), "\r")

	crlf := filepath.Join(dir, "crlf.csv")
	require.NoError(t, NewCSVSink(crlf).WithCRLF(true).Append(domain.PageRecord{PageNumber: 1, Text: "a\nb", ImagePath: "p.png"}))
	data, _ = os.ReadFile(crlf)
	assert.Equal(t, "PageNumber,Text,ImagePaths\r\n1,\"a\r\nb\",p.png\r\n", string(data))
}

func TestCSVSink_StoresFileNameOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, NewCSVSink(path).Append(domain.PageRecord{PageNumber: 1, Text: "x", ImagePath: "images/page_1.png"}))

	records, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, "page_1.png", records[0].ImagePath)
}

func TestCSVSink_Errors(t *testing.T) {
	dir := t.TempDir()

	err := NewCSVSink(dir).Append(domain.PageRecord{PageNumber: 1})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeIO))

	err = NewCSVSink(filepath.Join(dir, "missing", "out.csv")).Append(domain.PageRecord{PageNumber: 3})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeIO))
	assert.Contains(t, err.Error(), "page 3")
}

func TestLastPageNumber(t *testing.T) {
	dir := t.TempDir()

	last, err := LastPageNumber(filepath.Join(dir, "missing.csv"))
	require.NoError(t, err)
	assert.Zero(t, last)

	path := filepath.Join(dir, "out.csv")
	sink := NewCSVSink(path)
	for _, p := range []int{1, 2, 3} {
		require.NoError(t, sink.Append(domain.PageRecord{PageNumber: p, Text: "linha\nquebrada", ImagePath: "x.png"}))
	}

	last, err = LastPageNumber(path)
	require.NoError(t, err)
	assert.Equal(t, 3, last)

	// simulate a crash in the middle of writing page 4
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("4,\"meio da pág")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	last, err = LastPageNumber(path)
	require.NoError(t, err)
	assert.Equal(t, 3, last)
}

func TestEncodeText(t *testing.T) {
	assert.Equal(t, "a\nb\nc", EncodeText(`a\nb`+"\r\nc"))
	assert.Equal(t, "sem quebra", EncodeText("sem quebra"))
}
