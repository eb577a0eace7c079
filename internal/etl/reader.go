package etl

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/snapanalyst/snapqc/internal/mapping"
)

// nullSentinels are the raw values the source files use to mean "no data".
// The Reader normalizes them to the empty string.
var nullSentinels = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NULL": true,
}

// IsNull reports whether a raw cell value represents a null.
func IsNull(s string) bool {
	return nullSentinels[strings.TrimSpace(s)]
}

// Reader reads and structurally validates a SNAP QC CSV file.
type Reader struct {
	path     string
	fileSize int64
}

// NewReader opens a reader for the given path.
// Returns ErrFileNotFound if the path does not exist.
func NewReader(path string) (*Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	slog.Info("csv reader initialized", "file", path, "size_bytes", info.Size())

	return &Reader{path: path, fileSize: info.Size()}, nil
}

// RowCount returns the number of data rows (header excluded). It does a
// structural scan without retaining any data; on failure it logs and
// returns 0 rather than propagating the error.
func (r *Reader) RowCount() int {
	f, err := os.Open(r.path)
	if err != nil {
		slog.Error("row count failed", "file", r.path, "error", err)
		return 0
	}
	defer f.Close()

	cr := newCSVParser(f)
	cr.ReuseRecord = true

	count := -1 // first record is the header
	for {
		_, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Error("row count failed", "file", r.path, "error", err)
			return 0
		}
		count++
	}

	if count < 0 {
		return 0
	}
	return count
}

// ColumnNames reads just the header row and returns the ordered column names.
func (r *Reader) ColumnNames() ([]string, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, &ParseError{Op: "read header", Err: err}
	}
	defer f.Close()

	header, err := newCSVParser(f).Read()
	if err != nil {
		return nil, &ParseError{Op: "read header", Err: err}
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}
	return cols, nil
}

// Read materializes rows [skip, skip+limit) into a Table. limit < 0 reads to
// the end of the file. Null sentinels are normalized to empty cells. After
// reading, the presence of every required column is checked; all missing
// columns are reported together.
func (r *Reader) Read(skip, limit int) (*Table, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, &ParseError{Op: "open file", Err: err}
	}
	defer f.Close()

	cr := newCSVParser(f)

	header, err := cr.Read()
	if err != nil {
		return nil, &ParseError{Op: "read header", Err: err}
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for n := 0; ; n++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Op: fmt.Sprintf("read row %d", n+1), Err: err}
		}
		if n < skip {
			continue
		}
		if limit >= 0 && len(rows) >= limit {
			break
		}
		rows = append(rows, normalizeRow(rec))
	}

	table := NewTable(cols, rows)
	if err := validateStructure(table); err != nil {
		return nil, err
	}

	slog.Info("csv loaded", "file", r.path, "rows", table.Len(), "columns", len(cols))
	return table, nil
}

// validateStructure checks that all required household columns exist,
// reporting every missing column rather than just the first.
func validateStructure(t *Table) error {
	var missing []string
	for _, col := range mapping.RequiredColumns() {
		if !t.HasCol(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &StructuralError{Missing: missing}
	}
	return nil
}

// Chunks returns a scanner over consecutive row ranges of chunkSize. Every
// chunk shares the header captured from the first read and all cells stay
// raw strings, so schema inference can never drift between chunks. Required
// columns are checked against the header before the first chunk is yielded.
// A file with no data rows yields zero chunks.
//
// Usage follows bufio.Scanner:
//
//	sc, err := r.Chunks(10000)
//	defer sc.Close()
//	for sc.Scan() {
//	    process(sc.Table())
//	}
//	if err := sc.Err(); err != nil { ... }
func (r *Reader) Chunks(chunkSize int) (*ChunkScanner, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	f, err := os.Open(r.path)
	if err != nil {
		return nil, &ParseError{Op: "open file", Err: err}
	}

	cr := newCSVParser(f)
	header, err := cr.Read()
	if err == io.EOF {
		f.Close()
		return &ChunkScanner{done: true}, nil
	}
	if err != nil {
		f.Close()
		return nil, &ParseError{Op: "read header", Err: err}
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}

	if err := validateStructure(NewTable(cols, nil)); err != nil {
		f.Close()
		return nil, err
	}

	slog.Info("reading csv in chunks", "file", r.path, "columns", len(cols), "chunk_size", chunkSize)

	return &ChunkScanner{
		file:      f,
		csv:       cr,
		cols:      cols,
		chunkSize: chunkSize,
	}, nil
}

// ChunkScanner iterates a CSV file one fixed-size row range at a time.
type ChunkScanner struct {
	file      *os.File
	csv       *csv.Reader
	cols      []string
	chunkSize int
	cur       *Table
	err       error
	done      bool
}

// Scan advances to the next chunk. It returns false when the file is
// exhausted or a read error occurred; check Err afterwards.
func (s *ChunkScanner) Scan() bool {
	if s.done {
		return false
	}

	rows := make([][]string, 0, s.chunkSize)
	for len(rows) < s.chunkSize {
		rec, err := s.csv.Read()
		if err == io.EOF {
			s.Close()
			break
		}
		if err != nil {
			s.err = &ParseError{Op: "read chunk", Err: err}
			s.Close()
			return false
		}
		rows = append(rows, rec)
	}

	if len(rows) == 0 {
		return false
	}

	s.cur = NewTable(s.cols, rows)
	return true
}

// Table returns the chunk read by the last successful Scan.
func (s *ChunkScanner) Table() *Table { return s.cur }

// Err returns the first error encountered while scanning, if any.
func (s *ChunkScanner) Err() error { return s.err }

// Close releases the underlying file. Scan closes it on EOF or a read
// error, but callers that stop iterating early must call Close themselves;
// it is idempotent, so deferring it next to the Scan loop is safe.
func (s *ChunkScanner) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// newCSVParser builds a csv.Reader with BOM and UTF-8 handling applied and
// the lenient settings wide extracts need (ragged rows, loose quoting).
func newCSVParser(f io.Reader) *csv.Reader {
	cr := csv.NewReader(wrapCSVStream(f))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

func normalizeRow(rec []string) []string {
	row := make([]string, len(rec))
	for i, v := range rec {
		if IsNull(v) {
			row[i] = ""
		} else {
			row[i] = strings.TrimSpace(v)
		}
	}
	return row
}
