package etl

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestNewReader_FileNotFound(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("NewReader() error = %v, want ErrFileNotFound", err)
	}
}

func TestRowCount(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{
			name:    "header plus three rows",
			content: "HHLDNO,STATE,YRMONTH,FSBEN\n1,6,202301,100\n2,6,202301,200\n3,6,202301,300\n",
			want:    3,
		},
		{
			name:    "header only",
			content: "HHLDNO,STATE,YRMONTH,FSBEN\n",
			want:    0,
		},
		{
			name:    "empty file",
			content: "",
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(writeTempCSV(t, tt.content))
			if err != nil {
				t.Fatalf("NewReader() error = %v", err)
			}
			if got := r.RowCount(); got != tt.want {
				t.Errorf("RowCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRead_NullSentinels(t *testing.T) {
	path := writeTempCSV(t,
		"HHLDNO,STATE,YRMONTH,FSBEN,RAWGROSS\n"+
			"1,6,202301,NA,N/A\n"+
			"2,6,202301,NULL,  \n")

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	tbl, err := r.Read(0, -1)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	fsben := tbl.Col("FSBEN")
	gross := tbl.Col("RAWGROSS")
	for row := 0; row < tbl.Len(); row++ {
		if got := tbl.Cell(row, fsben); got != "" {
			t.Errorf("row %d FSBEN = %q, want empty after null normalization", row, got)
		}
		if got := tbl.Cell(row, gross); got != "" {
			t.Errorf("row %d RAWGROSS = %q, want empty after null normalization", row, got)
		}
	}
}

func TestRead_MissingColumnsAllListed(t *testing.T) {
	// Missing STATE and FSBEN; the error must name both, not just the first.
	path := writeTempCSV(t, "HHLDNO,YRMONTH\n1,202301\n")

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	_, err = r.Read(0, -1)
	var se *StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("Read() error = %v, want StructuralError", err)
	}
	if len(se.Missing) != 2 {
		t.Fatalf("Missing = %v, want 2 columns", se.Missing)
	}
	for _, col := range []string{"STATE", "FSBEN"} {
		if !strings.Contains(err.Error(), col) {
			t.Errorf("error %q should mention %s", err.Error(), col)
		}
	}
}

func TestRead_SkipAndLimit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("HHLDNO,STATE,YRMONTH,FSBEN\n")
	for i := 1; i <= 10; i++ {
		sb.WriteString(strconv.Itoa(i) + ",6,202301,100\n")
	}

	r, err := NewReader(writeTempCSV(t, sb.String()))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	tbl, err := r.Read(3, 4)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if tbl.Len() != 4 {
		t.Fatalf("Read(3, 4) returned %d rows, want 4", tbl.Len())
	}
	if got := tbl.Cell(0, tbl.Col("HHLDNO")); got != "4" {
		t.Errorf("first row HHLDNO = %q, want %q", got, "4")
	}
}

func TestRead_BOMSkipped(t *testing.T) {
	path := writeTempCSV(t, "\xEF\xBB\xBFHHLDNO,STATE,YRMONTH,FSBEN\n1,6,202301,100\n")

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	cols, err := r.ColumnNames()
	if err != nil {
		t.Fatalf("ColumnNames() error = %v", err)
	}
	if cols[0] != "HHLDNO" {
		t.Errorf("first column = %q, want %q (BOM must be stripped)", cols[0], "HHLDNO")
	}
}

func TestChunks_SplitsRows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("HHLDNO,STATE,YRMONTH,FSBEN\n")
	for i := 1; i <= 25; i++ {
		sb.WriteString(strconv.Itoa(i) + ",6,202301,100\n")
	}

	r, err := NewReader(writeTempCSV(t, sb.String()))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	sc, err := r.Chunks(10)
	if err != nil {
		t.Fatalf("Chunks() error = %v", err)
	}

	var sizes []int
	total := 0
	for sc.Scan() {
		sizes = append(sizes, sc.Table().Len())
		total += sc.Table().Len()
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan error = %v", err)
	}

	want := []int{10, 10, 5}
	if len(sizes) != len(want) {
		t.Fatalf("chunk sizes = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("chunk %d has %d rows, want %d", i, sizes[i], want[i])
		}
	}
	if total != 25 {
		t.Errorf("total rows across chunks = %d, want 25", total)
	}
}

func TestChunks_CellsStayRaw(t *testing.T) {
	// Chunked reads deliver cells untouched; null normalization and typing
	// happen downstream so chunk boundaries cannot change interpretation.
	path := writeTempCSV(t, "HHLDNO,STATE,YRMONTH,FSBEN\n1,6,202301,NA\n")

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	sc, err := r.Chunks(10)
	if err != nil {
		t.Fatalf("Chunks() error = %v", err)
	}
	if !sc.Scan() {
		t.Fatalf("expected one chunk, got none (err = %v)", sc.Err())
	}

	tbl := sc.Table()
	if got := tbl.Cell(0, tbl.Col("FSBEN")); got != "NA" {
		t.Errorf("chunk cell = %q, want raw %q", got, "NA")
	}
}

func TestChunks_EmptyFile(t *testing.T) {
	r, err := NewReader(writeTempCSV(t, ""))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	sc, err := r.Chunks(10)
	if err != nil {
		t.Fatalf("Chunks() error = %v", err)
	}
	if sc.Scan() {
		t.Error("Scan() on empty file should return false")
	}
	if err := sc.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestChunks_HeaderOnly(t *testing.T) {
	r, err := NewReader(writeTempCSV(t, "HHLDNO,STATE,YRMONTH,FSBEN\n"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	sc, err := r.Chunks(10)
	if err != nil {
		t.Fatalf("Chunks() error = %v", err)
	}
	if sc.Scan() {
		t.Error("Scan() with no data rows should return false")
	}
}

func TestChunks_MissingRequiredColumns(t *testing.T) {
	// The header check happens before any chunk is yielded, same as on the
	// whole-file path.
	r, err := NewReader(writeTempCSV(t, "HHLDNO,YRMONTH\n1,202301\n"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	_, err = r.Chunks(10)
	var se *StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("Chunks() error = %v, want StructuralError", err)
	}
	for _, col := range []string{"STATE", "FSBEN"} {
		found := false
		for _, m := range se.Missing {
			if m == col {
				found = true
			}
		}
		if !found {
			t.Errorf("Missing = %v, should include %s", se.Missing, col)
		}
	}
}

func TestChunkScanner_CloseMidStream(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("HHLDNO,STATE,YRMONTH,FSBEN\n")
	for i := 1; i <= 25; i++ {
		sb.WriteString(strconv.Itoa(i) + ",6,202301,100\n")
	}

	r, err := NewReader(writeTempCSV(t, sb.String()))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	sc, err := r.Chunks(10)
	if err != nil {
		t.Fatalf("Chunks() error = %v", err)
	}
	if !sc.Scan() {
		t.Fatal("first Scan() = false, want a chunk")
	}

	if err := sc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := sc.file.Close(); err == nil {
		t.Error("underlying file still open after Close")
	}
	if err := sc.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}
	if sc.Scan() {
		t.Error("Scan() after Close should return false")
	}
	if err := sc.Err(); err != nil {
		t.Errorf("Err() after Close = %v, want nil", err)
	}
}

func TestChunks_InvalidSize(t *testing.T) {
	r, err := NewReader(writeTempCSV(t, "HHLDNO\n1\n"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	if _, err := r.Chunks(0); err == nil {
		t.Error("Chunks(0) should return an error")
	}
}

func TestIsNull(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"NA", true},
		{"N/A", true},
		{"NULL", true},
		{"  NA  ", true},
		{"0", false},
		{"na", false}, // sentinel matching is case-sensitive like the source format
		{"none", false},
	}

	for _, tt := range tests {
		if got := IsNull(tt.in); got != tt.want {
			t.Errorf("IsNull(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
