package etl

// Table is a small column-indexed frame of string cells, the unit of data
// handed from the Reader to the Transformer. All cells are strings; numeric
// and boolean coercion is the Transformer's job so that whole-file and
// chunked reads behave identically.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]string
}

// NewTable builds a table from a header and data rows. Short rows are
// allowed; missing cells read as empty.
func NewTable(cols []string, rows [][]string) *Table {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	return &Table{cols: cols, index: idx, rows: rows}
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns the ordered column names.
func (t *Table) Columns() []string { return t.cols }

// Col returns the position of a column, or -1 if the column is absent.
func (t *Table) Col(name string) int {
	if pos, ok := t.index[name]; ok {
		return pos
	}
	return -1
}

// HasCol reports whether the table contains the named column.
func (t *Table) HasCol(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Cell returns the value at (row, col position). Out-of-range cells read as
// empty, which matches how ragged CSV rows are treated.
func (t *Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.rows) {
		return ""
	}
	r := t.rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}
