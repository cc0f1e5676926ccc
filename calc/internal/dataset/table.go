package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Column names every registry extract must carry.
const (
	ColSiteID   = "Protocol ID"
	ColSiteName = "Site Name"
	ColCountry  = "Country"
)

// Legacy is the code written into fields that did not exist in the form
// version a record was captured with.
const Legacy = "-999"

// ErrShape is returned by New when a row does not match the header.
var ErrShape = errors.New("row width does not match header")

// ErrDuplicateColumn is returned by New when the header repeats a name.
var ErrDuplicateColumn = errors.New("duplicate column")

// Table is an immutable column-indexed table of string cells.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New builds a Table from a header and rows. The rows are copied.
func New(columns []string, rows [][]string) (*Table, error) {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]string, 0, len(rows)),
	}
	for i, c := range columns {
		if _, dup := t.index[c]; dup {
			return nil, fmt.Errorf("dataset: %q: %w", c, ErrDuplicateColumn)
		}
		t.index[c] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("dataset: row %d has %d cells, header has %d: %w",
				i, len(r), len(columns), ErrShape)
		}
		t.rows = append(t.rows, append([]string(nil), r...))
	}
	return t, nil
}

// Columns returns the header in file order.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Has reports whether the table carries column c.
func (t *Table) Has(c string) bool {
	_, ok := t.index[c]
	return ok
}

// Index returns the position of column c.
func (t *Table) Index(c string) (int, bool) {
	i, ok := t.index[c]
	return i, ok
}

// Rows returns a deep copy of the cells.
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Cell returns the zero-filled text of one cell.
func (t *Table) Cell(row, col int) string {
	return Normalize(t.rows[row][col])
}

// Value returns the cell as a string, addressed by column name.
// Missing columns read as "0", matching the zero-filled extract.
func (t *Table) Value(row int, c string) string {
	i, ok := t.index[c]
	if !ok {
		return "0"
	}
	return t.Cell(row, i)
}

// Key returns the canonical code of a cell: numeric cells are formatted in
// their shortest float form, everything else is the trimmed text.
func (t *Table) Key(row, col int) string {
	return Canonical(t.rows[row][col])
}

// Float returns a numeric cell. ok is false when the cell is not a number.
func (t *Table) Float(row, col int) (float64, bool) {
	return ParseFloat(t.rows[row][col])
}

// Normalize applies the zero-fill rule to raw cell text.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return "0"
	}
	return s
}

// Canonical returns the code form of raw cell text.
func Canonical(s string) string {
	s = Normalize(s)
	if f, ok := ParseFloat(s); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return s
}

// ParseFloat reads a numeric cell. Empty and NaN cells are 0.
func ParseFloat(s string) (float64, bool) {
	f, err := cast.ToFloat64E(Normalize(s))
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
