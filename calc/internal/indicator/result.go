package indicator

import (
	"errors"
	"fmt"

	"github.com/strokestats/strokestats/calc/internal/dataset"
)

// Base columns present before the first plan step runs.
const (
	ColTotalPatients = "Total Patients"
	ColMedianAge     = "Median patient age"
)

// ErrUnknownColumn is returned when a result column is read before any step
// wrote it.
var ErrUnknownColumn = errors.New("unknown result column")

// Result is the per-site accumulator. Values are indexed [column][site].
type Result struct {
	sites  []string
	index  map[string]int
	names  []string
	cols   []string
	colIdx map[string]int
	values [][]float64
	hidden map[string]bool
}

func newResult(t *dataset.Table) (*Result, []int, error) {
	idCol, ok := t.Index(dataset.ColSiteID)
	if !ok {
		return nil, nil, fmt.Errorf("indicator: %q: %w", dataset.ColSiteID, ErrUnknownColumn)
	}
	nameCol, ok := t.Index(dataset.ColSiteName)
	if !ok {
		return nil, nil, fmt.Errorf("indicator: %q: %w", dataset.ColSiteName, ErrUnknownColumn)
	}
	r := &Result{
		index:  make(map[string]int),
		colIdx: make(map[string]int),
		hidden: make(map[string]bool),
	}
	rowSite := make([]int, t.Len())
	for row := 0; row < t.Len(); row++ {
		id := t.Cell(row, idCol)
		si, seen := r.index[id]
		if !seen {
			si = len(r.sites)
			r.index[id] = si
			r.sites = append(r.sites, id)
			r.names = append(r.names, t.Cell(row, nameCol))
		}
		rowSite[row] = si
	}
	return r, rowSite, nil
}

// Len returns the number of sites.
func (r *Result) Len() int { return len(r.sites) }

// Sites returns the site ids in first-seen order.
func (r *Result) Sites() []string { return append([]string(nil), r.sites...) }

// SiteName returns the display name of site i.
func (r *Result) SiteName(i int) string { return r.names[i] }

// SiteIndex returns the position of site id.
func (r *Result) SiteIndex(id string) (int, bool) {
	i, ok := r.index[id]
	return i, ok
}

// Columns returns every column, hidden ones included, in write order.
func (r *Result) Columns() []string { return append([]string(nil), r.cols...) }

// Visible returns the columns that reach the output, in write order.
func (r *Result) Visible() []string {
	out := make([]string, 0, len(r.cols))
	for _, c := range r.cols {
		if !r.hidden[c] {
			out = append(out, c)
		}
	}
	return out
}

// Has reports whether column c has been written.
func (r *Result) Has(c string) bool {
	_, ok := r.colIdx[c]
	return ok
}

// Hidden reports whether column c is a helper column.
func (r *Result) Hidden(c string) bool { return r.hidden[c] }

// Column returns a copy of the per-site values of c.
func (r *Result) Column(c string) ([]float64, error) {
	v, err := r.column(c)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), v...), nil
}

// Value returns one cell.
func (r *Result) Value(site int, c string) (float64, error) {
	v, err := r.column(c)
	if err != nil {
		return 0, err
	}
	return v[site], nil
}

func (r *Result) column(c string) ([]float64, error) {
	i, ok := r.colIdx[c]
	if !ok {
		return nil, fmt.Errorf("indicator: %q: %w", c, ErrUnknownColumn)
	}
	return r.values[i], nil
}

// set writes column c. A column written twice keeps its original position.
func (r *Result) set(c string, v []float64, hidden bool) {
	if i, ok := r.colIdx[c]; ok {
		r.values[i] = v
	} else {
		r.colIdx[c] = len(r.cols)
		r.cols = append(r.cols, c)
		r.values = append(r.values, v)
	}
	if hidden {
		r.hidden[c] = true
	} else {
		delete(r.hidden, c)
	}
}
