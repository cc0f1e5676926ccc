package cohort

import (
	"errors"
	"fmt"

	"github.com/strokestats/strokestats/calc/internal/dataset"
)

// ErrMissingColumn is wrapped by every *MissingColumnError.
var ErrMissingColumn = errors.New("missing column")

// ErrUnknownCohort is returned by Set.Get for names that were never defined.
var ErrUnknownCohort = errors.New("unknown cohort")

// ErrDuplicateCohort is returned when a name is defined twice in one Set.
var ErrDuplicateCohort = errors.New("duplicate cohort")

// MissingColumnError reports a predicate that names a column the table does
// not carry.
type MissingColumnError struct {
	Cohort string
	Column string
}

func (e *MissingColumnError) Error() string {
	if e.Cohort == "" {
		return fmt.Sprintf("cohort: missing column %q", e.Column)
	}
	return fmt.Sprintf("cohort %s: missing column %q", e.Cohort, e.Column)
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// Cohort is a named immutable row mask over a table.
type Cohort struct {
	name  string
	table *dataset.Table
	rows  []int
}

// Build selects the rows of t that satisfy p.
func Build(t *dataset.Table, name string, p Predicate) (*Cohort, error) {
	all := make([]int, t.Len())
	for i := range all {
		all[i] = i
	}
	return selectRows(t, name, all, p)
}

// Filter derives a sub-cohort of c.
func (c *Cohort) Filter(name string, p Predicate) (*Cohort, error) {
	return selectRows(c.table, name, c.rows, p)
}

func selectRows(t *dataset.Table, name string, from []int, p Predicate) (*Cohort, error) {
	match, err := p(t)
	if err != nil {
		var mc *MissingColumnError
		if errors.As(err, &mc) && mc.Cohort == "" {
			mc.Cohort = name
		}
		return nil, err
	}
	rows := make([]int, 0, len(from))
	for _, r := range from {
		if match(r) {
			rows = append(rows, r)
		}
	}
	return &Cohort{name: name, table: t, rows: rows}, nil
}

// Name returns the cohort name.
func (c *Cohort) Name() string { return c.name }

// Len returns the number of rows in the cohort.
func (c *Cohort) Len() int { return len(c.rows) }

// Empty reports whether the cohort selects no rows at all.
func (c *Cohort) Empty() bool { return len(c.rows) == 0 }

// Table returns the table the cohort selects from.
func (c *Cohort) Table() *dataset.Table { return c.table }

// Rows returns the selected row indexes in ascending order.
func (c *Cohort) Rows() []int { return append([]int(nil), c.rows...) }

// Each calls fn for every selected row in ascending order.
func (c *Cohort) Each(fn func(row int)) {
	for _, r := range c.rows {
		fn(r)
	}
}

// renamed returns a view of c under another name.
func (c *Cohort) renamed(name string) *Cohort {
	return &Cohort{name: name, table: c.table, rows: c.rows}
}
