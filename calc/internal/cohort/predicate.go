package cohort

import (
	"strings"

	"github.com/strokestats/strokestats/calc/internal/dataset"
)

// Predicate is a row test compiled against a table. Compilation resolves
// column positions once and fails when a referenced column is absent.
type Predicate func(t *dataset.Table) (func(row int) bool, error)

func column(t *dataset.Table, name string) (int, error) {
	i, ok := t.Index(name)
	if !ok {
		return 0, &MissingColumnError{Column: name}
	}
	return i, nil
}

// In matches rows whose code in col is one of codes. Codes compare
// numerically when both sides are numbers.
func In(col string, codes ...string) Predicate {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[dataset.Canonical(c)] = struct{}{}
	}
	return func(t *dataset.Table) (func(int) bool, error) {
		i, err := column(t, col)
		if err != nil {
			return nil, err
		}
		return func(row int) bool {
			_, ok := set[t.Key(row, i)]
			return ok
		}, nil
	}
}

// NotIn matches rows whose code in col is none of codes.
func NotIn(col string, codes ...string) Predicate {
	return Not(In(col, codes...))
}

// Contains matches rows whose multi-select cell in col contains any of subs.
func Contains(col string, subs ...string) Predicate {
	return func(t *dataset.Table) (func(int) bool, error) {
		i, err := column(t, col)
		if err != nil {
			return nil, err
		}
		return func(row int) bool {
			cell := t.Cell(row, i)
			for _, s := range subs {
				if strings.Contains(cell, s) {
					return true
				}
			}
			return false
		}, nil
	}
}

// Range matches rows whose numeric value in col lies in (lo, hi].
// Cells that are not numbers never match.
func Range(col string, lo, hi float64) Predicate {
	return func(t *dataset.Table) (func(int) bool, error) {
		i, err := column(t, col)
		if err != nil {
			return nil, err
		}
		return func(row int) bool {
			f, ok := t.Float(row, i)
			return ok && f > lo && f <= hi
		}, nil
	}
}

// All matches rows that satisfy every predicate. All() matches everything.
func All(ps ...Predicate) Predicate {
	return func(t *dataset.Table) (func(int) bool, error) {
		fns, err := compileAll(t, ps)
		if err != nil {
			return nil, err
		}
		return func(row int) bool {
			for _, f := range fns {
				if !f(row) {
					return false
				}
			}
			return true
		}, nil
	}
}

// Any matches rows that satisfy at least one predicate.
func Any(ps ...Predicate) Predicate {
	return func(t *dataset.Table) (func(int) bool, error) {
		fns, err := compileAll(t, ps)
		if err != nil {
			return nil, err
		}
		return func(row int) bool {
			for _, f := range fns {
				if f(row) {
					return true
				}
			}
			return false
		}, nil
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(t *dataset.Table) (func(int) bool, error) {
		f, err := p(t)
		if err != nil {
			return nil, err
		}
		return func(row int) bool { return !f(row) }, nil
	}
}

// True matches every row.
func True() Predicate {
	return func(*dataset.Table) (func(int) bool, error) {
		return func(int) bool { return true }, nil
	}
}

func compileAll(t *dataset.Table, ps []Predicate) ([]func(int) bool, error) {
	fns := make([]func(int) bool, 0, len(ps))
	for _, p := range ps {
		f, err := p(t)
		if err != nil {
			return nil, err
		}
		fns = append(fns, f)
	}
	return fns, nil
}
