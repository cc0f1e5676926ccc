package indicator

import (
	"math"

	"github.com/strokestats/strokestats/calc/internal/cohort"
	"github.com/strokestats/strokestats/calc/internal/dataset"
)

type matchKind int

const (
	matchCodes matchKind = iota
	matchSubstring
)

// Match selects the cell values an indicator counts.
type Match struct {
	kind   matchKind
	values []string
}

// Code matches one code exactly.
func Code(v string) Match { return Match{kind: matchCodes, values: []string{v}} }

// Codes matches any of a set of codes exactly.
func Codes(v ...string) Match { return Match{kind: matchCodes, values: v} }

// Substring matches multi-select cells that contain any of s.
func Substring(s ...string) Match { return Match{kind: matchSubstring, values: s} }

func (m Match) predicate(col string) cohort.Predicate {
	if m.kind == matchSubstring {
		return cohort.Contains(col, m.values...)
	}
	return cohort.In(col, m.values...)
}

// Expr is a per-site count expression: the sum of Plus minus the sum of
// Minus, over result columns.
type Expr struct {
	Plus  []string
	Minus []string
}

// Of returns the expression summing cols.
func Of(cols ...string) Expr { return Expr{Plus: cols} }

// Less returns e with cols subtracted.
func (e Expr) Less(cols ...string) Expr {
	return Expr{
		Plus:  e.Plus,
		Minus: append(append([]string(nil), e.Minus...), cols...),
	}
}

// IsZero reports whether e names no column at all.
func (e Expr) IsZero() bool { return len(e.Plus) == 0 && len(e.Minus) == 0 }

// Inputs returns every column e reads.
func (e Expr) Inputs() []string {
	return append(append([]string(nil), e.Plus...), e.Minus...)
}

func (e Expr) eval(r *Result) ([]float64, error) {
	out := make([]float64, r.Len())
	for _, c := range e.Plus {
		v, err := r.column(c)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] += v[i]
		}
	}
	for _, c := range e.Minus {
		v, err := r.column(c)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] -= v[i]
		}
	}
	return out, nil
}

// Valuer derives one numeric value per patient row, for medians and for
// timing cut-offs.
type Valuer struct {
	cols []string
	fn   func(vals []float64, ok []bool) (float64, bool)
}

// Field reads a single numeric column. Cells that are not numbers have no
// value.
func Field(col string) Valuer {
	return Valuer{cols: []string{col}, fn: func(v []float64, ok []bool) (float64, bool) {
		return v[0], ok[0]
	}}
}

// Total sums component columns, reading cells that are not numbers as 0.
// Registry extracts split one interval over several fields (hours and
// minutes, one field per form path), so the sum is the interval.
func Total(cols ...string) Valuer {
	return Valuer{cols: cols, fn: func(v []float64, _ []bool) (float64, bool) {
		var s float64
		for _, x := range v {
			s += x
		}
		return s, true
	}}
}

// DischargeMRS converts the discharge mRS dropdown code to a score and adds
// the score correction column. Code 1 maps to 0, codes 2..8 map to 0..6.
func DischargeMRS(mrsCol, scoreCol string) Valuer {
	return Valuer{cols: []string{mrsCol, scoreCol}, fn: func(v []float64, ok []bool) (float64, bool) {
		if !ok[0] {
			return 0, false
		}
		mrs := v[0]
		if mrs == 1 {
			mrs--
		} else {
			mrs -= 2
		}
		return mrs + v[1], true
	}}
}

// Columns returns the table columns the valuer reads.
func (v Valuer) Columns() []string { return append([]string(nil), v.cols...) }

func (v Valuer) compile(t *dataset.Table, name string) (func(row int) (float64, bool), error) {
	idx := make([]int, len(v.cols))
	for i, c := range v.cols {
		j, ok := t.Index(c)
		if !ok {
			return nil, &cohort.MissingColumnError{Cohort: name, Column: c}
		}
		idx[i] = j
	}
	return func(row int) (float64, bool) {
		vals := make([]float64, len(idx))
		oks := make([]bool, len(idx))
		for i, j := range idx {
			vals[i], oks[i] = t.Float(row, j)
		}
		return v.fn(vals, oks)
	}, nil
}

// Within matches rows whose value lies in (lo, hi].
func (v Valuer) Within(lo, hi float64) cohort.Predicate {
	return v.where(func(x float64) bool { return x > lo && x <= hi })
}

// AtMost matches rows whose value is at most hi.
func (v Valuer) AtMost(hi float64) cohort.Predicate {
	return v.where(func(x float64) bool { return x <= hi })
}

func (v Valuer) where(keep func(float64) bool) cohort.Predicate {
	return func(t *dataset.Table) (func(int) bool, error) {
		f, err := v.compile(t, "")
		if err != nil {
			return nil, err
		}
		return func(row int) bool {
			x, ok := f(row)
			return ok && keep(x)
		}, nil
	}
}

// Bounds restricts a median to values in (Lo, Hi].
type Bounds struct {
	Lo, Hi float64
}

// Between returns the bounds (lo, hi].
func Between(lo, hi float64) *Bounds { return &Bounds{Lo: lo, Hi: hi} }

// Positive returns the bounds (0, +Inf).
func Positive() *Bounds { return &Bounds{Lo: 0, Hi: math.Inf(1)} }

func (b *Bounds) keep(x float64) bool {
	if b == nil {
		return true
	}
	return x > b.Lo && x <= b.Hi
}
