package indicator

import (
	"fmt"
	"math"

	"github.com/strokestats/strokestats/calc/internal/cohort"
)

// Step is one unit of a plan. Reads and Uses name the result columns and
// cohorts the step needs; Writes and Defines name what it produces.
type Step interface {
	Reads() []string
	Writes() []string
	Uses() []string
	Defines() []string
	Apply(e *Engine) error
}

// naming resolves the output columns shared by Count, Size and Sum.
// Name yields "# Name" and "% Name"; As and PercentAs override either.
type naming struct {
	Name      string
	As        string
	PercentAs string
}

func (n naming) countCol() string {
	if n.As != "" {
		return n.As
	}
	return CountCol(n.Name)
}

func (n naming) percentCol() string {
	if n.PercentAs != "" {
		return n.PercentAs
	}
	return PercentCol(n.Name)
}

func (n naming) writes(withPercent bool) []string {
	if withPercent {
		return []string{n.countCol(), n.percentCol()}
	}
	return []string{n.countCol()}
}

// emit writes the count column and, when denom is set, the percentage
// column whose numerator is the count minus less. less never takes the
// numerator below zero.
func emit(e *Engine, n naming, counts []float64, denom Expr, less []string, hidden bool) error {
	e.result.set(n.countCol(), counts, hidden)
	if denom.IsZero() {
		return nil
	}
	d, err := denom.eval(e.result)
	if err != nil {
		return err
	}
	num := counts
	if len(less) > 0 {
		sub, err := Of(less...).eval(e.result)
		if err != nil {
			return err
		}
		num = make([]float64, len(counts))
		for i := range counts {
			num[i] = math.Max(counts[i]-sub[i], 0)
		}
	}
	e.result.set(n.percentCol(), percents(num, d), hidden)
	return nil
}

func readsOf(denom Expr, less []string, extra ...string) []string {
	out := append([]string(nil), extra...)
	out = append(out, denom.Inputs()...)
	return append(out, less...)
}

// --- cohort definition -------------------------------------------------------

// Cohort defines a named cohort, over the whole table when From is empty or
// as a filter over From otherwise.
//
// When OrElse is set and the cohort named by When (the new cohort itself if
// When is empty) selects no rows anywhere in the run, the new name is bound
// to the rows of OrElse instead.
type Cohort struct {
	Name   string
	From   string
	Where  cohort.Predicate
	OrElse string
	When   string
}

func (s Cohort) Reads() []string  { return nil }
func (s Cohort) Writes() []string { return nil }

func (s Cohort) Uses() []string {
	var out []string
	for _, n := range []string{s.From, s.OrElse, s.When} {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func (s Cohort) Defines() []string { return []string{s.Name} }

func (s Cohort) Apply(e *Engine) error {
	var (
		c   *cohort.Cohort
		err error
	)
	if s.From == "" {
		c, err = cohort.Build(e.table, s.Name, s.Where)
	} else {
		var parent *cohort.Cohort
		if parent, err = e.cohorts.Get(s.From); err != nil {
			return err
		}
		c, err = parent.Filter(s.Name, s.Where)
	}
	if err != nil {
		return err
	}
	if s.OrElse != "" {
		trigger := c
		if s.When != "" {
			if trigger, err = e.cohorts.Get(s.When); err != nil {
				return err
			}
		}
		if trigger.Empty() {
			_, err = e.cohorts.Alias(s.Name, s.OrElse)
			return err
		}
	}
	return e.cohorts.Add(c)
}

// --- counts ------------------------------------------------------------------

// Size writes the per-site size of a cohort, as "<cohort>_patients" unless
// Name or As is set. A percentage is written when Denom is set.
type Size struct {
	Cohort    string
	Name      string
	As        string
	PercentAs string
	Denom     Expr
	Less      []string
	Hidden    bool
}

func (s Size) naming() naming {
	n := naming{Name: s.Name, As: s.As, PercentAs: s.PercentAs}
	if n.Name == "" && n.As == "" {
		n.As = s.Cohort + "_patients"
	}
	return n
}

func (s Size) Reads() []string   { return readsOf(s.Denom, s.Less) }
func (s Size) Writes() []string  { return s.naming().writes(!s.Denom.IsZero()) }
func (s Size) Uses() []string    { return []string{s.Cohort} }
func (s Size) Defines() []string { return nil }

func (s Size) Apply(e *Engine) error {
	c, err := e.cohorts.Get(s.Cohort)
	if err != nil {
		return err
	}
	return emit(e, s.naming(), e.sizes(c), s.Denom, s.Less, s.Hidden)
}

// Count is the generic indicator: rows of Cohort whose Column (and any Also
// columns) satisfy Match. Without Denom only the count column is written.
// Less is subtracted from the percentage numerator only.
type Count struct {
	Cohort    string
	Column    string
	Also      []string
	Match     Match
	Name      string
	As        string
	PercentAs string
	Denom     Expr
	Less      []string
	Hidden    bool
}

func (s Count) naming() naming { return naming{Name: s.Name, As: s.As, PercentAs: s.PercentAs} }

func (s Count) Reads() []string   { return readsOf(s.Denom, s.Less) }
func (s Count) Writes() []string  { return s.naming().writes(!s.Denom.IsZero()) }
func (s Count) Uses() []string    { return []string{s.Cohort} }
func (s Count) Defines() []string { return nil }

func (s Count) Apply(e *Engine) error {
	c, err := e.cohorts.Get(s.Cohort)
	if err != nil {
		return err
	}
	counts, err := e.tally(c, append([]string{s.Column}, s.Also...), s.Match)
	if err != nil {
		return err
	}
	return emit(e, s.naming(), counts, s.Denom, s.Less, s.Hidden)
}

// Sum derives a count from earlier columns.
type Sum struct {
	Terms     Expr
	Name      string
	As        string
	PercentAs string
	Denom     Expr
	Less      []string
	Hidden    bool
}

func (s Sum) naming() naming { return naming{Name: s.Name, As: s.As, PercentAs: s.PercentAs} }

func (s Sum) Reads() []string   { return readsOf(s.Denom, s.Less, s.Terms.Inputs()...) }
func (s Sum) Writes() []string  { return s.naming().writes(!s.Denom.IsZero()) }
func (s Sum) Uses() []string    { return nil }
func (s Sum) Defines() []string { return nil }

func (s Sum) Apply(e *Engine) error {
	counts, err := s.Terms.eval(e.result)
	if err != nil {
		return err
	}
	return emit(e, s.naming(), counts, s.Denom, s.Less, s.Hidden)
}

// --- derived columns -----------------------------------------------------------

// Normalize rescales the forced-choice percentages From into To.
type Normalize struct {
	From []string
	To   []string
}

func (s Normalize) Reads() []string   { return s.From }
func (s Normalize) Writes() []string  { return s.To }
func (s Normalize) Uses() []string    { return nil }
func (s Normalize) Defines() []string { return nil }

func (s Normalize) Apply(e *Engine) error {
	if len(s.From) != len(s.To) {
		return fmt.Errorf("indicator: normalize %d columns into %d", len(s.From), len(s.To))
	}
	groups := make([][]float64, len(s.From))
	for k, c := range s.From {
		v, err := e.result.column(c)
		if err != nil {
			return err
		}
		groups[k] = v
	}
	for k, v := range normalize(groups) {
		e.result.set(s.To[k], v, false)
	}
	return nil
}

// Median writes the per-site median of Value over Cohort, restricted to
// Within when set.
type Median struct {
	Cohort string
	Value  Valuer
	Within *Bounds
	As     string
}

func (s Median) Reads() []string   { return nil }
func (s Median) Writes() []string  { return []string{s.As} }
func (s Median) Uses() []string    { return []string{s.Cohort} }
func (s Median) Defines() []string { return nil }

func (s Median) Apply(e *Engine) error {
	c, err := e.cohorts.Get(s.Cohort)
	if err != nil {
		return err
	}
	v, err := e.medians(c, s.Value, s.Within)
	if err != nil {
		return err
	}
	e.result.set(s.As, v, false)
	return nil
}

// Larger combines two variants of an indicator, A ("discharged") and B
// ("discharged home"), into Name. The percentage is the larger of the two;
// the count follows the larger count, or the larger percentage when
// CountByPercent is set.
type Larger struct {
	A, B           string
	Name           string
	CountByPercent bool
}

func (s Larger) Reads() []string {
	return []string{CountCol(s.A), PercentCol(s.A), CountCol(s.B), PercentCol(s.B)}
}
func (s Larger) Writes() []string  { return []string{CountCol(s.Name), PercentCol(s.Name)} }
func (s Larger) Uses() []string    { return nil }
func (s Larger) Defines() []string { return nil }

func (s Larger) Apply(e *Engine) error {
	var cols [4][]float64
	for i, c := range s.Reads() {
		v, err := e.result.column(c)
		if err != nil {
			return err
		}
		cols[i] = v
	}
	countA, pctA, countB, pctB := cols[0], cols[1], cols[2], cols[3]
	n := len(countA)
	counts, pcts := make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		pickA := countA[i] > countB[i]
		if s.CountByPercent {
			pickA = pctA[i] > pctB[i]
		}
		if pickA {
			counts[i] = countA[i]
		} else {
			counts[i] = countB[i]
		}
		if pctA[i] > pctB[i] {
			pcts[i] = pctA[i]
		} else {
			pcts[i] = pctB[i]
		}
	}
	e.result.set(CountCol(s.Name), counts, false)
	e.result.set(PercentCol(s.Name), pcts, false)
	return nil
}

// Alias copies column From to To.
type Alias struct {
	From, To string
}

func (s Alias) Reads() []string   { return []string{s.From} }
func (s Alias) Writes() []string  { return []string{s.To} }
func (s Alias) Uses() []string    { return nil }
func (s Alias) Defines() []string { return nil }

func (s Alias) Apply(e *Engine) error {
	v, err := e.result.Column(s.From)
	if err != nil {
		return err
	}
	e.result.set(s.To, v, false)
	return nil
}

// AtLeast writes a 1/0 flag: Column >= Limit.
type AtLeast struct {
	Column string
	Limit  int
	As     string
}

// TotalPatientsFlag is the name of the patient-limit flag column.
func TotalPatientsFlag(limit int) string {
	return fmt.Sprintf("# total patients >= %d", limit)
}

func (s AtLeast) Reads() []string   { return []string{s.Column} }
func (s AtLeast) Writes() []string  { return []string{s.As} }
func (s AtLeast) Uses() []string    { return nil }
func (s AtLeast) Defines() []string { return nil }

func (s AtLeast) Apply(e *Engine) error {
	v, err := e.result.column(s.Column)
	if err != nil {
		return err
	}
	out := make([]float64, len(v))
	for i, x := range v {
		if x >= float64(s.Limit) {
			out[i] = 1
		}
	}
	e.result.set(s.As, out, false)
	return nil
}
