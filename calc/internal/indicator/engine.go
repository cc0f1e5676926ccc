package indicator

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/strokestats/strokestats/calc/internal/cohort"
	"github.com/strokestats/strokestats/calc/internal/dataset"
)

// AllPatients is the cohort of every row, registered before the first step.
const AllPatients = "all"

// Engine runs indicator computations over one table. It is not safe for
// concurrent use; a run owns its Engine.
type Engine struct {
	table   *dataset.Table
	cohorts *cohort.Set
	result  *Result
	rowSite []int
}

// NewEngine builds the base per-site table (total patients and median age)
// for t.
func NewEngine(t *dataset.Table) (*Engine, error) {
	r, rowSite, err := newResult(t)
	if err != nil {
		return nil, err
	}
	e := &Engine{table: t, cohorts: cohort.NewSet(t), result: r, rowSite: rowSite}

	all, err := e.cohorts.Define(AllPatients, cohort.True())
	if err != nil {
		return nil, err
	}
	r.set(ColTotalPatients, e.sizes(all), false)
	age, err := e.medians(all, Field("AGE"), nil)
	if err != nil {
		return nil, fmt.Errorf("indicator: median age: %w", err)
	}
	r.set(ColMedianAge, age, false)
	return e, nil
}

// Result returns the accumulator.
func (e *Engine) Result() *Result { return e.result }

// Cohorts returns the cohorts defined so far.
func (e *Engine) Cohorts() *cohort.Set { return e.cohorts }

// ComputeIndicator counts the rows of c whose column value satisfies m and
// writes "# name" and "% name", the percentage taken against denom.
// Sites without matching rows get 0.
func (e *Engine) ComputeIndicator(c *cohort.Cohort, column string, m Match, denom Expr, name string) error {
	counts, err := e.tally(c, []string{column}, m)
	if err != nil {
		return err
	}
	d, err := denom.eval(e.result)
	if err != nil {
		return err
	}
	e.result.set(CountCol(name), counts, false)
	e.result.set(PercentCol(name), percents(counts, d), false)
	return nil
}

// CountCol returns the count column name of indicator name.
func CountCol(name string) string { return "# " + name }

// PercentCol returns the percentage column name of indicator name.
func PercentCol(name string) string { return "% " + name }

// Percent returns round(100*count/denom, 2), or 0 when denom is not positive.
func Percent(count, denom float64) float64 {
	if !(denom > 0) || math.IsInf(denom, 0) {
		return 0
	}
	p := round2(100 * count / denom)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p
}

func percents(counts, denom []float64) []float64 {
	out := make([]float64, len(counts))
	for i := range counts {
		out[i] = Percent(counts[i], denom[i])
	}
	return out
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

// sizes counts the rows of c per site.
func (e *Engine) sizes(c *cohort.Cohort) []float64 {
	out := make([]float64, e.result.Len())
	c.Each(func(row int) { out[e.rowSite[row]]++ })
	return out
}

// tally counts, per site, the rows of c whose value in each of columns
// satisfies m. A row matching in two columns counts twice.
func (e *Engine) tally(c *cohort.Cohort, columns []string, m Match) ([]float64, error) {
	out := make([]float64, e.result.Len())
	for _, col := range columns {
		match, err := m.predicate(col)(c.Table())
		if err != nil {
			var mc *cohort.MissingColumnError
			if errors.As(err, &mc) && mc.Cohort == "" {
				mc.Cohort = c.Name()
			}
			return nil, err
		}
		c.Each(func(row int) {
			if match(row) {
				out[e.rowSite[row]]++
			}
		})
	}
	return out, nil
}

// medians returns the per-site median of v over c, keeping only values
// inside b. Sites with no value get 0.
func (e *Engine) medians(c *cohort.Cohort, v Valuer, b *Bounds) ([]float64, error) {
	value, err := v.compile(c.Table(), c.Name())
	if err != nil {
		return nil, err
	}
	per := make([][]float64, e.result.Len())
	c.Each(func(row int) {
		x, ok := value(row)
		if ok && b.keep(x) {
			s := e.rowSite[row]
			per[s] = append(per[s], x)
		}
	})
	out := make([]float64, len(per))
	for i, vals := range per {
		out[i] = median(vals)
	}
	return out, nil
}

func median(vals []float64) float64 {
	n := len(vals)
	if n == 0 {
		return 0
	}
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// normalize rescales a forced-choice group of percentages so each site's
// shares sum to 100. Shares are rounded to hundredths by largest remainder,
// so the rounded shares still sum to exactly 100. Sites whose shares sum to
// 0 get 0 everywhere.
func normalize(groups [][]float64) [][]float64 {
	out := make([][]float64, len(groups))
	if len(groups) == 0 {
		return out
	}
	n := len(groups[0])
	for k := range groups {
		out[k] = make([]float64, n)
	}
	units := make([]float64, len(groups))
	rest := make([]float64, len(groups))
	order := make([]int, len(groups))
	for i := 0; i < n; i++ {
		var sum float64
		for k := range groups {
			sum += groups[k][i]
		}
		if sum <= 0 {
			continue
		}
		left := 10000.0
		for k := range groups {
			x := 10000 * groups[k][i] / sum
			units[k] = math.Floor(x + 1e-9)
			rest[k] = x - units[k]
			left -= units[k]
			order[k] = k
		}
		sort.SliceStable(order, func(a, b int) bool { return rest[order[a]] > rest[order[b]] })
		for j := 0; j < len(order) && left >= 1; j++ {
			units[order[j]]++
			left--
		}
		for k := range groups {
			out[k][i] = units[k] / 100
		}
	}
	return out
}
