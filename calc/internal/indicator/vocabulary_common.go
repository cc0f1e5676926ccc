package indicator

import (
	"strconv"

	"github.com/strokestats/strokestats/calc/internal/cohort"
	"github.com/strokestats/strokestats/calc/internal/dataset"
)

// option is one answer of a dropdown or multi-select field.
type option struct {
	match Match
	name  string
}

func opt(code, name string) option { return option{match: Code(code), name: name} }

func optAny(name string, codes ...string) option { return option{match: Codes(codes...), name: name} }

func optHas(sub, name string) option { return option{match: Substring(sub), name: name} }

// choices counts each option of column over one cohort against a shared
// denominator.
func choices(from, column string, denom Expr, opts ...option) []Step {
	out := make([]Step, 0, len(opts))
	for _, o := range opts {
		out = append(out, Count{Cohort: from, Column: column, Match: o.match, Name: o.name, Denom: denom})
	}
	return out
}

// legacy counts the rows entered through an older form version (code -999)
// into a hidden helper column.
func legacy(from, column, as string) Step {
	return Count{Cohort: from, Column: column, Match: Code(dataset.Legacy), As: as, Hidden: true}
}

// legacyHas is legacy for multi-select fields.
func legacyHas(from, column, as string) Step {
	return Count{Cohort: from, Column: column, Match: Substring(dataset.Legacy), As: as, Hidden: true}
}

// define filters a sub-cohort and writes its size.
func define(name, from string, where cohort.Predicate) []Step {
	return []Step{
		Cohort{Name: name, From: from, Where: where},
		Size{Cohort: name},
	}
}

func patients(name string) string { return name + "_patients" }

func is(col string, codes ...string) cohort.Predicate { return cohort.In(col, codes...) }

func isNot(col string, codes ...string) cohort.Predicate { return cohort.NotIn(col, codes...) }

func and(ps ...cohort.Predicate) cohort.Predicate { return cohort.All(ps...) }

func concat(groups ...[]Step) []Step {
	var out []Step
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// ordinal returns the dropdown code of the i-th option, counting from 0.
func ordinal(i int) string { return strconv.Itoa(i + 1) }
