package cohort

import (
	"errors"
	"reflect"
	"testing"

	"github.com/strokestats/strokestats/calc/internal/dataset"
)

// --- test helpers -----------------------------------------------------------

func table(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New(
		[]string{"Protocol ID", "STROKE_TYPE", "BLEEDING_REASON", "IVTPA"},
		[][]string{
			{"A", "1", "1,3", "30"},
			{"A", "2.0", "2", "0"},
			{"A", "4", "", "400"},
			{"B", "1", "-999", "401"},
			{"B", "", "5", "abc"},
		},
	)
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return tbl
}

func rowsOf(t *testing.T, tbl *dataset.Table, p Predicate) []int {
	t.Helper()
	c, err := Build(tbl, "test", p)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c.Rows()
}

// --- predicates -------------------------------------------------------------

func TestPredicates(t *testing.T) {
	tbl := table(t)
	cases := []struct {
		name string
		p    Predicate
		want []int
	}{
		{"in single", In("STROKE_TYPE", "1"), []int{0, 3}},
		{"in canonicalises 2.0", In("STROKE_TYPE", "2"), []int{1}},
		{"in set", In("STROKE_TYPE", "2", "4"), []int{1, 2}},
		{"empty reads as zero", In("STROKE_TYPE", "0"), []int{4}},
		{"not in", NotIn("STROKE_TYPE", "1"), []int{1, 2, 4}},
		{"contains", Contains("BLEEDING_REASON", "3"), []int{0}},
		{"contains any", Contains("BLEEDING_REASON", "5", "2"), []int{1, 4}},
		{"contains legacy", Contains("BLEEDING_REASON", "-999"), []int{3}},
		{"range excludes lo and non-numeric", Range("IVTPA", 0, 400), []int{0, 2}},
		{"all", All(In("STROKE_TYPE", "1"), Range("IVTPA", 0, 400)), []int{0}},
		{"any", Any(In("STROKE_TYPE", "4"), Contains("BLEEDING_REASON", "5")), []int{2, 4}},
		{"empty all matches everything", All(), []int{0, 1, 2, 3, 4}},
		{"true", True(), []int{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := rowsOf(t, tbl, tc.p)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("rows: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMissingColumnIsFatal(t *testing.T) {
	tbl := table(t)
	_, err := Build(tbl, "isch", All(In("STROKE_TYPE", "1"), In("NO_SUCH", "1")))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("want ErrMissingColumn, got %v", err)
	}
	var mc *MissingColumnError
	if !errors.As(err, &mc) {
		t.Fatalf("want *MissingColumnError, got %T", err)
	}
	if mc.Column != "NO_SUCH" || mc.Cohort != "isch" {
		t.Errorf("error fields: got %+v", mc)
	}
}

// --- derived cohorts --------------------------------------------------------

func TestFilterNarrowsParent(t *testing.T) {
	tbl := table(t)
	isch, err := Build(tbl, "isch", In("STROKE_TYPE", "1"))
	if err != nil {
		t.Fatal(err)
	}
	ivt, err := isch.Filter("ivt", Range("IVTPA", 0, 400))
	if err != nil {
		t.Fatal(err)
	}
	if got := ivt.Rows(); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("rows: got %v, want [0]", got)
	}
	if isch.Len() != 2 {
		t.Errorf("parent mutated: len %d, want 2", isch.Len())
	}
}

func TestSet(t *testing.T) {
	s := NewSet(table(t))
	if _, err := s.Define("isch", In("STROKE_TYPE", "1")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Derive("ivt", "isch", Range("IVTPA", 0, 60)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Define("isch", True()); !errors.Is(err, ErrDuplicateCohort) {
		t.Errorf("redefine: want ErrDuplicateCohort, got %v", err)
	}
	if _, err := s.Derive("x", "nope", True()); !errors.Is(err, ErrUnknownCohort) {
		t.Errorf("unknown parent: want ErrUnknownCohort, got %v", err)
	}
	if _, err := s.Get("nope"); !errors.Is(err, ErrUnknownCohort) {
		t.Errorf("Get: want ErrUnknownCohort, got %v", err)
	}
	alias, err := s.Alias("home", "isch")
	if err != nil {
		t.Fatal(err)
	}
	if alias.Name() != "home" || alias.Len() != 2 {
		t.Errorf("alias: got %s/%d", alias.Name(), alias.Len())
	}
	if got := s.Names(); !reflect.DeepEqual(got, []string{"isch", "ivt", "home"}) {
		t.Errorf("names: got %v", got)
	}
}

func TestSetAdd(t *testing.T) {
	tbl := table(t)
	s := NewSet(tbl)
	c, err := Build(tbl, "bad", In("BLEEDING_REASON", "-999"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add(c); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(c); !errors.Is(err, ErrDuplicateCohort) {
		t.Errorf("second Add: want ErrDuplicateCohort, got %v", err)
	}
	got, err := s.Get("bad")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Rows(), []int{3}) {
		t.Errorf("rows: got %v, want [3]", got.Rows())
	}
}
