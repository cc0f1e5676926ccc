package stats

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/strokestats/strokestats/calc/internal/award"
	"github.com/strokestats/strokestats/calc/internal/cohort"
	"github.com/strokestats/strokestats/calc/internal/dataset"
	"github.com/strokestats/strokestats/calc/internal/indicator"
)

// --- test helpers -----------------------------------------------------------

var fixtureCols = []string{
	dataset.ColSiteID, dataset.ColSiteName, dataset.ColCountry,
	"AGE", "STROKE_TYPE", "GENDER",
}

func fixtureRows() [][]string {
	return [][]string{
		{"PT_2", "Porto", "PT", "71", "1", "1"},
		{"PT_1", "Lisboa", "PT", "64", "1", "2"},
		{"PT_1", "Lisboa", "PT", "80", "2", "2"},
	}
}

// compute runs Compute, adding zero-filled registry columns the fixture
// does not carry. It returns the report and the columns it had to add.
func compute(t *testing.T, opts Options) (*Report, []string) {
	t.Helper()
	cols := append([]string(nil), fixtureCols...)
	rows := fixtureRows()
	var added []string
	for attempt := 0; attempt < 1000; attempt++ {
		tbl, err := dataset.New(cols, rows)
		if err != nil {
			t.Fatalf("dataset.New: %v", err)
		}
		rep, err := Compute(tbl, opts)
		if err == nil {
			return rep, added
		}
		var mc *cohort.MissingColumnError
		if !errors.As(err, &mc) {
			t.Fatalf("Compute: %v", err)
		}
		cols = append(cols, mc.Column)
		added = append(added, mc.Column)
		for i := range rows {
			rows[i] = append(rows[i], "0")
		}
	}
	t.Fatal("Compute: column fill did not converge")
	return nil, nil
}

func value(t *testing.T, r *Report, site, col string) float64 {
	t.Helper()
	v, ok := r.Value(site, col)
	if !ok {
		t.Fatalf("value %s/%q not found", site, col)
	}
	return v
}

// --- Compute -----------------------------------------------------------------

func TestComputeSites(t *testing.T) {
	rep, added := compute(t, Options{})

	if got := rep.Sites(); !reflect.DeepEqual(got, []string{"PT_1", "PT_2"}) {
		t.Fatalf("Sites = %v", got)
	}
	if rep.Rows[0].SiteID != "PT_1" || rep.Rows[0].SiteName != "Lisboa" {
		t.Errorf("first row = %s %s, want sorted by site id", rep.Rows[0].SiteID, rep.Rows[0].SiteName)
	}
	if v := value(t, rep, "PT_1", indicator.ColTotalPatients); v != 2 {
		t.Errorf("PT_1 total = %v, want 2", v)
	}
	if v := value(t, rep, "PT_1", "% patients female"); v != 100 {
		t.Errorf("PT_1 female = %v, want 100", v)
	}
	if rep.Options.PatientLimit != DefaultPatientLimit {
		t.Errorf("PatientLimit = %d, want default", rep.Options.PatientLimit)
	}
	if _, ok := rep.Column(indicator.TotalPatientsFlag(DefaultPatientLimit)); !ok {
		t.Error("patient limit flag column missing")
	}
	for _, row := range rep.Rows {
		if row.Award != award.StrokeReady || row.AwardOld != award.StrokeReady {
			t.Errorf("%s: awards %v/%v below the patient limit", row.SiteID, row.Award, row.AwardOld)
		}
	}
	for _, c := range added {
		if c == "VT_TREATMENT" {
			t.Error("VT_TREATMENT should be optional")
		}
	}
}

func TestComputeIncludeCountry(t *testing.T) {
	rep, _ := compute(t, Options{IncludeCountry: true, CountryCode: "PT"})

	if got := rep.Sites(); !reflect.DeepEqual(got, []string{"PT", "PT_1", "PT_2"}) {
		t.Fatalf("Sites = %v", got)
	}
	if v := value(t, rep, "PT", indicator.ColTotalPatients); v != 3 {
		t.Errorf("country total = %v, want 3", v)
	}
	if rep.CountryName != "Portugal" {
		t.Errorf("CountryName = %q, want Portugal", rep.CountryName)
	}
}

func TestComputeComparison(t *testing.T) {
	rep, _ := compute(t, Options{Comparison: true})
	if got := rep.Sites(); !reflect.DeepEqual(got, []string{"PT"}) {
		t.Fatalf("Sites = %v, want [PT]", got)
	}
	if rep.Rows[0].SiteName != "PT" {
		t.Errorf("SiteName = %q, want PT", rep.Rows[0].SiteName)
	}
}

func TestComputeCountryNeedsColumn(t *testing.T) {
	tbl, err := dataset.New(
		[]string{dataset.ColSiteID, dataset.ColSiteName, "AGE"},
		[][]string{{"PT_1", "Lisboa", "60"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Compute(tbl, Options{IncludeCountry: true})
	if !errors.Is(err, cohort.ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.MustParse("6f1c2c1e-8d1b-4f0e-9a55-0d3c4a2b1e7f")
	oldNow, oldID := now, newRunID
	now = func() time.Time { return fixed }
	newRunID = func() uuid.UUID { return id }
	defer func() { now, newRunID = oldNow, oldID }()

	a, _ := compute(t, Options{IncludeCountry: true})
	b, _ := compute(t, Options{IncludeCountry: true})
	if !reflect.DeepEqual(a.Wire("pt"), b.Wire("pt")) {
		t.Fatal("two runs over the same input differ")
	}
	w := a.Wire("pt")
	if w.RunID != id.String() || !w.GeneratedAt.Equal(fixed) || w.Scope != "pt" {
		t.Errorf("wire header = %s %v %s", w.RunID, w.GeneratedAt, w.Scope)
	}
	if w.Sites[0].Award != "STROKEREADY" {
		t.Errorf("award = %q", w.Sites[0].Award)
	}
}

// --- CountryName -------------------------------------------------------------

func TestCountryName(t *testing.T) {
	cases := map[string]string{
		"PT":       "Portugal",
		" sk ":     "Slovakia",
		"UZB":      "Uzbekistan",
		"":         "",
		"not-code": "NOT-CODE",
	}
	for in, want := range cases {
		if got := CountryName(in); got != want {
			t.Errorf("CountryName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWire_CarriesAwardLimits(t *testing.T) {
	rep, _ := compute(t, Options{PatientLimit: 30})
	w := rep.Wire("pt")
	for _, s := range w.Sites {
		if s.Award != "STROKEREADY" {
			t.Fatalf("site %s: award %s, fixture sites are below the patient limit", s.SiteID, s.Award)
		}
		if len(s.Limits) != 1 || s.Limits[0].Metric != "patients" || s.Limits[0].Value == nil {
			t.Errorf("site %s limits = %+v", s.SiteID, s.Limits)
		}
	}
}

func TestSiteValues(t *testing.T) {
	tbl, err := dataset.New(fixtureCols, fixtureRows())
	if err != nil {
		t.Fatal(err)
	}
	e, err := indicator.NewEngine(tbl)
	if err != nil {
		t.Fatal(err)
	}
	res := e.Result()

	got, err := siteValues(res, 0, []string{indicator.ColTotalPatients, indicator.ColMedianAge})
	if err != nil {
		t.Fatalf("siteValues: %v", err)
	}
	if !reflect.DeepEqual(got, []float64{1, 71}) {
		t.Errorf("siteValues = %v, want [1 71]", got)
	}

	if _, err := siteValues(res, 0, []string{indicator.ColTotalPatients, "# never written"}); !errors.Is(err, indicator.ErrUnknownColumn) {
		t.Errorf("unknown column: err = %v, want ErrUnknownColumn", err)
	}
}
