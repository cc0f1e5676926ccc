package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/strokestats/strokestats/calc/internal/cohort"
	"github.com/strokestats/strokestats/calc/internal/config"
	"github.com/strokestats/strokestats/calc/internal/dataset"
	"github.com/strokestats/strokestats/calc/internal/stats"
	"github.com/strokestats/strokestats/pkg/types"
)

func TestRunner_SkipsOverlappingRuns(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	r := newRunner(&config.Config{})
	calls := 0
	r.batch = func(ctx context.Context, _ *config.Config) error {
		calls++
		close(started)
		<-release
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- r.run(context.Background(), "schedule") }()
	<-started

	if err := r.run(context.Background(), "watch"); !errors.Is(err, errBusy) {
		t.Fatalf("overlapping run: err = %v, want errBusy", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
	if calls != 1 {
		t.Errorf("batch calls = %d, want 1", calls)
	}

	// The runner is free again.
	r.batch = func(context.Context, *config.Config) error { return nil }
	if err := r.run(context.Background(), "schedule"); err != nil {
		t.Errorf("run after release: %v", err)
	}
}

func TestRunner_UsesLatestConfig(t *testing.T) {
	r := newRunner(&config.Config{Calc: config.CalcConfig{PatientLimit: 1}})
	var seen int
	r.batch = func(_ context.Context, cfg *config.Config) error {
		seen = cfg.Calc.PatientLimit
		return nil
	}
	r.setConfig(&config.Config{Calc: config.CalcConfig{PatientLimit: 7}})
	if err := r.run(context.Background(), "watch"); err != nil {
		t.Fatal(err)
	}
	if seen != 7 {
		t.Errorf("batch saw patient_limit %d, want 7", seen)
	}
}

func TestRunBatch_MissingSource(t *testing.T) {
	cfg := loadConfig(t, "calc:\n  source:\n    path: "+filepath.Join(t.TempDir(), "absent.csv")+"\n")
	if err := runBatch(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing source file")
	}
}

func TestRunBatch_WritesReport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "registry.csv")
	writeExtract(t, src)
	out := filepath.Join(dir, "report.json")

	cfg := loadConfig(t, `calc:
  country_code: PT
  include_country: true
  filter:
    country: PT
    from: "2024-01-01"
    to: "2024-12-31"
  source:
    path: `+src+`
  output:
    format: json
    path: `+out+`
`)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := runBatch(ctx, cfg); err != nil {
		t.Fatalf("runBatch: %v", err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var rep types.Report
	if err := json.Unmarshal(b, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Scope != "pt" || rep.CountryName != "Portugal" {
		t.Errorf("header = %s %s", rep.Scope, rep.CountryName)
	}
	// ES_1 is dropped by the country filter and PT_3 by the date range.
	var ids []string
	for _, s := range rep.Sites {
		ids = append(ids, s.SiteID)
	}
	if strings.Join(ids, ",") != "PT,PT_1,PT_2" {
		t.Errorf("sites = %v", ids)
	}
	if v, ok := rep.Value("PT", "Total Patients"); !ok || v != 3 {
		t.Errorf("country total = %v, %v", v, ok)
	}
}

// --- helpers -----------------------------------------------------------------

func loadConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calc.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

// writeExtract writes a small extract carrying every column the plan reads,
// zero-filled beyond the few the test sets.
func writeExtract(t *testing.T, path string) {
	t.Helper()
	cols := []string{dataset.ColSiteID, dataset.ColSiteName, dataset.ColCountry, "DISCHARGE_DATE", "AGE", "GENDER"}
	rows := [][]string{
		{"PT_1", "Lisboa", "PT", "2024-02-01", "64", "2"},
		{"PT_1", "Lisboa", "PT", "2024-03-15", "80", "1"},
		{"PT_2", "Porto", "PT", "2024-12-31", "71", "2"},
		{"PT_3", "Faro", "PT", "2023-12-31", "59", "1"},
		{"ES_1", "Madrid", "ES", "2024-05-05", "77", "1"},
	}
	for attempt := 0; ; attempt++ {
		if attempt > 1000 {
			t.Fatal("column fill did not converge")
		}
		tbl, err := dataset.New(cols, rows)
		if err != nil {
			t.Fatal(err)
		}
		_, err = stats.Compute(tbl, stats.Options{CountryCode: "PT"})
		if err == nil {
			break
		}
		var mc *cohort.MissingColumnError
		if !errors.As(err, &mc) {
			t.Fatalf("Compute: %v", err)
		}
		cols = append(cols, mc.Column)
		for i := range rows {
			rows[i] = append(rows[i], "0")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatal(err)
	}
}
