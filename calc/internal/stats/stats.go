package stats

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/strokestats/strokestats/calc/internal/award"
	"github.com/strokestats/strokestats/calc/internal/cohort"
	"github.com/strokestats/strokestats/calc/internal/dataset"
	"github.com/strokestats/strokestats/calc/internal/indicator"
	"github.com/strokestats/strokestats/pkg/types"
)

// DefaultPatientLimit is the award patient limit when Options leaves it 0.
const DefaultPatientLimit = 30

// ColSiteID replaces the registry's "Protocol ID" in the output table.
const ColSiteID = "Site ID"

// optionalColumns are registry fields older extracts lack. They are added
// empty, which reads as 0.
var optionalColumns = []string{"VT_TREATMENT"}

// Injectable for deterministic tests.
var (
	now      = time.Now
	newRunID = uuid.New
)

// Options configures one calculation.
type Options struct {
	// PatientLimit is the minimum patient count for an award above
	// STROKEREADY. 0 means DefaultPatientLimit.
	PatientLimit int

	// CountryCode selects the indicator variant and names the country.
	CountryCode string

	// IncludeCountry adds a pseudo-site aggregating every patient under the
	// country code.
	IncludeCountry bool

	// Comparison groups patients by country instead of by site.
	Comparison bool
}

// Row is one site of a Report.
type Row struct {
	SiteID   string
	SiteName string
	Values   []float64 // aligned with Report.Columns
	Award    award.Tier
	AwardOld award.Tier
	Limits   []award.Limit // why Award is below Diamond
}

// Report is the outcome of one Compute call.
type Report struct {
	RunID       uuid.UUID
	GeneratedAt time.Time
	Options     Options
	CountryName string
	Columns     []string
	Rows        []Row
}

// Compute runs the full calculation over t.
func Compute(t *dataset.Table, opts Options) (*Report, error) {
	start := now()
	if opts.PatientLimit <= 0 {
		opts.PatientLimit = DefaultPatientLimit
	}

	prepared, country, err := prepare(t, opts)
	if err != nil {
		return nil, err
	}
	e, err := indicator.NewEngine(prepared)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	variant := indicator.Lookup(opts.CountryCode)
	if err := e.Run(indicator.NewPlan(variant, opts.PatientLimit)); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	res := e.Result()
	if err := award.CheckColumns(res.Has); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	rep := &Report{
		RunID:       newRunID(),
		GeneratedAt: start.UTC(),
		Options:     opts,
		CountryName: CountryName(country),
		Columns:     res.Visible(),
	}
	tiers := map[award.Tier]int{}
	for i, id := range res.Sites() {
		values, err := siteValues(res, i, rep.Columns)
		if err != nil {
			return nil, fmt.Errorf("stats: site %s: %w", id, err)
		}
		row := Row{SiteID: id, SiteName: res.SiteName(i), Values: values}
		m := award.ParseMetrics(metricValues(res, i))
		row.Award = award.Classify(m, opts.PatientLimit, award.StrategyNew)
		row.AwardOld = award.Classify(m, opts.PatientLimit, award.StrategyOld)
		row.Limits = award.Explain(m, opts.PatientLimit, award.StrategyNew)
		tiers[row.Award]++
		rep.Rows = append(rep.Rows, row)
	}
	sort.SliceStable(rep.Rows, func(a, b int) bool { return rep.Rows[a].SiteID < rep.Rows[b].SiteID })

	slog.Info("stats: run complete",
		"run_id", rep.RunID,
		"variant", variantName(variant),
		"patients", prepared.Len(),
		"sites", len(rep.Rows),
		"columns", len(rep.Columns),
		"diamond", tiers[award.Diamond],
		"platinum", tiers[award.Platinum],
		"gold", tiers[award.Gold],
		"duration", now().Sub(start),
	)
	return rep, nil
}

func variantName(v indicator.Variant) string {
	if v.Code == "" {
		return "default"
	}
	return v.Code
}

// siteValues reads the columns of one site, in order.
func siteValues(res *indicator.Result, site int, cols []string) ([]float64, error) {
	out := make([]float64, len(cols))
	for j, c := range cols {
		v, err := res.Value(site, c)
		if err != nil {
			return nil, err
		}
		out[j] = v
	}
	return out, nil
}

func metricValues(res *indicator.Result, site int) map[string]any {
	out := make(map[string]any, len(award.Columns))
	for _, c := range award.Columns {
		if v, err := res.Value(site, c); err == nil {
			out[c] = v
		}
	}
	return out
}

// prepare adds the optional columns and applies the comparison and country
// options. It returns the country code the report is named after.
func prepare(t *dataset.Table, opts Options) (*dataset.Table, string, error) {
	cols, rows := t.Columns(), t.Rows()
	for _, c := range optionalColumns {
		if t.Has(c) {
			continue
		}
		cols = append(cols, c)
		for i := range rows {
			rows[i] = append(rows[i], "")
		}
	}

	country := opts.CountryCode
	if opts.Comparison || opts.IncludeCountry {
		idx, err := indices(t, dataset.ColSiteID, dataset.ColSiteName, dataset.ColCountry)
		if err != nil {
			return nil, "", err
		}
		id, name, cc := idx[0], idx[1], idx[2]
		if opts.Comparison {
			for _, r := range rows {
				r[id], r[name] = r[cc], r[cc]
			}
		}
		if opts.IncludeCountry {
			n := len(rows)
			for i := 0; i < n; i++ {
				r := append([]string(nil), rows[i]...)
				r[id], r[name] = r[cc], r[cc]
				rows = append(rows, r)
			}
			if n > 0 {
				country = rows[0][cc]
			}
		}
	}

	out, err := dataset.New(cols, rows)
	if err != nil {
		return nil, "", fmt.Errorf("stats: prepare: %w", err)
	}
	return out, country, nil
}

func indices(t *dataset.Table, cols ...string) ([]int, error) {
	out := make([]int, len(cols))
	for i, c := range cols {
		j, ok := t.Index(c)
		if !ok {
			return nil, fmt.Errorf("stats: %w", &cohort.MissingColumnError{Column: c})
		}
		out[i] = j
	}
	return out, nil
}

// --- accessors ---------------------------------------------------------------

// Sites returns the distinct site ids, sorted.
func (r *Report) Sites() []string {
	out := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.SiteID
	}
	sort.Strings(out)
	return out
}

// Column returns the position of the named indicator column.
func (r *Report) Column(name string) (int, bool) {
	for i, c := range r.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// Value returns one cell.
func (r *Report) Value(site, column string) (float64, bool) {
	j, ok := r.Column(column)
	if !ok {
		return 0, false
	}
	for _, row := range r.Rows {
		if row.SiteID == site {
			return row.Values[j], true
		}
	}
	return 0, false
}

// Wire converts the report to its published form under scope.
func (r *Report) Wire(scope string) *types.Report {
	out := &types.Report{
		RunID:        r.RunID.String(),
		Scope:        scope,
		GeneratedAt:  r.GeneratedAt,
		CountryCode:  r.Options.CountryCode,
		CountryName:  r.CountryName,
		PatientLimit: r.Options.PatientLimit,
		Columns:      append([]string(nil), r.Columns...),
		Sites:        make([]types.SiteRow, len(r.Rows)),
	}
	for i, row := range r.Rows {
		out.Sites[i] = types.SiteRow{
			SiteID:   row.SiteID,
			SiteName: row.SiteName,
			Values:   append([]float64(nil), row.Values...),
			Award:    row.Award.String(),
			AwardOld: row.AwardOld.String(),
			Limits:   wireLimits(row.Limits),
		}
	}
	return out
}

func wireLimits(ls []award.Limit) []types.Limit {
	if len(ls) == 0 {
		return nil
	}
	out := make([]types.Limit, len(ls))
	for i, l := range ls {
		out[i] = types.Limit{Metric: l.Metric, Column: l.Column, Tier: l.Tier.String()}
		if !math.IsNaN(l.Value) {
			v := l.Value
			out[i].Value = &v
		}
	}
	return out
}
