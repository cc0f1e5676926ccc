package types

import (
	"errors"
	"fmt"
	"time"
)

// Report is one calculator run: the per-site indicator table and awards.
type Report struct {
	RunID        string    `json:"run_id"`
	Scope        string    `json:"scope"`
	GeneratedAt  time.Time `json:"generated_at"`
	CountryCode  string    `json:"country_code,omitempty"`
	CountryName  string    `json:"country_name,omitempty"`
	PatientLimit int       `json:"patient_limit"`

	// Columns names the indicator columns in output order. Every site's
	// Values is aligned with it.
	Columns []string  `json:"columns"`
	Sites   []SiteRow `json:"sites"`
}

// SiteRow is one site of a Report.
type SiteRow struct {
	SiteID   string    `json:"site_id"`
	SiteName string    `json:"site_name"`
	Values   []float64 `json:"values"`
	Award    string    `json:"award"`
	AwardOld string    `json:"award_old"`
	Limits   []Limit   `json:"limits,omitempty"`
}

// Limit is one metric grade that held a site's award below DIAMOND.
type Limit struct {
	Metric string   `json:"metric"`
	Column string   `json:"column"`
	Value  *float64 `json:"value,omitempty"` // absent when unreadable
	Tier   string   `json:"tier"`
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

// Site returns the row of site id.
func (r *Report) Site(id string) (*SiteRow, bool) {
	for i := range r.Sites {
		if r.Sites[i].SiteID == id {
			return &r.Sites[i], true
		}
	}
	return nil, false
}

// Value returns one cell of the table.
func (r *Report) Value(site, column string) (float64, bool) {
	s, ok := r.Site(site)
	if !ok {
		return 0, false
	}
	i, ok := r.Column(column)
	if !ok || i >= len(s.Values) {
		return 0, false
	}
	return s.Values[i], true
}

// Validate reports the first structural problem of r: a missing scope, a
// site whose values do not align with Columns, or an unknown tier name.
func (r *Report) Validate() error {
	if r.Scope == "" {
		return errors.New("report: scope is required")
	}
	seen := make(map[string]bool, len(r.Sites))
	for _, s := range r.Sites {
		if s.SiteID == "" {
			return errors.New("report: site without site_id")
		}
		if seen[s.SiteID] {
			return fmt.Errorf("report: duplicate site %q", s.SiteID)
		}
		seen[s.SiteID] = true
		if len(s.Values) != len(r.Columns) {
			return fmt.Errorf("report: site %q has %d values for %d columns", s.SiteID, len(s.Values), len(r.Columns))
		}
		for _, t := range []string{s.Award, s.AwardOld} {
			if _, ok := TierRank(t); !ok {
				return fmt.Errorf("report: site %q: unknown tier %q", s.SiteID, t)
			}
		}
	}
	return nil
}
