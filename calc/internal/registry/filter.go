package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/strokestats/strokestats/calc/internal/cohort"
	"github.com/strokestats/strokestats/calc/internal/dataset"
)

// Date columns of the extract.
const (
	ColDischargeDate = "DISCHARGE_DATE"
	ColHospitalDate  = "HOSPITAL_DATE"
)

// DateEither matches a row when the hospital or the discharge date is in
// range.
const DateEither = "either"

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	dateLayout,
	dateTimeLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"02/01/2006",
	"02.01.2006",
}

// Filter selects the rows of one run. The zero Filter keeps everything.
type Filter struct {
	// Country keeps sites whose id starts with "<Country>_".
	Country string

	// From and To bound the date range, inclusive. Both must be set for the
	// range to apply; only the calendar day is compared.
	From, To time.Time

	// DateColumn is ColDischargeDate (the default), ColHospitalDate or
	// DateEither.
	DateColumn string
}

// Active reports whether f drops anything.
func (f Filter) Active() bool {
	return f.Country != "" || f.hasRange()
}

func (f Filter) hasRange() bool {
	return !f.From.IsZero() && !f.To.IsZero()
}

// Apply returns the rows of t that pass f.
func (f Filter) Apply(t *dataset.Table) (*dataset.Table, error) {
	if !f.Active() {
		return t, nil
	}

	site, ok := t.Index(dataset.ColSiteID)
	if !ok {
		return nil, fmt.Errorf("registry: filter: %w", &cohort.MissingColumnError{Column: dataset.ColSiteID})
	}
	var dateCols []int
	if f.hasRange() {
		names := []string{ColDischargeDate}
		switch f.DateColumn {
		case ColHospitalDate:
			names = []string{ColHospitalDate}
		case DateEither:
			names = []string{ColHospitalDate, ColDischargeDate}
		case "", ColDischargeDate:
		default:
			return nil, fmt.Errorf("registry: filter: unknown date column %q", f.DateColumn)
		}
		for _, n := range names {
			i, ok := t.Index(n)
			if !ok {
				return nil, fmt.Errorf("registry: filter: %w", &cohort.MissingColumnError{Column: n})
			}
			dateCols = append(dateCols, i)
		}
	}

	prefix := f.Country + "_"
	from, to := day(f.From), day(f.To)
	var kept [][]string
	for _, r := range t.Rows() {
		if f.Country != "" && !strings.HasPrefix(r[site], prefix) {
			continue
		}
		if f.hasRange() && !anyInRange(r, dateCols, from, to) {
			continue
		}
		kept = append(kept, r)
	}
	out, err := dataset.New(t.Columns(), kept)
	if err != nil {
		return nil, fmt.Errorf("registry: filter: %w", err)
	}
	return out, nil
}

func anyInRange(r []string, cols []int, from, to time.Time) bool {
	for _, c := range cols {
		d, ok := ParseDate(r[c])
		if !ok {
			continue
		}
		d = day(d)
		if !d.Before(from) && !d.After(to) {
			return true
		}
	}
	return false
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate reads a registry date or timestamp.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// --- CT time -----------------------------------------------------------------

// CT_TIME codes.
const (
	CTWithinHour = 1
	CTLater      = 2
	CTUnknown    = -2
)

// CTTimeCategory maps the delay from hospital arrival to CT/MRI to a CT_TIME
// code: CTWithinHour for 0 to 60 minutes, CTLater for anything else, and
// CTUnknown when either time is missing or unreadable.
func CTTimeCategory(hospitalTime, ctTime string) int {
	h, ok := ParseDate(hospitalTime)
	if !ok {
		return CTUnknown
	}
	c, ok := ParseDate(ctTime)
	if !ok {
		return CTUnknown
	}
	minutes := c.Sub(h).Minutes()
	if minutes < 0 || minutes > 60 {
		return CTLater
	}
	return CTWithinHour
}
