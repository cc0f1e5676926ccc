package api

import (
	"fmt"
	"sort"

	"github.com/strokestats/strokestats/pkg/types"
)

// DiagnosticHint is one readable explanation of a site's award. The UI
// shows these as chips on the site card; Detail is shown on click.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier (the metric name).
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical".
	Level string `json:"level"`
	// Title is a short label shown on the chip.
	Title string `json:"title"`
	// Detail is the full explanation.
	Detail string `json:"detail"`
	// Value is the metric value, when it could be read.
	Value *float64 `json:"value,omitempty"`
}

var metricTitles = map[string]string{
	"patients":               "Too few patients",
	"door_to_recanalization": "Slow recanalization",
	"door_to_thrombolysis":   "Slow thrombolysis",
	"door_to_thrombectomy":   "Slow thrombectomy",
	"recanalization_rate":    "Low recanalization rate",
	"ct_mri":                 "CT/MRI coverage",
	"dysphagia_screening":    "Dysphagia screening",
	"antiplatelets":          "Antiplatelets at discharge",
	"anticoagulants":         "Anticoagulants for aFib",
	"stroke_unit":            "Stroke unit use",
}

// siteHints turns the award limits of site into hints, most severe first.
// A DIAMOND site gets a single "ok" hint.
func siteHints(site *types.SiteRow, patientLimit int) []DiagnosticHint {
	if len(site.Limits) == 0 {
		return []DiagnosticHint{{
			Key:    "diamond",
			Level:  "ok",
			Title:  "All metrics at DIAMOND",
			Detail: fmt.Sprintf("%s meets the DIAMOND threshold on every graded metric.", siteLabel(site)),
		}}
	}

	hints := make([]DiagnosticHint, 0, len(site.Limits))
	for _, l := range site.Limits {
		title := metricTitles[l.Metric]
		if title == "" {
			title = l.Metric
		}
		h := DiagnosticHint{
			Key:   l.Metric,
			Level: tierLevel(l.Tier),
			Title: title,
			Value: l.Value,
		}
		switch {
		case l.Metric == "patients":
			h.Detail = fmt.Sprintf("%s treated fewer than %d patients in the period, so no award above STROKEREADY can be given.",
				siteLabel(site), patientLimit)
		case l.Value == nil:
			h.Detail = fmt.Sprintf("%q could not be read for %s, which grades it %s.", l.Column, siteLabel(site), l.Tier)
		default:
			h.Detail = fmt.Sprintf("%q is %.2f at %s, which holds the award at %s.", l.Column, *l.Value, siteLabel(site), l.Tier)
		}
		hints = append(hints, h)
	}
	sort.SliceStable(hints, func(i, j int) bool { return levelRank(hints[i].Level) < levelRank(hints[j].Level) })
	return hints
}

func siteLabel(s *types.SiteRow) string {
	if s.SiteName != "" {
		return s.SiteName
	}
	return s.SiteID
}

func tierLevel(tier string) string {
	switch tier {
	case "STROKEREADY":
		return "critical"
	case "GOLD":
		return "warning"
	default:
		return "info"
	}
}

func levelRank(level string) int {
	switch level {
	case "critical":
		return 0
	case "warning":
		return 1
	case "info":
		return 2
	default:
		return 3
	}
}
