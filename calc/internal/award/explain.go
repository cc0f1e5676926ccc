package award

import "sort"

// Metric names used in a Limit.
const (
	MetricPatients           = "patients"
	MetricRecanalization     = "door_to_recanalization"
	MetricThrombolysis       = "door_to_thrombolysis"
	MetricThrombectomy       = "door_to_thrombectomy"
	MetricRecanalizationRate = "recanalization_rate"
	MetricCTMRI              = "ct_mri"
	MetricDysphagia          = "dysphagia_screening"
	MetricAntiplatelets      = "antiplatelets"
	MetricAnticoagulants     = "anticoagulants"
	MetricStrokeUnit         = "stroke_unit"
)

// Limit is one metric grade that held a site below Diamond.
type Limit struct {
	Metric string
	Column string  // source column of Value
	Value  float64 // NaN when the metric could not be read
	Tier   Tier
}

// grades returns the tier every metric allows under s, in a fixed order.
func grades(m Metrics, s Strategy) []Limit {
	var out []Limit
	if s == StrategyOld {
		out = append(out, Limit{MetricRecanalization, ColRecanalization60, m.Recanalization60,
			timingTier(m.Recanalization60, m.Recanalization45)})
	} else {
		out = append(out,
			Limit{MetricThrombolysis, ColThrombolysis60, m.Thrombolysis60,
				timingTier(m.Thrombolysis60, m.Thrombolysis45)},
			Limit{MetricThrombectomy, ColThrombectomy120, m.Thrombectomy120, thrombectomyTier(m)},
		)
	}
	return append(out,
		Limit{MetricRecanalizationRate, ColRecanalizationRate, m.RecanalizationRate, banded(m.RecanalizationRate, 5, 15, 25)},
		Limit{MetricCTMRI, ColCTMRI, m.CTMRI, banded(m.CTMRI, 80, 85, 90)},
		Limit{MetricDysphagia, ColDysphagia, m.Dysphagia, banded(m.Dysphagia, 80, 85, 90)},
		Limit{MetricAntiplatelets, ColAntiplatelets, m.Antiplatelets, banded(m.Antiplatelets, 80, 85, 90)},
		Limit{MetricAnticoagulants, ColAnticoagulants, m.Anticoagulants, banded(m.Anticoagulants, 80, 85, 90)},
		Limit{MetricStrokeUnit, ColStrokeUnit, m.StrokeUnit, strokeUnitTier(m.StrokeUnit)},
	)
}

// Explain lists the metrics that kept the Classify result of m below
// Diamond, lowest tier first. A site under limit patients yields a single
// patients limit. The result is empty for a Diamond site.
func Explain(m Metrics, limit int, s Strategy) []Limit {
	if !(m.TotalPatients >= float64(limit)) {
		return []Limit{{Metric: MetricPatients, Column: ColTotalPatients, Value: m.TotalPatients, Tier: StrokeReady}}
	}
	var out []Limit
	for _, g := range grades(m, s) {
		if g.Tier < Diamond {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out
}
