package award

import (
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// Strategy selects the primary timing metric of the classification.
type Strategy int

const (
	// StrategyNew grades door to thrombolysis and, for sites with enough
	// eligible patients, door to thrombectomy.
	StrategyNew Strategy = iota
	// StrategyOld grades door to recanalization therapy only.
	StrategyOld
)

func (s Strategy) String() string {
	if s == StrategyOld {
		return "old"
	}
	return "new"
}

// Output column names of the two assessments.
const (
	ColProposed    = "Proposed Award"
	ColProposedOld = "Proposed Award (old calculation)"
)

// Source columns of the metrics.
const (
	ColTotalPatients        = "Total Patients"
	ColRecanalization60     = "% patients treated with door to recanalization therapy < 60 minutes"
	ColRecanalization45     = "% patients treated with door to recanalization therapy < 45 minutes"
	ColThrombolysis60       = "% patients treated with door to thrombolysis < 60 minutes"
	ColThrombolysis45       = "% patients treated with door to thrombolysis < 45 minutes"
	ColThrombectomy120      = "% patients treated with door to thrombectomy < 120 minutes"
	ColThrombectomy90       = "% patients treated with door to thrombectomy < 90 minutes"
	ColEligibleThrombectomy = "# patients eligible thrombectomy"
	ColRecanalizationRate   = "% recanalization rate out of total ischemic incidence"
	ColCTMRI                = "% suspected stroke patients undergoing CT/MRI"
	ColDysphagia            = "% all stroke patients undergoing dysphagia screening"
	ColAntiplatelets        = "% ischemic stroke patients discharged (home) with antiplatelets"
	ColAnticoagulants       = "% afib patients discharged (home) with anticoagulants"
	ColStrokeUnit           = "% stroke patients treated in a dedicated stroke unit / ICU"
)

// Columns lists every column ParseMetrics reads.
var Columns = []string{
	ColTotalPatients,
	ColRecanalization60, ColRecanalization45,
	ColThrombolysis60, ColThrombolysis45,
	ColThrombectomy120, ColThrombectomy90,
	ColEligibleThrombectomy,
	ColRecanalizationRate,
	ColCTMRI,
	ColDysphagia,
	ColAntiplatelets,
	ColAnticoagulants,
	ColStrokeUnit,
}

// ErrUnknownMetric is returned by CheckColumns when a metric column is
// absent from the indicator table.
var ErrUnknownMetric = errors.New("unknown metric column")

// Thresholds of the timing bands (percent of patients).
const (
	timingFloor   = 50.0
	timingDiamond = 75.0

	// Thrombectomy is graded only above this many eligible patients.
	minThrombectomyPatients = 3
)

// Metrics is one site row as the classifier sees it. Percentages are in the
// range 0..100. NaN marks a value that could not be read.
type Metrics struct {
	TotalPatients float64

	// Door to recanalization therapy, thrombolysis or thrombectomy within
	// the cut-off, as a share of the treated or eligible patients.
	Recanalization60 float64
	Recanalization45 float64
	Thrombolysis60   float64
	Thrombolysis45   float64
	Thrombectomy120  float64
	Thrombectomy90   float64

	// EligibleThrombectomy is a patient count.
	EligibleThrombectomy float64

	RecanalizationRate float64
	CTMRI              float64
	Dysphagia          float64
	Antiplatelets      float64
	Anticoagulants     float64
	StrokeUnit         float64
}

// CheckColumns reports the first metric column has does not know.
func CheckColumns(has func(column string) bool) error {
	for _, c := range Columns {
		if !has(c) {
			return fmt.Errorf("award: %q: %w", c, ErrUnknownMetric)
		}
	}
	return nil
}

// ParseMetrics reads a site row keyed by column name. Missing keys and
// values that do not convert to a number read as NaN.
func ParseMetrics(values map[string]any) Metrics {
	get := func(col string) float64 {
		v, ok := values[col]
		if !ok {
			return math.NaN()
		}
		f, err := cast.ToFloat64E(v)
		if err != nil || math.IsInf(f, 0) {
			return math.NaN()
		}
		return f
	}
	return Metrics{
		TotalPatients:        get(ColTotalPatients),
		Recanalization60:     get(ColRecanalization60),
		Recanalization45:     get(ColRecanalization45),
		Thrombolysis60:       get(ColThrombolysis60),
		Thrombolysis45:       get(ColThrombolysis45),
		Thrombectomy120:      get(ColThrombectomy120),
		Thrombectomy90:       get(ColThrombectomy90),
		EligibleThrombectomy: get(ColEligibleThrombectomy),
		RecanalizationRate:   get(ColRecanalizationRate),
		CTMRI:                get(ColCTMRI),
		Dysphagia:            get(ColDysphagia),
		Antiplatelets:        get(ColAntiplatelets),
		Anticoagulants:       get(ColAnticoagulants),
		StrokeUnit:           get(ColStrokeUnit),
	}
}

// Classify returns the award of one site. Sites below limit patients get
// StrokeReady. Otherwise the award is the lowest tier any metric allows.
func Classify(m Metrics, limit int, s Strategy) Tier {
	if !(m.TotalPatients >= float64(limit)) {
		return StrokeReady
	}
	out := Diamond
	for _, g := range grades(m, s) {
		out = meet(out, g.Tier)
	}
	return out
}

// timingTier grades a door-to-treatment pair. The loose cut-off sets the
// level; missing the strict cut-off caps it at Platinum.
func timingTier(loose, strict float64) Tier {
	if !finite(loose, strict) {
		return StrokeReady
	}
	t := Diamond
	switch {
	case loose < timingFloor:
		return StrokeReady
	case loose < timingDiamond:
		t = Gold
	}
	if strict < timingFloor {
		t = meet(t, Platinum)
	}
	return t
}

// thrombectomyTier caps the award by door to thrombectomy. Sites with few
// eligible patients are not graded on it.
func thrombectomyTier(m Metrics) Tier {
	if !(m.EligibleThrombectomy > minThrombectomyPatients) {
		return Diamond
	}
	if !finite(m.Thrombectomy120, m.Thrombectomy90) {
		return StrokeReady
	}
	t := Diamond
	switch {
	case m.Thrombectomy120 < timingFloor:
		return StrokeReady
	case m.Thrombectomy120 < timingDiamond:
		t = Gold
	}
	if m.Thrombectomy90 < timingFloor {
		t = meet(t, Platinum)
	}
	return t
}

// banded maps v to StrokeReady below gold, Gold in [gold, platinum),
// Platinum in [platinum, diamond) and Diamond from diamond up.
func banded(v, gold, platinum, diamond float64) Tier {
	switch {
	case !finite(v), v < gold:
		return StrokeReady
	case v < platinum:
		return Gold
	case v < diamond:
		return Platinum
	default:
		return Diamond
	}
}

func strokeUnitTier(v float64) Tier {
	switch {
	case !finite(v):
		return StrokeReady
	case v < 1:
		return Platinum
	default:
		return Diamond
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
