package indicator

import (
	"strconv"

	"github.com/strokestats/strokestats/calc/internal/cohort"
)

// Recanalization procedure dropdown, by code.
var procedures = map[int]string{
	1: "Not done",
	2: "IV tPa",
	3: "IV tPa + endovascular treatment",
	4: "Endovascular treatment alone",
	5: "IV tPa + referred to another centre for endovascular treatment",
	6: "Referred to another centre for endovascular treatment",
	7: "Referred to another centre for endovascular treatment and hospitalization continues at the referred to centre",
	8: "Referred for endovascular treatment and patient is returned to the initial centre",
	9: "Returned to the initial centre after recanalization procedures were performed at another centre",
}

// rp returns the count column of recanalization procedure code.
func rp(code int) string {
	return CountCol("recanalization procedures - " + procedures[code])
}

func rps(codes ...int) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = rp(c)
	}
	return out
}

const (
	recanalized = "patients recanalized"
	ivTPA       = "IV tPa"
	tby         = "TBY"
)

// Door-to-needle and door-to-groin intervals. Extracts split each over an
// hours field and a minutes field per form path.
var (
	needleTime = Total(
		"IVT_ONLY_NEEDLE_TIME", "IVT_ONLY_NEEDLE_TIME_MIN",
		"IVT_TBY_NEEDLE_TIME", "IVT_TBY_NEEDLE_TIME_MIN",
		"IVT_TBY_REFER_NEEDLE_TIME", "IVT_TBY_REFER_NEEDLE_TIME_MIN",
	)
	groinTime = Total(
		"TBY_ONLY_GROIN_PUNCTURE_TIME", "TBY_ONLY_GROIN_TIME_MIN",
		"IVT_TBY_GROIN_TIME", "IVT_TBY_GROIN_TIME_MIN",
	)
	didoTime = Total(
		"IVT_TBY_REFER_DIDO_TIME", "IVT_TBY_REFER_DIDO_TIME_MIN",
		"TBY_REFER_DIDO_TIME", "TBY_REFER_DIDO_TIME_MIN",
		"TBY_REFER_ALL_DIDO_TIME", "TBY_REFER_ALL_DIDO_TIME_MIN",
		"TBY_REFER_LIM_DIDO_TIME", "TBY_REFER_LIM_DIDO_TIME_MIN",
	)
)

// thrombolysisTime and thrombectomyTime return the per-patient intervals the
// variant reads.
func (v Variant) thrombolysisTime() Valuer {
	if v.TreatmentFlags {
		return Field("IVTPA")
	}
	return needleTime
}

func (v Variant) thrombectomyTime() Valuer {
	if v.TreatmentFlags {
		return Field("TBY")
	}
	return groinTime
}

func treatment(v Variant) []Step {
	isch := Of(patients("isch"))
	var steps []Step
	for code := 1; code <= len(procedures); code++ {
		steps = append(steps, Count{
			Cohort: "isch",
			Column: colProcedure,
			Match:  Code(strconv.Itoa(code)),
			Name:   "recanalization procedures - " + procedures[code],
			Denom:  isch,
		})
	}

	if v.TreatmentFlags {
		done := cohort.Any(is("IVT_DONE", "1"), is("TBY_DONE", "1"))
		steps = concat(steps, []Step{
			Cohort{Name: "recanalized", From: "isch", Where: done},
			Cohort{Name: "recanalized_denominator", From: "isch", Where: cohort.Any(done, is(colProcedure, "1"))},
			Size{Cohort: "recanalized_denominator", Hidden: true},
			Size{Cohort: "recanalized", Name: recanalized, Denom: Of(patients("recanalized_denominator"))},

			Count{Cohort: "isch", Column: "IVT_DONE", Match: Code("1"), Name: ivTPA, Denom: isch},
			Cohort{Name: "thrombolysis", From: "isch", Where: is("IVT_DONE", "1")},
		})
	} else {
		steps = concat(steps, []Step{
			Sum{
				Terms: Of(rps(2, 3, 5, 4)...),
				Name:  recanalized,
				Denom: isch.Less(rps(6, 7, 8, 9)...),
			},
			Sum{Terms: Of(rps(2, 3, 5)...), Name: ivTPA, Denom: isch},
			Cohort{Name: "thrombolysis", From: "isch", Where: is(colProcedure, "2", "3", "5")},
		})
	}
	steps = append(steps, Median{
		Cohort: "thrombolysis",
		Value:  v.thrombolysisTime(),
		Within: Between(0, 400),
		As:     "Median DTN (minutes)",
	})

	if v.TreatmentFlags {
		steps = concat(steps, []Step{
			Count{Cohort: "isch", Column: "TBY_DONE", Match: Code("1"), Name: tby, Denom: isch},
			Cohort{Name: "thrombectomy", From: "isch", Where: is("TBY_DONE", "1")},
		})
	} else {
		steps = concat(steps, []Step{
			Sum{Terms: Of(rps(4, 3)...), Name: tby, Denom: isch},
			Cohort{Name: "thrombectomy", From: "isch", Where: is(colProcedure, "4", "3")},
		})
	}
	return concat(steps, []Step{
		Median{
			Cohort: "thrombectomy",
			Value:  v.thrombectomyTime(),
			Within: Between(0, 700),
			As:     "Median DTG (minutes)",
		},

		Sum{Terms: Of(rps(5, 6, 7, 8)...), As: CountCol("DIDO TBY")},
		Cohort{Name: "dido", From: "isch", Where: is(colProcedure, "5", "6", "7", "8")},
		Median{Cohort: "dido", Value: didoTime, Within: Positive(), As: "Median TBY DIDO (minutes)"},
	})
}
