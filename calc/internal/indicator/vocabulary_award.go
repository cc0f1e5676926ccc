package indicator

import (
	"fmt"
	"strconv"

	"github.com/strokestats/strokestats/calc/internal/cohort"
)

// Award input columns.
const (
	EligibleThrombolysis = "# patients eligible thrombolysis"
	EligibleThrombectomy = "# patients eligible thrombectomy"
)

const (
	antiplateletsHome  = "ischemic stroke patients discharged home with antiplatelets"
	antiplateletsAll   = "ischemic stroke patients discharged with antiplatelets"
	anticoagulantsHome = "afib patients discharged home with anticoagulants"
	anticoagulantsAll  = "afib patients discharged with anticoagulants"
	doorToRecan        = "patients treated with door to recanalization therapy < %d minutes"
)

// award writes the inputs of the award classifier: eligibility, door-to-
// treatment shares and the discharge medication indicators.
func award(v Variant, limit int) []Step {
	steps := concat(eligibility(v), doorTo(v))
	steps = concat(steps, []Step{
		Alias{From: CountCol(recanalized), To: CountCol("recanalization rate out of total ischemic incidence")},
		Alias{From: PercentCol(recanalized), To: PercentCol("recanalization rate out of total ischemic incidence")},
		Alias{From: CountCol(ctPerformed), To: CountCol("suspected stroke patients undergoing CT/MRI")},
		Alias{From: PercentCol(ctPerformed), To: PercentCol("suspected stroke patients undergoing CT/MRI")},
		Sum{
			Terms: Of(CountCol(dysphagiaGuss), CountCol(dysphagiaOther)),
			Name:  "all stroke patients undergoing dysphagia screening",
			Denom: Of(CountCol(dysphagiaGuss), CountCol(dysphagiaOther), CountCol(dysphagiaNotDone)),
		},
	})
	steps = concat(steps, antiplatelets(), anticoagulants(), []Step{
		Alias{From: CountCol(hospitalizedICU), To: CountCol("stroke patients treated in a dedicated stroke unit / ICU")},
		Alias{From: PercentCol(hospitalizedICU), To: PercentCol("stroke patients treated in a dedicated stroke unit / ICU")},
		AtLeast{Column: ColTotalPatients, Limit: limit, As: TotalPatientsFlag(limit)},
	})
	return steps
}

// eligibility counts the treated patients the door-to-treatment shares are
// taken over, less those with a missing or negative time. The counted
// patients are the ones the shares draw their numerators from.
func eligibility(v Variant) []Step {
	ivt := Of(rps(2, 3, 5)...)
	tby := Of(append(rps(3, 4), v.EligibleThrombectomy...)...)
	var steps []Step
	if v.TreatmentFlags {
		steps = []Step{
			Size{Cohort: "thrombolysis", Hidden: true},
			Size{Cohort: "thrombectomy", Hidden: true},
		}
		ivt = Of(patients("thrombolysis"))
		tby = Of(append([]string{patients("thrombectomy")}, v.EligibleThrombectomy...)...)
	}
	return concat(steps, []Step{
		Cohort{Name: "wrong_ivtpa", From: "thrombolysis", Where: v.thrombolysisTime().AtMost(0)},
		Size{Cohort: "wrong_ivtpa", Hidden: true},
		Sum{Terms: ivt.Less(patients("wrong_ivtpa")), As: EligibleThrombolysis},

		Cohort{Name: "wrong_tby", From: "thrombectomy", Where: v.thrombectomyTime().AtMost(0)},
		Size{Cohort: "wrong_tby", Hidden: true},
		Sum{Terms: tby.Less(patients("wrong_tby")), As: EligibleThrombectomy},

		Sum{Terms: Of(rps(1, 2, 3, 4, 5)...), As: "patients_eligible_recanalization"},
	})
}

// thrombectomyOnly selects the thrombectomy patients that had no
// thrombolysis, so the door to recanalization shares count nobody twice.
func (v Variant) thrombectomyOnly() cohort.Predicate {
	if v.TreatmentFlags {
		return isNot("IVT_DONE", "1")
	}
	return is(colProcedure, "4")
}

// doorTo writes the shares of patients treated within the award cut-offs.
func doorTo(v Variant) []Step {
	ivt, tby := v.thrombolysisTime(), v.thrombectomyTime()
	steps := []Step{
		Cohort{Name: "thrombectomy_only", From: "thrombectomy", Where: v.thrombectomyOnly()},
	}
	for _, limit := range []int{60, 45} {
		l := float64(limit)
		ivtName := "ivt_under_" + strconv.Itoa(limit)
		tbyName := "tby_only_under_" + strconv.Itoa(limit)
		steps = append(steps,
			Cohort{Name: ivtName, From: "thrombolysis", Where: ivt.Within(0, l)},
			Size{Cohort: ivtName, Hidden: true},
			Cohort{Name: tbyName, From: "thrombectomy_only", Where: tby.Within(0, l)},
			Size{Cohort: tbyName, Hidden: true},
		)
	}
	for _, limit := range []int{60, 45} {
		steps = append(steps, Sum{
			Terms: Of(patients("ivt_under_"+strconv.Itoa(limit)), patients("tby_only_under_"+strconv.Itoa(limit))),
			Name:  fmt.Sprintf(doorToRecan, limit),
			Denom: Of(CountCol(recanalized)),
		})
	}
	for _, limit := range []int{60, 45} {
		steps = append(steps, Sum{
			Terms: Of(patients("ivt_under_" + strconv.Itoa(limit))),
			Name:  fmt.Sprintf("patients treated with door to thrombolysis < %d minutes", limit),
			Denom: Of(EligibleThrombolysis),
		})
	}
	for _, limit := range []int{120, 90} {
		name := "tby_under_" + strconv.Itoa(limit)
		steps = append(steps,
			Cohort{Name: name, From: "thrombectomy", Where: tby.Within(0, float64(limit))},
			Size{
				Cohort: name,
				Name:   fmt.Sprintf("patients treated with door to thrombectomy < %d minutes", limit),
				Denom:  Of(EligibleThrombectomy),
			},
		)
	}
	return steps
}

// antiplatelets picks the better of all discharged and discharged home.
// When no patient anywhere was discharged home with an eligible profile,
// the home variant falls back to all discharged patients.
func antiplatelets() []Step {
	return []Step{
		Cohort{Name: "antiplatelets", From: "antithrombotics", Where: antiplateletsCohort},
		Cohort{Name: "except_recommended", From: "antiplatelets", Where: isNot("ANTITHROMBOTICS", "9")},
		Size{Cohort: "except_recommended"},
		Count{
			Cohort: "antiplatelets",
			Column: "ANTITHROMBOTICS",
			Match:  Code("1"),
			Name:   antiplateletsAll,
			Denom:  Of(patients("except_recommended")),
		},
		Cohort{Name: "antiplatelets_discharged_home", From: "antiplatelets", Where: is("DISCHARGE_DESTINATION", "1")},
		Cohort{Name: "antiplatelets_home", From: "antiplatelets", Where: is("DISCHARGE_DESTINATION", "1"), OrElse: "antiplatelets"},
		Cohort{
			Name:   "except_recommended_discharged_home",
			From:   "except_recommended",
			Where:  is("DISCHARGE_DESTINATION", "1"),
			OrElse: "except_recommended",
			When:   "antiplatelets_discharged_home",
		},
		Size{Cohort: "except_recommended_discharged_home"},
		Count{
			Cohort: "antiplatelets_home",
			Column: "ANTITHROMBOTICS",
			Match:  Code("1"),
			Name:   antiplateletsHome,
			Denom:  Of(patients("except_recommended_discharged_home")),
		},
		Larger{A: antiplateletsAll, B: antiplateletsHome, Name: "ischemic stroke patients discharged (home) with antiplatelets"},
	}
}

// anticoagulants is antiplatelets for aFib patients. Both columns of the
// combined indicator follow the larger percentage.
func anticoagulants() []Step {
	notDeclined := isNot("ANTITHROMBOTICS", "1", "9")
	home := and(is("DISCHARGE_DESTINATION", "1"), isNot(colProcedure, "5", "6"))
	return []Step{
		Cohort{Name: "afib_detected_discharged", From: "afib_flutter_detected", Where: and(alive, notDeclined)},
		Size{Cohort: "afib_detected_discharged"},
		Size{
			Cohort: "anticoagulants_prescribed",
			Name:   anticoagulantsAll,
			Denom:  Of(patients("afib_detected_discharged")),
		},

		Cohort{Name: "anticoagulants_prescribed_discharged_home", From: "anticoagulants_prescribed", Where: home},
		Cohort{Name: "anticoagulants_home", From: "anticoagulants_prescribed", Where: home, OrElse: "anticoagulants_prescribed"},
		Cohort{
			Name:   "afib_detected_discharged_home",
			From:   "afib_flutter_detected",
			Where:  and(home, notDeclined),
			OrElse: "afib_detected_discharged",
			When:   "anticoagulants_prescribed_discharged_home",
		},
		Size{Cohort: "afib_detected_discharged_home"},
		Size{
			Cohort: "anticoagulants_home",
			Name:   anticoagulantsHome,
			Denom:  Of(patients("afib_detected_discharged_home")),
		},
		Larger{A: anticoagulantsAll, B: anticoagulantsHome, Name: "afib patients discharged (home) with anticoagulants", CountByPercent: true},
	}
}

// antiplateletsCohort selects, among patients discharged alive, ischemic
// strokes without aFib that were not referred away.
var antiplateletsCohort = and(
	isNot(colProcedure, "5", "6"),
	is("STROKE_TYPE", "1"),
	is("AFIB_FLUTTER", "4", "5"),
)
