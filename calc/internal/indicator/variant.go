package indicator

import (
	"strings"

	"github.com/strokestats/strokestats/calc/internal/cohort"
)

// Registry columns the variants key on.
const (
	colForm      = "crf_parent_name"
	colProcedure = "RECANALIZATION_PROCEDURES"
	czReferForm  = "F_RESQ_IVT_TBY_CZ_4"
)

// CohortDef names the base cohort of an indicator group. With a nil Where
// the group reuses the existing cohort Name. Otherwise a new cohort is
// filtered from From and its size is written as "<Name>_patients".
type CohortDef struct {
	Name  string
	From  string
	Where cohort.Predicate
}

func (d CohortDef) steps() []Step {
	if d.Where == nil {
		return nil
	}
	return []Step{
		Cohort{Name: d.Name, From: d.From, Where: d.Where},
		Size{Cohort: d.Name},
	}
}

// Variant holds the country-specific parts of the plan.
type Variant struct {
	Code string

	// NeuroCohort is the base cohort of the NIHSS and ventilator groups.
	NeuroCohort string

	// TreatmentFlags derives thrombolysis, thrombectomy and recanalization
	// from IVT_DONE and TBY_DONE instead of the procedure dropdown.
	TreatmentFlags bool

	// Dysphagia is the base cohort of the dysphagia screening group.
	Dysphagia CohortDef

	// DysphagiaViaOtherCentre counts screening done at another centre as
	// done and takes the "done" percentage over all known answers. When
	// false, done is Guss test plus other test over done plus not done.
	DysphagiaViaOtherCentre bool

	// AfibReferred selects is_tia patients counted out of the aFib group.
	AfibReferred cohort.Predicate

	// AfibNotReferred selects the is_tia patients the aFib group covers.
	AfibNotReferred cohort.Predicate

	// DetectionByContains matches AFIB_DETECTION_METHOD as a multi-select.
	DetectionByContains bool

	// Statins is the base cohort of the statin group.
	Statins CohortDef

	// Prevention is the base cohort of antihypertensives, smoking cessation
	// and cerebrovascular expert recommendations.
	Prevention CohortDef

	// EligibleThrombectomy adds procedure counts to the thrombectomy
	// eligible patients.
	EligibleThrombectomy []string
}

func referredCZ(codes ...string) cohort.Predicate {
	return cohort.All(cohort.In(colForm, czReferForm), cohort.In(colProcedure, codes...))
}

var variants = map[string]Variant{
	"": {
		NeuroCohort:             "is_ich_cvt",
		Dysphagia:               CohortDef{Name: "is_ich_cvt"},
		DysphagiaViaOtherCentre: true,
		AfibReferred:            cohort.In(colProcedure, "7"),
		AfibNotReferred:         cohort.NotIn(colProcedure, "7"),
		Statins:                 CohortDef{Name: "is_tia"},
		Prevention:              CohortDef{Name: "discharge_subset_alive"},
	},
	"CZ": {
		Code:           "CZ",
		NeuroCohort:    "is_ich",
		TreatmentFlags: true,
		Dysphagia: CohortDef{
			Name:  "is_ich_not_referred",
			From:  "is_ich",
			Where: cohort.Not(referredCZ("5", "6")),
		},
		AfibReferred:        referredCZ("5", "6", "8"),
		AfibNotReferred:     cohort.Not(referredCZ("5", "6", "8")),
		DetectionByContains: true,
		Statins: CohortDef{
			Name:  "is_tia_discharged_home",
			From:  "is_tia",
			Where: cohort.In("DISCHARGE_DESTINATION", "1"),
		},
		Prevention: CohortDef{
			Name:  "discharge_subset_alive_not_returned_back",
			From:  "discharge_subset_alive",
			Where: cohort.Not(referredCZ("5", "6", "8")),
		},
		EligibleThrombectomy: []string{rp(7), rp(8)},
	},
}

// Lookup returns the variant for an ISO country code. Codes without a
// variant of their own, the empty code included, get the default.
func Lookup(code string) Variant {
	if v, ok := variants[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return v
	}
	v := variants[""]
	v.Code = strings.ToUpper(strings.TrimSpace(code))
	return v
}

// NewPlan assembles the full indicator plan for v. limit is the patient
// count at which a site becomes eligible for an award.
func NewPlan(v Variant, limit int) Plan {
	name := v.Code
	if name == "" {
		name = "default"
	}
	var steps []Step
	for _, group := range [][]Step{
		demographics(v),
		imaging(v),
		treatment(v),
		inHospital(v),
		afib(v),
		antithrombotics(v),
		secondary(v),
		discharge(v),
		award(v, limit),
	} {
		steps = append(steps, group...)
	}
	return Plan{Name: name, Steps: steps}
}
