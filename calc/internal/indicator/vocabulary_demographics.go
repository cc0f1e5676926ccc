package indicator

// Stroke-type cohorts every group builds on.
var strokeCohorts = []struct {
	name  string
	types []string
}{
	{"isch", []string{"1"}},
	{"is_ich_tia_cvt", []string{"1", "2", "3", "5"}},
	{"is_ich_cvt", []string{"1", "2", "5"}},
	{"is_ich", []string{"1", "2"}},
	{"is_tia", []string{"1", "3"}},
	{"is_ich_sah_cvt", []string{"1", "2", "4", "5"}},
	{"is_tia_cvt", []string{"1", "3", "5"}},
	{"cvt", []string{"5"}},
	{"ich_sah", []string{"2", "4"}},
	{"ich", []string{"2"}},
	{"sah", []string{"4"}},
}

const (
	consciousnessNotKnown = "level of consciousness - not known"
	rehabNotKnown         = "patients assessed for rehabilitation - Not known"
	hospitalizedICU       = "patients hospitalized in stroke unit / ICU"
)

func demographics(Variant) []Step {
	var steps []Step
	for _, c := range strokeCohorts {
		steps = append(steps, define(c.name, "", is("STROKE_TYPE", c.types...))...)
	}
	total := Of(ColTotalPatients)
	steps = concat(steps,
		define("discharge_subset", "", and(isNot(colProcedure, "5", "6"), isNot("HEMICRANIECTOMY", "3"))),
		define("discharge_subset_alive", "", isNot("DISCHARGE_DESTINATION", "5")),

		choices(AllPatients, "GENDER", total,
			opt("2", "patients female"),
			opt("1", "patients male"),
		),
		choices(AllPatients, "HOSPITAL_STROKE", total,
			opt("1", "patients having stroke in the hospital - Yes"),
			opt("2", "patients having stroke in the hospital - No"),
		),

		[]Step{legacy(AllPatients, "RECURRENT_STROKE", "recurrent_stroke_legacy")},
		choices(AllPatients, "RECURRENT_STROKE", total.Less("recurrent_stroke_legacy"),
			opt("1", "recurrent stroke - Yes"),
			opt("2", "recurrent stroke - No"),
		),

		[]Step{legacy(AllPatients, "DEPARTMENT_TYPE", "department_type_legacy")},
		choices(AllPatients, "DEPARTMENT_TYPE", total.Less("department_type_legacy"),
			opt("1", "department type - neurology"),
			opt("2", "department type - neurosurgery"),
			opt("3", "department type - anesthesiology/resuscitation/critical care"),
			opt("4", "department type - internal medicine"),
			opt("5", "department type - geriatrics"),
			opt("6", "department type - Other"),
		),

		choices(AllPatients, "HOSPITALIZED_IN", total,
			opt("1", hospitalizedICU),
			opt("2", "patients hospitalized in monitored bed with telemetry"),
			opt("3", "patients hospitalized in standard bed"),
		),
		[]Step{Sum{
			Terms: Of(CountCol(hospitalizedICU), CountCol("patients hospitalized in monitored bed with telemetry")),
			Name:  "patients hospitalized in stroke unit / ICU or monitored bed",
			Denom: total,
		}},

		choices("is_ich_sah_cvt", "ASSESSED_FOR_REHAB", Of(patients("is_ich_sah_cvt")),
			opt("3", rehabNotKnown),
		),
		choices("is_ich_sah_cvt", "ASSESSED_FOR_REHAB", Of(patients("is_ich_sah_cvt")).Less(CountCol(rehabNotKnown)),
			opt("1", "patients assessed for rehabilitation - Yes"),
			opt("2", "patients assessed for rehabilitation - No"),
		),

		choices(AllPatients, "STROKE_TYPE", total,
			opt("1", "stroke type - ischemic stroke"),
			opt("2", "stroke type - intracerebral hemorrhage"),
			opt("3", "stroke type - transient ischemic attack"),
			opt("4", "stroke type - subarrachnoid hemorrhage"),
			opt("5", "stroke type - cerebral venous thrombosis"),
			opt("6", "stroke type - undetermined stroke"),
		),
		consciousness(),
	)
	return steps
}

// consciousness covers the level of consciousness and the GCS follow-up,
// merged into alert, drowsy and comatose totals.
func consciousness() []Step {
	base := Of(patients("is_ich_sah_cvt"))
	known := base.Less(CountCol(consciousnessNotKnown))
	steps := concat(
		choices("is_ich_sah_cvt", "CONSCIOUSNESS_LEVEL", base,
			opt("5", consciousnessNotKnown),
		),
		choices("is_ich_sah_cvt", "CONSCIOUSNESS_LEVEL", known,
			opt("1", "level of consciousness - alert"),
			opt("2", "level of consciousness - drowsy"),
			opt("3", "level of consciousness - comatose"),
			opt("4", "level of consciousness - GCS"),
		),
		[]Step{
			Cohort{Name: "gcs", From: "is_ich_sah_cvt", Where: is("CONSCIOUSNESS_LEVEL", "4")},
			Size{Cohort: "gcs", Hidden: true},
		},
		choices("gcs", "GCS", Of(patients("gcs")),
			opt("1", "GCS - 15-13"),
			opt("2", "GCS - 12-8"),
			opt("3", "GCS - <8"),
		),
	)
	for _, m := range []struct{ level, gcs, as string }{
		{"alert", "15-13", "alert_all"},
		{"drowsy", "12-8", "drowsy_all"},
		{"comatose", "<8", "comatose_all"},
	} {
		steps = append(steps, Sum{
			Terms:     Of(CountCol("level of consciousness - "+m.level), CountCol("GCS - "+m.gcs)),
			As:        m.as,
			PercentAs: m.as + "_perc",
			Denom:     known,
		})
	}
	return steps
}
