package indicator

const (
	dysphagiaNotKnown  = "dysphagia screening - not known"
	dysphagiaGuss      = "dysphagia screening - Guss test"
	dysphagiaOther     = "dysphagia screening - Other test"
	dysphagiaElsewhere = "dysphagia screening - Another centre"
	dysphagiaNotDone   = "dysphagia screening - Not done"
	dysphagiaDone      = "dysphagia screening done"
	neurosurgeryNK     = "neurosurgery - Not known"
)

// inHospital covers the in-hospital care groups: dysphagia screening,
// hemicraniectomy, neurosurgery and the hemorrhage and venous thrombosis
// details.
func inHospital(v Variant) []Step {
	return concat(
		dysphagia(v),
		hemorrhage(),
	)
}

func dysphagia(v Variant) []Step {
	base := v.Dysphagia.Name
	known := Of(patients(base)).Less(CountCol(dysphagiaNotKnown))
	done := Sum{
		Terms: Of(CountCol(dysphagiaGuss), CountCol(dysphagiaOther), CountCol(dysphagiaElsewhere)),
		Name:  dysphagiaDone,
		Denom: known,
	}
	if !v.DysphagiaViaOtherCentre {
		done.Terms = Of(CountCol(dysphagiaGuss), CountCol(dysphagiaOther))
		done.Denom = Of(CountCol(dysphagiaGuss), CountCol(dysphagiaOther), CountCol(dysphagiaNotDone))
	}
	withinDay := "dysphagia screening time - Within first 24 hours"
	afterDay := "dysphagia screening time - After first 24 hours"
	return concat(
		v.Dysphagia.steps(),
		choices(base, "DYSPHAGIA_SCREENING", Of(patients(base)),
			opt("6", dysphagiaNotKnown),
		),
		choices(base, "DYSPHAGIA_SCREENING", known,
			opt("1", dysphagiaGuss),
			opt("2", dysphagiaOther),
			opt("3", dysphagiaElsewhere),
			opt("4", dysphagiaNotDone),
			opt("5", "dysphagia screening - Unable to test"),
		),
		[]Step{done},

		[]Step{
			Count{Cohort: AllPatients, Column: "DYSPHAGIA_SCREENING_TIME", Match: Code("1"), As: CountCol(withinDay)},
			Count{Cohort: AllPatients, Column: "DYSPHAGIA_SCREENING_TIME", Match: Code("2"), As: CountCol(afterDay)},
		},
		[]Step{
			Sum{Terms: Of(CountCol(withinDay)), As: CountCol(withinDay), PercentAs: PercentCol(withinDay),
				Denom: Of(CountCol(withinDay), CountCol(afterDay))},
			Sum{Terms: Of(CountCol(afterDay)), As: CountCol(afterDay), PercentAs: PercentCol(afterDay),
				Denom: Of(CountCol(withinDay), CountCol(afterDay))},
		},
	)
}

func hemorrhage() []Step {
	ich := Of(patients("ich"))
	sah := Of(patients("sah"))
	const (
		reasonHypertension = "bleeding reason - arterial hypertension"
		reasonAneurysm     = "bleeding reason - aneurysm"
		reasonAVM          = "bleeding reason - arterio-venous malformation"
		reasonAnticoag     = "bleeding reason - anticoagulation therapy"
		reasonAmyloid      = "bleeding reason - amyloid angiopathy"
		reasonOther        = "bleeding reason - Other"

		interventionCoiling  = "intervention - endovascular (coiling)"
		interventionClipping = "intervention - neurosurgical (clipping)"
		interventionOther    = "intervention - Other neurosurgical treatment (decompression, drainage)"
		interventionReferred = "intervention - Referred to another hospital for intervention"
		interventionNone     = "intervention - None / no intervention"

		vtAnticoag     = "VT treatment - anticoagulation"
		vtThrombectomy = "VT treatment - thrombectomy"
		vtThrombolysis = "VT treatment - local thrombolysis"
		vtNeuro        = "VT treatment - local neurological treatment"
	)
	return concat(
		choices("isch", "HEMICRANIECTOMY", Of(patients("isch")),
			opt("1", "hemicraniectomy - Yes"),
			opt("2", "hemicraniectomy - No"),
			opt("3", "hemicraniectomy - Referred to another centre"),
		),

		choices("ich", "NEUROSURGERY", ich,
			opt("3", neurosurgeryNK),
		),
		choices("ich", "NEUROSURGERY", ich.Less(CountCol(neurosurgeryNK)),
			opt("1", "neurosurgery - Yes"),
			opt("2", "neurosurgery - No"),
		),
		define("neurosurgery", "ich", is("NEUROSURGERY", "1")),
		choices("neurosurgery", "NEUROSURGERY_TYPE", Of(patients("neurosurgery")),
			opt("1", "neurosurgery type - intracranial hematoma evacuation"),
			opt("2", "neurosurgery type - external ventricular drainage"),
			opt("3", "neurosurgery type - decompressive craniectomy"),
			opt("4", "neurosurgery type - Referred to another centre"),
		),

		[]Step{legacy("ich", "BLEEDING_REASON", "bleeding_reason_legacy")},
		choices("ich", "BLEEDING_REASON", ich.Less("bleeding_reason_legacy"),
			optHas("1", reasonHypertension),
			optHas("2", reasonAneurysm),
			optHas("3", reasonAVM),
			optHas("4", reasonAnticoag),
			optHas("5", reasonAmyloid),
			optHas("6", reasonOther),
		),
		[]Step{Normalize{
			From: []string{
				PercentCol(reasonHypertension), PercentCol(reasonAneurysm), PercentCol(reasonAVM),
				PercentCol(reasonAnticoag), PercentCol(reasonAmyloid), PercentCol(reasonOther),
			},
			To: []string{
				"bleeding_arterial_hypertension_perc_norm",
				"bleeding_aneurysm_perc_norm",
				"bleeding_arterio_venous_malformation_perc_norm",
				"bleeding_anticoagulation_therapy_perc_norm",
				"bleeding_amyloid_angiopathy_perc_norm",
				"bleeding_other_perc_norm",
			},
		}},
		choices("ich", "BLEEDING_REASON", ich.Less("bleeding_reason_legacy"),
			optHas(",", "bleeding reason - more than one"),
		),

		[]Step{legacyHas("sah", "BLEEDING_SOURCE", "bleeding_source_legacy")},
		choices("sah", "BLEEDING_SOURCE", sah.Less("bleeding_source_legacy"),
			optHas("1", "bleeding source - Known"),
			optHas("2", "bleeding source - Not known"),
		),

		[]Step{legacy("sah", "INTERVENTION", "intervention_legacy")},
		choices("sah", "INTERVENTION", sah.Less("intervention_legacy"),
			optHas("1", interventionCoiling),
			optHas("2", interventionClipping),
			optHas("3", interventionOther),
			optHas("4", interventionReferred),
			option{match: Substring("5", "6"), name: interventionNone},
		),
		[]Step{Normalize{
			From: []string{
				PercentCol(interventionCoiling), PercentCol(interventionClipping), PercentCol(interventionOther),
				PercentCol(interventionReferred), PercentCol(interventionNone),
			},
			To: []string{
				"intervention_endovascular_perc_norm",
				"intervention_neurosurgical_perc_norm",
				"intervention_other_perc_norm",
				"intervention_referred_perc_norm",
				"intervention_none_perc_norm",
			},
		}},
		choices("sah", "INTERVENTION", sah.Less("intervention_legacy"),
			optHas(",", "intervention - more than one"),
		),

		choices("cvt", "VT_TREATMENT", Of(patients("cvt")),
			optHas("1", vtAnticoag),
			optHas("2", vtThrombectomy),
			optHas("3", vtThrombolysis),
			optHas("4", vtNeuro),
			optHas(",", "VT treatment - more than one treatment"),
		),
		[]Step{Normalize{
			From: []string{PercentCol(vtAnticoag), PercentCol(vtThrombectomy), PercentCol(vtThrombolysis), PercentCol(vtNeuro)},
			To: []string{
				"vt_treatment_anticoagulation_perc_norm",
				"vt_treatment_thrombectomy_perc_norm",
				"vt_treatment_local_thrombolysis_perc_norm",
				"vt_treatment_local_neurological_treatment_perc_norm",
			},
		}},
	)
}
