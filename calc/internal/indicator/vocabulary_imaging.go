package indicator

const (
	ctPerformed         = "CT/MRI - performed"
	ventilatorNotKnown  = "patients put on ventilator - Not known"
	vascularImagingCTA  = "vascular imaging - CTA"
	vascularImagingMRA  = "vascular imaging - MRA"
	vascularImagingDSA  = "vascular imaging - DSA"
	vascularImagingNone = "vascular imaging - None"
)

func imaging(v Variant) []Step {
	neuro := v.NeuroCohort
	return concat(
		choices(neuro, "NIHSS", Of(patients(neuro)),
			opt("1", "NIHSS - Not performed"),
			opt("2", "NIHSS - Performed"),
			opt("3", "NIHSS - Not known"),
		),
		[]Step{
			Cohort{Name: "nihss", From: neuro, Where: is("NIHSS", "2")},
			Median{Cohort: "nihss", Value: Field("NIHSS_SCORE"), As: "NIHSS median score"},
		},

		choices("is_ich_tia_cvt", "CT_MRI", Of(patients("is_ich_tia_cvt")),
			opt("1", "CT/MRI - Not performed"),
			opt("2", ctPerformed),
			opt("3", "CT/MRI - Not known"),
		),
		[]Step{Cohort{Name: "ct_mri", From: "is_ich_tia_cvt", Where: is("CT_MRI", "2")}},
		choices("ct_mri", "CT_TIME", Of(CountCol(ctPerformed)),
			opt("1", "CT/MRI - Performed within 1 hour after admission"),
			opt("2", "CT/MRI - Performed later than 1 hour after admission"),
		),

		choices("ich_sah", "CTA_MRA_DSA", Of(patients("ich_sah")),
			optAny(vascularImagingCTA, "1", "1,2", "1,3"),
			optAny(vascularImagingMRA, "2", "1,2", "2,3"),
			optAny(vascularImagingDSA, "3", "1,3", "2,3"),
			optAny(vascularImagingNone, "4"),
			optAny("vascular imaging - two modalities", "1,2", "1,3", "2,3"),
		),
		[]Step{Normalize{
			From: []string{
				PercentCol(vascularImagingCTA),
				PercentCol(vascularImagingMRA),
				PercentCol(vascularImagingDSA),
				PercentCol(vascularImagingNone),
			},
			To: []string{
				"vascular_imaging_cta_norm",
				"vascular_imaging_mra_norm",
				"vascular_imaging_dsa_norm",
				"vascular_imaging_none_norm",
			},
		}},

		[]Step{legacy(neuro, "VENTILATOR", "ventilator_legacy")},
		choices(neuro, "VENTILATOR", Of(patients(neuro)).Less("ventilator_legacy"),
			opt("3", ventilatorNotKnown),
		),
		choices(neuro, "VENTILATOR", Of(patients(neuro)).Less("ventilator_legacy", CountCol(ventilatorNotKnown)),
			opt("1", "patients put on ventilator - Yes"),
			opt("2", "patients put on ventilator - No"),
		),
	)
}
