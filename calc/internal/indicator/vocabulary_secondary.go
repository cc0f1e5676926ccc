package indicator

const antihypertensivesNK = "prescribed antihypertensives - Not known"

// secondary covers secondary prevention at discharge.
func secondary(v Variant) []Step {
	statins := v.Statins.Name
	tia := Of(patients("is_tia"))
	prevention := v.Prevention.Name
	base := Of(patients(prevention))
	const (
		appointment   = "recommended to a cerebrovascular expert - Recommended, and appointment was made"
		noAppointment = "recommended to a cerebrovascular expert - Recommended, but appointment was not made"
	)
	return concat(
		v.Statins.steps(),
		choices(statins, "STATIN", Of(patients(statins)),
			opt("1", "patients prescribed statins - Yes"),
			opt("2", "patients prescribed statins - No"),
			opt("3", "patients prescribed statins - Not known"),
		),

		choices("is_tia", "CAROTID_STENOSIS", tia,
			opt("1", "carotid stenosis - 50%-70%"),
			opt("2", "carotid stenosis - >70%"),
			opt("3", "carotid stenosis - No"),
			opt("4", "carotid stenosis - Not known"),
		),
		[]Step{Cohort{Name: "carotid_stenosis", From: "is_tia", Where: is("CAROTID_STENOSIS", "1", "2")}},
		choices("carotid_stenosis", "CAROTID_STENOSIS_FOLLOWUP", tia,
			opt("1", "carotid stenosis followup - Yes"),
			opt("2", "carotid stenosis followup - No"),
			opt("3", "carotid stenosis followup - No, but planned later"),
		),
		[]Step{
			Cohort{Name: "carotid_stenosis_followup", From: "carotid_stenosis", Where: is("CAROTID_STENOSIS_FOLLOWUP", "1", "3")},
			Size{Cohort: "carotid_stenosis_followup", Name: "carotid stenosis followup - Yes, but planned", Denom: tia},
		},
		choices("carotid_stenosis", "CAROTID_STENOSIS_FOLLOWUP", tia,
			opt("4", "carotid stenosis followup - Referred to another centre"),
		),

		v.Prevention.steps(),
		choices(prevention, "ANTIHYPERTENSIVE", base,
			opt("3", antihypertensivesNK),
		),
		choices(prevention, "ANTIHYPERTENSIVE", base.Less(CountCol(antihypertensivesNK)),
			opt("1", "prescribed antihypertensives - Yes"),
			opt("2", "prescribed antihypertensives - No"),
		),
		choices(prevention, "SMOKING_CESSATION", base,
			opt("3", "recommended to a smoking cessation program - not a smoker"),
			opt("1", "recommended to a smoking cessation program - Yes"),
			opt("2", "recommended to a smoking cessation program - No"),
		),

		[]Step{legacy(prevention, "CEREBROVASCULAR_EXPERT", "cerebrovascular_expert_legacy")},
		choices(prevention, "CEREBROVASCULAR_EXPERT", base.Less("cerebrovascular_expert_legacy"),
			opt("1", appointment),
			opt("2", noAppointment),
		),
		[]Step{Sum{
			Terms: Of(CountCol(appointment), CountCol(noAppointment)),
			Name:  "recommended to a cerebrovascular expert - Recommended",
			Denom: base.Less("cerebrovascular_expert_legacy"),
		}},
		choices(prevention, "CEREBROVASCULAR_EXPERT", base.Less("cerebrovascular_expert_legacy"),
			opt("3", "recommended to a cerebrovascular expert - Not recommended"),
		),
	)
}
