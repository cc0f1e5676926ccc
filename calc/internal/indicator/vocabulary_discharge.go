package indicator

// discharge covers discharge destinations and the stay medians.
func discharge(Variant) []Step {
	another := Of(patients("discharge_subset_another_centre"))
	steps := concat(
		choices("discharge_subset", "DISCHARGE_DESTINATION", Of(patients("discharge_subset")),
			opt("1", "discharge destination - Home"),
			opt("2", "discharge destination - Transferred within the same centre"),
			opt("3", "discharge destination - Transferred to another centre"),
			opt("4", "discharge destination - Social care facility"),
			opt("5", "discharge destination - Dead"),
		),

		define("discharge_subset_same_centre", "discharge_subset", is("DISCHARGE_DESTINATION", "2")),
		choices("discharge_subset_same_centre", "DISCHARGE_SAME_FACILITY", Of(patients("discharge_subset_same_centre")),
			opt("1", "transferred within the same centre - Acute rehabilitation"),
			opt("2", "transferred within the same centre - Post-care bed"),
			opt("3", "transferred within the same centre - Another department"),
		),

		define("discharge_subset_another_centre", "discharge_subset", is("DISCHARGE_DESTINATION", "3")),
		[]Step{legacy("discharge_subset_another_centre", "DISCHARGE_OTHER_FACILITY", "discharge_other_facility_legacy")},
		choices("discharge_subset_another_centre", "DISCHARGE_OTHER_FACILITY", another.Less("discharge_other_facility_legacy"),
			opt("1", "transferred to another centre - Stroke centre"),
			opt("2", "transferred to another centre - Comprehensive stroke centre"),
			opt("3", "transferred to another centre - Another hospital"),
		),
	)

	// The department is recorded in one field per facility option.
	for i, dept := range []string{"Acute rehabilitation", "Post-care bed", "Neurology", "Another department"} {
		steps = append(steps, Count{
			Cohort: "discharge_subset_another_centre",
			Column: "DISCHARGE_OTHER_FACILITY_O1",
			Also:   []string{"DISCHARGE_OTHER_FACILITY_O2", "DISCHARGE_OTHER_FACILITY_O3"},
			Match:  Code(ordinal(i)),
			Name:   "department transferred to within another centre - " + dept,
			Denom:  another,
		})
	}

	return concat(steps, []Step{
		Cohort{Name: "discharge_subset_mrs", From: "discharge_subset", Where: isNot("DISCHARGE_MRS", "0")},
		Median{Cohort: "discharge_subset_mrs", Value: DischargeMRS("DISCHARGE_MRS", "D_MRS_SCORE"), As: "Median discharge mRS"},
		Median{Cohort: AllPatients, Value: Field("HOSPITAL_DAYS"), Within: Positive(), As: "Median hospital stay (days)"},
		Cohort{Name: "last_seen_normal", Where: isNot("LAST_SEEN_NORMAL", "0")},
		Median{Cohort: "last_seen_normal", Value: Field("LAST_SEEN_NORMAL"), As: "Median last seen normal"},
	})
}
