package indicator

const carotidImagingNK = "carotid arteries imaging - Not known"

var detectionMethods = []string{
	"afib detection method - Telemetry with monitor allowing automatic detection of aFib",
	"afib detection method - Telemetry without monitor allowing automatic detection of aFib",
	"afib detection method - Holter-type monitoring",
	"afib detection method - EKG monitoring in an ICU bed with automatic detection of aFib",
	"afib detection method - EKG monitoring in an ICU bed without automatic detection of aFib",
}

// afib covers atrial fibrillation screening of the patients treated here;
// patients referred away are excluded from the denominator.
func afib(v Variant) []Step {
	tia := Of(patients("is_tia")).Less(patients("reffered"))
	steps := concat(
		define("not_reffered", "is_tia", v.AfibNotReferred),
		define("reffered", "is_tia", v.AfibReferred),
		choices("not_reffered", "AFIB_FLUTTER", tia,
			opt("1", "afib/flutter - Known"),
			opt("2", "afib/flutter - Newly-detected at admission"),
			opt("3", "afib/flutter - Detected during hospitalization"),
			opt("4", "afib/flutter - Not detected"),
			opt("5", "afib/flutter - Not known"),
		),
		[]Step{Sum{
			Terms: Of(
				CountCol("afib/flutter - Newly-detected at admission"),
				CountCol("afib/flutter - Detected during hospitalization"),
			),
			As:        "afib_flutter_detected_only",
			PercentAs: "% patients detected for aFib",
			Denom:     tia,
		}},
		define("afib_detected_during_hospitalization", "not_reffered", is("AFIB_FLUTTER", "3")),
	)

	during := Of(patients("afib_detected_during_hospitalization"))
	for i, name := range detectionMethods {
		code := ordinal(i)
		m := Code(code)
		if v.DetectionByContains {
			m = Substring(code)
		}
		steps = append(steps, Count{
			Cohort: "afib_detected_during_hospitalization",
			Column: "AFIB_DETECTION_METHOD",
			Match:  m,
			Name:   name,
			Denom:  during,
		})
	}

	tiaBase := Of(patients("is_tia"))
	return concat(steps,
		define("afib_not_detected_or_not_known", "not_reffered", is("AFIB_FLUTTER", "4", "5")),
		choices("afib_not_detected_or_not_known", "AFIB_OTHER_RECS", Of(patients("afib_not_detected_or_not_known")),
			opt("1", "other afib detection method - Yes"),
			opt("2", "other afib detection method - Not detected or not known"),
		),

		choices("is_tia", "CAROTID_ARTERIES_IMAGING", tiaBase,
			opt("3", carotidImagingNK),
		),
		choices("is_tia", "CAROTID_ARTERIES_IMAGING", tiaBase.Less(CountCol(carotidImagingNK)),
			opt("1", "carotid arteries imaging - Yes"),
			opt("2", "carotid arteries imaging - No"),
		),
	)
}
