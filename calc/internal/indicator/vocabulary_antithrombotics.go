package indicator

// Antithrombotics dropdown, codes 1..10.
var drugs = []string{
	"patients receiving antiplatelets",
	"patients receiving Vit. K antagonist",
	"patients receiving dabigatran",
	"patients receiving rivaroxaban",
	"patients receiving apixaban",
	"patients receiving edoxaban",
	"patients receiving LMWH or heparin in prophylactic dose",
	"patients receiving LMWH or heparin in full anticoagulant dose",
	"patients not prescribed antithrombotics, but recommended",
	"patients neither receiving antithrombotics nor recommended",
}

var (
	dead  = is("DISCHARGE_DESTINATION", "5")
	alive = isNot("DISCHARGE_DESTINATION", "5")
)

func antithrombotics(Variant) []Step {
	return concat(withCVT(), withoutCVT())
}

// withCVT is the antithrombotic group over ischemic stroke, TIA and CVT.
func withCVT() []Step {
	const sfx = " with CVT"
	denom := Of(patients("is_tia_cvt")).Less(patients("ischemic_transient_cerebral_dead"))
	steps := concat(
		[]Step{
			Cohort{Name: "antithrombotics_with_cvt", From: "is_tia_cvt", Where: alive},
			Size{Cohort: "antithrombotics_with_cvt", As: "antithrombotics_patients_with_cvt"},
		},
		define("ischemic_transient_cerebral_dead", "is_tia_cvt", dead),
	)
	var prescribed, recommended []string
	for i, d := range drugs {
		steps = append(steps, Count{
			Cohort: "antithrombotics_with_cvt",
			Column: "ANTITHROMBOTICS",
			Match:  Code(ordinal(i)),
			Name:   d + sfx,
			Denom:  denom,
		})
		if i < 8 {
			prescribed = append(prescribed, CountCol(d+sfx))
		}
		if i < 9 {
			recommended = append(recommended, CountCol(d+sfx))
		}
	}
	return concat(steps,
		[]Step{
			Sum{Terms: Of(prescribed...), Name: "patients prescribed antithrombotics" + sfx, Denom: denom},
			Sum{
				Terms: Of(recommended...),
				Name:  "patients prescribed or recommended antithrombotics" + sfx,
				Denom: denom,
				Less:  []string{patients("ischemic_transient_cerebral_dead")},
			},

			Cohort{Name: "afib_flutter_not_detected_or_not_known_with_cvt", From: "is_tia_cvt", Where: is("AFIB_FLUTTER", "4", "5")},
			Size{Cohort: "afib_flutter_not_detected_or_not_known_with_cvt", As: "afib_flutter_not_detected_or_not_known_patients_with_cvt"},
			Cohort{Name: "afib_flutter_not_detected_or_not_known_with_cvt_dead", From: "afib_flutter_not_detected_or_not_known_with_cvt", Where: dead},
			Size{Cohort: "afib_flutter_not_detected_or_not_known_with_cvt_dead", As: "afib_flutter_not_detected_or_not_known_dead_patients_with_cvt"},
			Cohort{Name: "prescribed_antiplatelets_no_afib_with_cvt", From: "afib_flutter_not_detected_or_not_known_with_cvt", Where: is("ANTITHROMBOTICS", "1")},
			Size{Cohort: "prescribed_antiplatelets_no_afib_with_cvt", As: "prescribed_antiplatelets_no_afib_patients_with_cvt"},
			Cohort{Name: "prescribed_antiplatelets_no_afib_dead_with_cvt", From: "prescribed_antiplatelets_no_afib_with_cvt", Where: dead},
			Size{Cohort: "prescribed_antiplatelets_no_afib_dead_with_cvt", As: "prescribed_antiplatelets_no_afib_dead_patients_with_cvt"},
			Count{
				Cohort: "afib_flutter_not_detected_or_not_known_with_cvt",
				Column: "ANTITHROMBOTICS",
				Match:  Code("1"),
				Name:   "patients prescribed antiplatelets without aFib" + sfx,
				Denom: Of("afib_flutter_not_detected_or_not_known_patients_with_cvt").
					Less("afib_flutter_not_detected_or_not_known_dead_patients_with_cvt"),
				Less: []string{"prescribed_antiplatelets_no_afib_dead_patients_with_cvt"},
			},
		},
		afibTreatment("afib_flutter_detected_with_cvt", "is_tia_cvt", "_with_cvt", sfx),
	)
}

// afibTreatment writes the anticoagulant and antithrombotic indicators of
// the patients with detected aFib. suffix is appended to helper columns and
// nameSfx to indicator names.
func afibTreatment(name, from, suffix, nameSfx string) []Step {
	detectedCol := "afib_flutter_detected_patients" + suffix
	deadCol := "afib_flutter_detected_dead_patients" + suffix
	recAliveCol := "recommended_antithrombotics_with_afib_alive_patients" + suffix
	anticoagulants := "anticoagulants_prescribed" + suffix
	return []Step{
		Cohort{Name: name, From: from, Where: is("AFIB_FLUTTER", "1", "2", "3")},
		Size{Cohort: name, As: detectedCol},
		Cohort{Name: anticoagulants, From: name, Where: and(isNot("ANTITHROMBOTICS", "1", "10", "9"), alive)},
		Size{Cohort: anticoagulants, As: CountCol("patients prescribed anticoagulants with aFib" + nameSfx)},
		Cohort{Name: "anticoagulants_recommended" + suffix, From: name, Where: is("ANTITHROMBOTICS", "9")},
		Size{Cohort: "anticoagulants_recommended" + suffix, As: "anticoagulants_recommended_patients" + suffix},
		Cohort{Name: "afib_flutter_detected_dead" + suffix, From: name, Where: dead},
		Size{Cohort: "afib_flutter_detected_dead" + suffix, As: deadCol},
		Sum{
			Terms:     Of(CountCol("patients prescribed anticoagulants with aFib" + nameSfx)),
			As:        CountCol("patients prescribed anticoagulants with aFib" + nameSfx),
			PercentAs: PercentCol("patients prescribed anticoagulants with aFib" + nameSfx),
			Denom:     Of(detectedCol).Less(deadCol),
		},
		Cohort{Name: "antithrombotics_prescribed" + suffix, From: name, Where: and(isNot("ANTITHROMBOTICS", "9", "10"), alive)},
		Size{Cohort: "antithrombotics_prescribed" + suffix, As: CountCol("patients prescribed antithrombotics with aFib" + nameSfx)},
		Cohort{Name: "recommended_antithrombotics_with_afib_alive" + suffix, From: name, Where: and(is("ANTITHROMBOTICS", "9"), alive)},
		Size{Cohort: "recommended_antithrombotics_with_afib_alive" + suffix, As: recAliveCol},
		Sum{
			Terms:     Of(CountCol("patients prescribed antithrombotics with aFib" + nameSfx)),
			As:        CountCol("patients prescribed antithrombotics with aFib" + nameSfx),
			PercentAs: PercentCol("patients prescribed antithrombotics with aFib" + nameSfx),
			Denom:     Of(detectedCol).Less(deadCol, recAliveCol),
		},
	}
}

// withoutCVT is the antithrombotic group over ischemic stroke and TIA.
// The per-drug anticoagulant counts are reported for aFib patients only, so
// the first-pass counts of codes 2..8 stay hidden.
func withoutCVT() []Step {
	denom := Of(patients("is_tia")).Less(patients("ischemic_transient_dead"))
	steps := concat(
		define("antithrombotics", "is_tia", alive),
		define("ischemic_transient_dead", "is_tia", dead),
		[]Step{
			Cohort{Name: "ischemic_transient_dead_prescribed", From: "is_tia", Where: and(dead, isNot("ANTITHROMBOTICS", "10"))},
			Size{Cohort: "ischemic_transient_dead_prescribed", As: "ischemic_transient_dead_patients_prescribed"},
		},
	)
	var prescribed, recommended []string
	for i, d := range drugs {
		c := Count{Cohort: "antithrombotics", Column: "ANTITHROMBOTICS", Match: Code(ordinal(i)), Name: d, Denom: denom}
		col := CountCol(d)
		if i >= 1 && i <= 7 {
			col = "antithrombotics_code_" + ordinal(i)
			c = Count{Cohort: "antithrombotics", Column: "ANTITHROMBOTICS", Match: Code(ordinal(i)), As: col, Hidden: true}
		}
		steps = append(steps, c)
		if i < 8 {
			prescribed = append(prescribed, col)
		}
		if i < 9 {
			recommended = append(recommended, col)
		}
	}
	steps = concat(steps,
		[]Step{
			Sum{Terms: Of(prescribed...), Name: "patients prescribed antithrombotics", Denom: denom},
			Sum{
				Terms: Of(recommended...),
				Name:  "patients prescribed or recommended antithrombotics",
				Denom: denom,
				Less:  []string{"ischemic_transient_dead_patients_prescribed"},
			},
		},
		define("afib_flutter_not_detected_or_not_known", "is_tia", is("AFIB_FLUTTER", "4", "5")),
		[]Step{
			Cohort{Name: "afib_flutter_not_detected_or_not_known_dead", From: "afib_flutter_not_detected_or_not_known", Where: dead},
			Size{Cohort: "afib_flutter_not_detected_or_not_known_dead", As: "afib_flutter_not_detected_or_not_known_dead_patients"},
		},
		define("prescribed_antiplatelets_no_afib", "afib_flutter_not_detected_or_not_known", is("ANTITHROMBOTICS", "1")),
		[]Step{
			Cohort{Name: "prescribed_antiplatelets_no_afib_dead", From: "prescribed_antiplatelets_no_afib", Where: dead},
			Size{Cohort: "prescribed_antiplatelets_no_afib_dead", As: "prescribed_antiplatelets_no_afib_dead_patients"},
			Count{
				Cohort: "afib_flutter_not_detected_or_not_known",
				Column: "ANTITHROMBOTICS",
				Match:  Code("1"),
				Name:   "patients prescribed antiplatelets without aFib",
				Denom: Of("afib_flutter_not_detected_or_not_known_patients").
					Less("afib_flutter_not_detected_or_not_known_dead_patients"),
				Less: []string{"prescribed_antiplatelets_no_afib_dead_patients"},
			},
		},
	)

	detected := afibTreatment("afib_flutter_detected", "is_tia", "", "")
	// Per-drug counts go between the anticoagulant size and its percentage.
	steps = concat(steps, detected[:4], []Step{
		Cohort{Name: "afib_flutter_detected_not_dead", From: "afib_flutter_detected", Where: alive},
		Size{Cohort: "afib_flutter_detected_not_dead", As: "afib_flutter_detected_patients_not_dead"},
	})
	for i := 1; i <= 7; i++ {
		steps = append(steps, Count{
			Cohort: "anticoagulants_prescribed",
			Column: "ANTITHROMBOTICS",
			Match:  Code(ordinal(i)),
			Name:   drugs[i],
			Denom:  Of("afib_flutter_detected_patients_not_dead"),
		})
	}
	return concat(steps, detected[4:])
}
