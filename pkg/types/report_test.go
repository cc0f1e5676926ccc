package types

import "testing"

func sample() *Report {
	return &Report{
		Scope:   "cz",
		Columns: []string{"Total Patients", "Median patient age"},
		Sites: []SiteRow{
			{SiteID: "CZ", Values: []float64{40, 71}, Award: "GOLD", AwardOld: "gold"},
			{SiteID: "CZ_1", Values: []float64{40, 71}, Award: "DIAMOND", AwardOld: "PLATINUM"},
		},
	}
}

func TestReport_Lookup(t *testing.T) {
	r := sample()
	if v, ok := r.Value("CZ_1", "Median patient age"); !ok || v != 71 {
		t.Errorf("Value = %v, %v", v, ok)
	}
	if _, ok := r.Value("CZ_9", "Total Patients"); ok {
		t.Error("unknown site found")
	}
	if _, ok := r.Value("CZ", "absent"); ok {
		t.Error("unknown column found")
	}
}

func TestReport_Validate(t *testing.T) {
	if err := sample().Validate(); err != nil {
		t.Fatalf("valid report: %v", err)
	}
	tests := []struct {
		name   string
		mutate func(*Report)
	}{
		{"no scope", func(r *Report) { r.Scope = "" }},
		{"no site id", func(r *Report) { r.Sites[0].SiteID = "" }},
		{"duplicate site", func(r *Report) { r.Sites[1].SiteID = "CZ" }},
		{"ragged values", func(r *Report) { r.Sites[1].Values = r.Sites[1].Values[:1] }},
		{"unknown tier", func(r *Report) { r.Sites[0].Award = "BRONZE" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := sample()
			tc.mutate(r)
			if err := r.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTierRank(t *testing.T) {
	for i, name := range Tiers {
		if got, ok := TierRank(name); !ok || got != i {
			t.Errorf("TierRank(%q) = %d, %v", name, got, ok)
		}
	}
	if r, ok := TierRank(" platinum "); !ok || r != 2 {
		t.Errorf("case-insensitive rank = %d, %v", r, ok)
	}
	if _, ok := TierRank("BRONZE"); ok {
		t.Error("unknown tier ranked")
	}
}
