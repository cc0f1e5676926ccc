package award

import "testing"

func TestExplain(t *testing.T) {
	if got := Explain(perfect(), 30, StrategyNew); len(got) != 0 {
		t.Errorf("perfect site: limits = %+v, want none", got)
	}

	got := Explain(with(func(m *Metrics) { m.TotalPatients = 12 }), 30, StrategyNew)
	if len(got) != 1 || got[0].Metric != MetricPatients || got[0].Value != 12 {
		t.Errorf("below patient limit: %+v", got)
	}

	m := with(func(m *Metrics) {
		m.CTMRI = 86       // platinum
		m.Dysphagia = 81   // gold
		m.StrokeUnit = 0.5 // platinum
	})
	got = Explain(m, 30, StrategyNew)
	want := []struct {
		metric string
		tier   Tier
	}{
		{MetricDysphagia, Gold},
		{MetricCTMRI, Platinum},
		{MetricStrokeUnit, Platinum},
	}
	if len(got) != len(want) {
		t.Fatalf("limits = %+v, want %d", got, len(want))
	}
	for i, w := range want {
		if got[i].Metric != w.metric || got[i].Tier != w.tier {
			t.Errorf("limit %d = %s/%s, want %s/%s", i, got[i].Metric, got[i].Tier, w.metric, w.tier)
		}
	}
	if got[0].Tier != Classify(m, 30, StrategyNew) {
		t.Errorf("lowest limit %s disagrees with Classify %s", got[0].Tier, Classify(m, 30, StrategyNew))
	}
}

func TestExplain_Strategy(t *testing.T) {
	m := with(func(m *Metrics) { m.Recanalization60 = 60 })
	if got := Explain(m, 30, StrategyNew); len(got) != 0 {
		t.Errorf("new strategy ignores recanalization timing, got %+v", got)
	}
	got := Explain(m, 30, StrategyOld)
	if len(got) != 1 || got[0].Metric != MetricRecanalization || got[0].Tier != Gold {
		t.Errorf("old strategy: %+v", got)
	}
}
