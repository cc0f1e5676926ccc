package export

import (
	"fmt"
	"io"
	"math"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/strokestats/strokestats/calc/internal/award"
	"github.com/strokestats/strokestats/pkg/types"
)

// Metric names of the exposition.
const (
	MetricIndicator = "strokestats_indicator"
	MetricAwardTier = "strokestats_award_tier"
)

// WriteProm writes r as Prometheus text exposition.
func WriteProm(w io.Writer, r *types.Report) error {
	for _, mf := range Families(r) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("export: prom %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Families converts r to gauge families. Sites keep report order and
// columns keep plan order; values that are not finite are skipped.
func Families(r *types.Report) []*dto.MetricFamily {
	ind := family(MetricIndicator, "Indicator value of one site and column.")
	tier := family(MetricAwardTier, "Award tier of one site, 0 STROKEREADY to 3 DIAMOND.")

	for _, s := range r.Sites {
		for i, c := range r.Columns {
			if i >= len(s.Values) || math.IsNaN(s.Values[i]) || math.IsInf(s.Values[i], 0) {
				continue
			}
			ind.Metric = append(ind.Metric, gauge(s.Values[i],
				"column", c, "scope", r.Scope, "site", s.SiteID))
		}
		for _, a := range []struct{ strategy, value string }{
			{award.StrategyNew.String(), s.Award},
			{award.StrategyOld.String(), s.AwardOld},
		} {
			t, err := award.ParseTier(a.value)
			if err != nil {
				continue
			}
			tier.Metric = append(tier.Metric, gauge(float64(t),
				"scope", r.Scope, "site", s.SiteID, "strategy", a.strategy))
		}
	}
	return []*dto.MetricFamily{ind, tier}
}

func family(name, help string) *dto.MetricFamily {
	typ := dto.MetricType_GAUGE
	return &dto.MetricFamily{Name: &name, Help: &help, Type: &typ}
}

// gauge builds one sample. kv alternates label names and values, sorted by
// name.
func gauge(v float64, kv ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: &v}}
	for i := 0; i+1 < len(kv); i += 2 {
		name, value := kv[i], kv[i+1]
		m.Label = append(m.Label, &dto.LabelPair{Name: &name, Value: &value})
	}
	return m
}
