package dashboard

import (
	"github.com/sells-group/esg-engine/internal/esg"
)

// TierCount is one slice of the status chart.
type TierCount struct {
	Tier  esg.Tier `json:"tier"`
	Firms int      `json:"firms"`
}

// StatusDistribution counts firms per tier of their cross-year average
// overall score. Firms without a score are NotAssessed and stay outside the
// five tiers.
type StatusDistribution struct {
	Tiers       []TierCount `json:"tiers"`
	NotAssessed int         `json:"notAssessed"`
	Total       int         `json:"total"`
}

// ComputeStatusDistribution tallies firm metrics into the fixed tier order.
func ComputeStatusDistribution(firms []FirmMetrics) StatusDistribution {
	counts := make(map[esg.Tier]int, len(esg.Tiers))
	d := StatusDistribution{Total: len(firms)}
	for _, m := range firms {
		if m.OverallPrecise == nil {
			d.NotAssessed++
			continue
		}
		counts[esg.ClassifyValue(*m.OverallPrecise)]++
	}
	d.Tiers = make([]TierCount, 0, len(esg.Tiers))
	for _, t := range esg.Tiers {
		d.Tiers = append(d.Tiers, TierCount{Tier: t, Firms: counts[t]})
	}
	return d
}

// Count returns the number of firms in tier t.
func (d StatusDistribution) Count(t esg.Tier) int {
	for _, tc := range d.Tiers {
		if tc.Tier == t {
			return tc.Firms
		}
	}
	return 0
}
