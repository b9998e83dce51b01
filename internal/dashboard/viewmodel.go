package dashboard

import (
	"go.uber.org/zap"

	"github.com/sells-group/esg-engine/internal/esg"
	"github.com/sells-group/esg-engine/internal/model"
)

// ViewModel is everything the dashboard renders.
type ViewModel struct {
	Hash               string                     `json:"hash,omitempty"`
	Filters            Filters                    `json:"filters"`
	Dimensions         []Dimension                `json:"dimensions"`
	Population         PopulationView             `json:"population"`
	Buckets            map[Dimension][]BucketView `json:"buckets"`
	StatusDistribution StatusDistribution         `json:"statusDistribution"`
	Firms              []FirmMetrics              `json:"firms"`
	YearTrend          []YearPoint                `json:"yearTrend"`

	pop        esg.Population
	categories []string
}

// ComputeDashboardViewModel resolves the filtered population once and derives
// every dashboard section from that single record list. An empty dims slice
// computes DefaultDimensions.
func ComputeDashboardViewModel(
	firms []model.Firm,
	assessmentsByFirm map[string][]model.RawAssessment,
	filters Filters,
	x *esg.Extractor,
	dims ...Dimension,
) *ViewModel {
	if x == nil {
		x = esg.NewExtractor(esg.DefaultScoringConfig())
	}
	if len(dims) == 0 {
		dims = DefaultDimensions
	}

	pop := filters.Apply(esg.ResolvePopulation(filters.FirmsMatching(firms), assessmentsByFirm, x))
	records := pop.Records()
	categories := x.Categories()

	vm := &ViewModel{
		Filters:    filters,
		Dimensions: append([]Dimension(nil), dims...),
		Buckets:    make(map[Dimension][]BucketView, len(dims)),
		Firms:      make([]FirmMetrics, 0, len(pop.Firms)),
		pop:        pop,
		categories: categories,
	}

	stats := Rollup(records, pop, categories)
	vm.Population = stats.View()

	for _, d := range dims {
		vm.Buckets[d] = Views(Aggregate(records, d))
	}
	for _, fy := range pop.Firms {
		vm.Firms = append(vm.Firms, FirmMetricsFor(fy.Firm, fy.Years, fy.RawCount, categories))
	}
	vm.StatusDistribution = ComputeStatusDistribution(vm.Firms)
	vm.YearTrend = YearTrend(records)

	zap.L().Debug("dashboard: view model computed",
		zap.Int("firms", stats.TotalFirms),
		zap.Int("records", stats.TotalAssessments),
		zap.Int("ambiguous_years", stats.Ambiguous),
		zap.Int("dimensions", len(dims)),
	)
	return vm
}

// Records returns the resolved records behind the view model.
func (vm *ViewModel) Records() []esg.FirmRecord {
	return vm.pop.Records()
}

// FirmDetail returns the firm card for id within the filtered population.
func (vm *ViewModel) FirmDetail(id string) (FirmDetail, bool) {
	fy, ok := vm.pop.Firm(id)
	if !ok {
		return FirmDetail{}, false
	}
	return FirmDetailFor(fy, vm.categories), true
}
