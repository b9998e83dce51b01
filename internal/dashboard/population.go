package dashboard

import (
	"github.com/sells-group/esg-engine/internal/esg"
)

// PopulationStats is the population-wide rollup. Overall covers every
// resolved record with an overall score; each category accumulator counts
// only the records where that category is derivable.
type PopulationStats struct {
	TotalAssessments     int
	TotalFirms           int
	FirmsWithAssessments int
	Overall              esg.Accumulator
	Categories           map[string]*esg.Accumulator
	LatestYear           int
	Ambiguous            int
}

// Rollup summarizes records drawn from pop. Overall.Sum and Overall.Count
// equal the totals of any Aggregate over the same records.
func Rollup(records []esg.FirmRecord, pop esg.Population, categories []string) PopulationStats {
	s := PopulationStats{
		TotalAssessments: len(records),
		TotalFirms:       len(pop.Firms),
		Categories:       make(map[string]*esg.Accumulator, len(categories)),
	}
	for _, c := range categories {
		s.Categories[c] = &esg.Accumulator{}
	}

	withRecords := make(map[string]struct{})
	for _, rec := range records {
		withRecords[rec.FirmID] = struct{}{}
		if rec.Year > s.LatestYear {
			s.LatestYear = rec.Year
		}
		if rec.Ambiguous {
			s.Ambiguous++
		}
		if rec.Overall != nil {
			s.Overall.Add(*rec.Overall)
		}
		for c, acc := range s.Categories {
			if v, ok := rec.CategoryScore(c); ok {
				acc.Add(v)
			}
		}
	}
	s.FirmsWithAssessments = len(withRecords)
	return s
}

// CategoryAverage returns the precise average for category, 0 when no record
// carries it.
func (s PopulationStats) CategoryAverage(category string) float64 {
	acc, ok := s.Categories[category]
	if !ok {
		return 0
	}
	return acc.Average()
}

// PopulationView is the display form of PopulationStats.
type PopulationView struct {
	TotalAssessments     int                `json:"totalAssessments"`
	TotalFirms           int                `json:"totalFirms"`
	FirmsWithAssessments int                `json:"firmsWithAssessments"`
	AverageESGScore      float64            `json:"averageESGScore"`
	EnvironmentAverage   float64            `json:"environmentAverage"`
	SocialAverage        float64            `json:"socialAverage"`
	GovernanceAverage    float64            `json:"governanceAverage"`
	CategoryAverages     map[string]float64 `json:"categoryAverages,omitempty"`
	LatestYear           *int               `json:"latestYear"`
	AmbiguousYears       int                `json:"ambiguousYears"`
}

// View rounds the rollup to two decimals.
func (s PopulationStats) View() PopulationView {
	v := PopulationView{
		TotalAssessments:     s.TotalAssessments,
		TotalFirms:           s.TotalFirms,
		FirmsWithAssessments: s.FirmsWithAssessments,
		AverageESGScore:      esg.Round2(s.Overall.Average()),
		EnvironmentAverage:   esg.Round2(s.CategoryAverage(esg.CategoryEnvironment)),
		SocialAverage:        esg.Round2(s.CategoryAverage(esg.CategorySocial)),
		GovernanceAverage:    esg.Round2(s.CategoryAverage(esg.CategoryGovernance)),
		CategoryAverages:     make(map[string]float64, len(s.Categories)),
		AmbiguousYears:       s.Ambiguous,
	}
	for c, acc := range s.Categories {
		v.CategoryAverages[c] = esg.Round2(acc.Average())
	}
	if s.LatestYear > 0 {
		y := s.LatestYear
		v.LatestYear = &y
	}
	return v
}
