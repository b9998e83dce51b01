package main

import (
	"go.uber.org/zap"

	"github.com/sells-group/esg-engine/internal/model"
	"github.com/sells-group/esg-engine/internal/source"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func scoredAssessment(id string, year int, pct float64) model.RawAssessment {
	return model.RawAssessment{
		ID:   id,
		Year: model.NewYear(year),
		Score: model.ScoreFromMap(map[string]any{
			"total_score": pct * 3,
			"max_score":   300,
			"Environment": pct,
		}),
	}
}

func testDataset() *source.Dataset {
	return &source.Dataset{
		Firms: []model.Firm{
			{ID: "a", Name: "Alpha", Sector: "Tech", Industry: "Software: SaaS"},
			{ID: "b", Name: "Beta", Sector: "Energy", Industry: "Oil"},
			{ID: "c", Name: "Gamma", Sector: "Energy"},
		},
		Assessments: map[string][]model.RawAssessment{
			"a": {scoredAssessment("a-2023", 2023, 60)},
			"b": {scoredAssessment("b-2024", 2024, 20)},
		},
	}
}
