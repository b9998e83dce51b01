package dashboard

import (
	"slices"

	"github.com/sells-group/esg-engine/internal/esg"
)

// YearPoint is one point of the year trend series.
type YearPoint struct {
	Year         int     `json:"year"`
	AverageScore float64 `json:"averageScore"`
	Assessments  int     `json:"assessments"`
	Firms        int     `json:"firms"`
}

// YearTrend averages the precise overall score per year, ascending by year.
// Assessments counts scored records; Firms counts every firm with a record
// in that year.
func YearTrend(records []esg.FirmRecord) []YearPoint {
	acc := make(map[int]*esg.Accumulator)
	firms := make(map[int]map[string]struct{})
	for _, rec := range records {
		if acc[rec.Year] == nil {
			acc[rec.Year] = &esg.Accumulator{}
			firms[rec.Year] = make(map[string]struct{})
		}
		firms[rec.Year][rec.FirmID] = struct{}{}
		if rec.Overall != nil {
			acc[rec.Year].Add(*rec.Overall)
		}
	}

	years := make([]int, 0, len(acc))
	for y := range acc {
		years = append(years, y)
	}
	slices.Sort(years)

	out := make([]YearPoint, 0, len(years))
	for _, y := range years {
		out = append(out, YearPoint{
			Year:         y,
			AverageScore: esg.Round2(acc[y].Average()),
			Assessments:  acc[y].Count,
			Firms:        len(firms[y]),
		})
	}
	return out
}
