package dashboard

import (
	"github.com/sells-group/esg-engine/internal/esg"
	"github.com/sells-group/esg-engine/internal/model"
)

// FirmMetrics summarizes one firm across its resolved years. Scores are the
// precise cross-year averages rounded for display; nil means no data.
type FirmMetrics struct {
	FirmID           string         `json:"firmId"`
	FirmName         string         `json:"firmName"`
	Sector           string         `json:"sector,omitempty"`
	Industry         string         `json:"industry,omitempty"`
	Location         string         `json:"location,omitempty"`
	TotalAssessments int            `json:"totalAssessments"`
	RawAssessments   int            `json:"rawAssessments"`
	LatestYear       *int           `json:"latestYear"`
	OverallScore     *int           `json:"overallScore"`
	EnvScore         *int           `json:"envScore"`
	SocialScore      *int           `json:"socialScore"`
	GovScore         *int           `json:"govScore"`
	CategoryScores   map[string]int `json:"categoryScores,omitempty"`
	Tier             esg.Tier       `json:"tier"`

	// OverallPrecise is the unrounded cross-year average used for tiering.
	OverallPrecise *float64 `json:"-"`
}

// FirmMetricsFor computes the metrics of one firm from its resolved years.
func FirmMetricsFor(f *model.Firm, years esg.YearSet, rawCount int, categories []string) FirmMetrics {
	m := FirmMetrics{
		TotalAssessments: len(years),
		RawAssessments:   rawCount,
		CategoryScores:   make(map[string]int),
		Tier:             esg.TierNA,
	}
	if f != nil {
		m.FirmID = f.ID
		m.FirmName = f.Name
		m.Sector = f.Sector
		m.Industry = f.Industry
		m.Location = f.Location()
	}
	if latest, ok := years.Latest(); ok {
		y := latest.Year
		m.LatestYear = &y
	}

	var overall esg.Accumulator
	cats := make(map[string]*esg.Accumulator, len(categories))
	for _, c := range categories {
		cats[c] = &esg.Accumulator{}
	}
	for _, rec := range years.Records() {
		if rec.Overall != nil {
			overall.Add(*rec.Overall)
		}
		for c, acc := range cats {
			if v, ok := rec.CategoryScore(c); ok {
				acc.Add(v)
			}
		}
	}

	if overall.Count > 0 {
		avg := overall.Average()
		m.OverallPrecise = &avg
		m.OverallScore = roundedPtr(avg)
		m.Tier = esg.ClassifyValue(avg)
	}
	for c, acc := range cats {
		if acc.Count == 0 {
			continue
		}
		m.CategoryScores[c] = esg.RoundInt(acc.Average())
	}
	m.EnvScore = categoryPtr(m.CategoryScores, esg.CategoryEnvironment)
	m.SocialScore = categoryPtr(m.CategoryScores, esg.CategorySocial)
	m.GovScore = categoryPtr(m.CategoryScores, esg.CategoryGovernance)
	return m
}

// YearDetail is one resolved year on the firm card.
type YearDetail struct {
	Year           int            `json:"year"`
	AssessmentID   string         `json:"assessmentId,omitempty"`
	OverallScore   *int           `json:"overallScore"`
	CategoryScores map[string]int `json:"categoryScores"`
	Tier           esg.Tier       `json:"tier"`
	Resolution     esg.Resolution `json:"resolution"`
	Ambiguous      bool           `json:"ambiguous,omitempty"`
	Candidates     int            `json:"candidates"`
}

// FirmDetail is the firm card: summary metrics plus each resolved year.
type FirmDetail struct {
	FirmMetrics
	Years []YearDetail `json:"years"`
}

// FirmDetailFor builds the firm card from a resolved population entry.
func FirmDetailFor(fy esg.FirmYears, categories []string) FirmDetail {
	d := FirmDetail{
		FirmMetrics: FirmMetricsFor(fy.Firm, fy.Years, fy.RawCount, categories),
		Years:       make([]YearDetail, 0, len(fy.Years)),
	}
	for _, rec := range fy.Years.Records() {
		yd := YearDetail{
			Year:           rec.Year,
			CategoryScores: make(map[string]int, len(rec.Categories)),
			Tier:           rec.Tier(),
			Resolution:     rec.Resolution,
			Ambiguous:      rec.Ambiguous,
			Candidates:     rec.Candidates,
		}
		if rec.Assessment != nil {
			yd.AssessmentID = rec.Assessment.ID
		}
		if rec.Overall != nil {
			yd.OverallScore = roundedPtr(*rec.Overall)
		}
		for c, v := range rec.Categories {
			yd.CategoryScores[c] = esg.RoundInt(v)
		}
		d.Years = append(d.Years, yd)
	}
	return d
}

func roundedPtr(v float64) *int {
	r := esg.RoundInt(v)
	return &r
}

func categoryPtr(scores map[string]int, category string) *int {
	v, ok := scores[category]
	if !ok {
		return nil
	}
	return &v
}
