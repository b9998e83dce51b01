// Package esg normalizes raw ESG assessment records into percentage scores,
// resolves one canonical record per firm and year, and classifies scores
// into maturity tiers.
package esg

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/esg-engine/internal/config"
	"github.com/sells-group/esg-engine/internal/model"
)

// The fixed ESG pillars.
const (
	CategoryEnvironment = "Environment"
	CategorySocial      = "Social"
	CategoryGovernance  = "Governance"
)

// Extractor derives category and overall percentages from raw assessments.
// It is stateless apart from its configuration and safe for concurrent use.
type Extractor struct {
	cfg config.ScoringConfig
}

// NewExtractor creates an Extractor. Zero-valued settings fall back to
// DefaultScoringConfig.
func NewExtractor(cfg config.ScoringConfig) *Extractor {
	def := DefaultScoringConfig()
	if cfg.FallbackMaxScore <= 0 {
		cfg.FallbackMaxScore = def.FallbackMaxScore
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = def.Categories
	}
	return &Extractor{cfg: cfg}
}

// Categories returns the configured category taxonomy.
func (x *Extractor) Categories() []string {
	return x.cfg.Categories
}

// Config returns the effective scoring configuration.
func (x *Extractor) Config() config.ScoringConfig {
	return x.cfg
}

// CategoryScore returns the category percentage rounded for display.
func (x *Extractor) CategoryScore(a *model.RawAssessment, category string) (int, bool) {
	v, ok := x.CategoryScorePrecise(a, category)
	if !ok {
		return 0, false
	}
	return RoundInt(v), true
}

// CategoryScorePrecise returns the unrounded category percentage. This is
// the only variant that may feed sums and averages.
func (x *Extractor) CategoryScorePrecise(a *model.RawAssessment, category string) (float64, bool) {
	if a == nil {
		return 0, false
	}

	if len(a.Responses) > 0 {
		var earned, possible float64
		for _, r := range a.Responses {
			if r.Category != category || r.QuestionScore == nil || r.QuestionMax == nil {
				continue
			}
			earned += *r.QuestionScore
			possible += *r.QuestionMax
		}
		if possible > 0 {
			return ClampPercent(100 * earned / possible), true
		}
	}

	doc := a.Score
	if !doc.IsObject() {
		return 0, false
	}
	if maxPts, ok := doc.CategoryMax(category); ok {
		if maxPts == 0 {
			return 0, false
		}
		pts, _ := doc.Number(category)
		return ClampPercent(100 * pts / maxPts), true
	}
	if pct, ok := doc.Number(category); ok {
		return ClampPercent(pct), true
	}
	return 0, false
}

// OverallScore returns the overall percentage rounded for display.
func (x *Extractor) OverallScore(a *model.RawAssessment) (int, bool) {
	v, ok := x.OverallScorePrecise(a)
	if !ok {
		return 0, false
	}
	return RoundInt(v), true
}

// OverallScorePrecise returns the unrounded overall percentage.
func (x *Extractor) OverallScorePrecise(a *model.RawAssessment) (float64, bool) {
	if a == nil {
		return 0, false
	}

	if x.cfg.PreferResponsesForOverall {
		if v, ok := responsesOverall(a.Responses); ok {
			return v, true
		}
	}

	doc := a.Score
	switch DetectShape(doc) {
	case ShapeTotals:
		total, _ := doc.Number("total_score")
		maxPts, ok := doc.Number("max_score")
		if !ok {
			maxPts = x.cfg.FallbackMaxScore
			zap.L().Debug("esg: max_score missing, using fallback",
				zap.String("assessment_id", a.ID),
				zap.Float64("fallback_max_score", maxPts),
			)
		}
		if maxPts == 0 {
			return 0, false
		}
		return ClampPercent(100 * total / maxPts), true
	case ShapeCategoryMax, ShapeLegacyPillars:
		if !IsLegacyPillarShape(doc) {
			return 0, false
		}
		vals := doc.Numbers()
		if len(vals) == 0 {
			return 0, false
		}
		return ClampPercent(Mean(vals)), true
	case ShapeAbsent, ShapeMalformed, ShapeUnrecognized:
		return 0, false
	default:
		return 0, false
	}
}

// CategoryScores returns the precise percentage of every configured category
// that has data.
func (x *Extractor) CategoryScores(a *model.RawAssessment) map[string]float64 {
	out := make(map[string]float64, len(x.cfg.Categories))
	for _, c := range x.cfg.Categories {
		if v, ok := x.CategoryScorePrecise(a, c); ok {
			out[c] = v
		}
	}
	return out
}

func responsesOverall(responses []model.RawResponse) (float64, bool) {
	var earned, possible float64
	for _, r := range responses {
		if r.QuestionScore == nil || r.QuestionMax == nil {
			continue
		}
		earned += *r.QuestionScore
		possible += *r.QuestionMax
	}
	if possible <= 0 {
		return 0, false
	}
	return ClampPercent(100 * earned / possible), true
}

// ClampPercent bounds v to [0, 100].
func ClampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
