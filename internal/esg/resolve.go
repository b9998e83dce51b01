package esg

import (
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/esg-engine/internal/model"
)

// Resolution names the rule that picked a year's canonical record.
type Resolution string

const (
	// ResolutionSole: the year had a single record.
	ResolutionSole Resolution = "sole"
	// ResolutionSelected: the record carried is_selected = true.
	ResolutionSelected Resolution = "selected"
	// ResolutionLatestTimestamp: no record was flagged; the latest
	// submitted_at (or created_at) won.
	ResolutionLatestTimestamp Resolution = "latest_timestamp"
	// ResolutionInputOrder: timestamps were equal or missing; the first
	// record in input order won.
	ResolutionInputOrder Resolution = "input_order"
)

// ResolvedYearRecord is the single assessment representing a firm for one
// year, annotated with its precise scores.
type ResolvedYearRecord struct {
	FirmID     string               `json:"firm_id"`
	Year       int                  `json:"year"`
	Assessment *model.RawAssessment `json:"-"`
	Overall    *float64             `json:"overall_score"`
	Categories map[string]float64   `json:"category_scores"`
	Resolution Resolution           `json:"resolution"`
	Ambiguous  bool                 `json:"ambiguous,omitempty"`
	Candidates int                  `json:"candidates"`
}

// CategoryScore returns the precise score for category, if derivable.
func (r ResolvedYearRecord) CategoryScore(category string) (float64, bool) {
	v, ok := r.Categories[category]
	return v, ok
}

// Tier classifies the record's overall score.
func (r ResolvedYearRecord) Tier() Tier {
	return Classify(r.Overall)
}

// YearSet maps a reporting year to its canonical record.
type YearSet map[int]ResolvedYearRecord

// Years returns the resolved years in ascending order.
func (s YearSet) Years() []int {
	years := make([]int, 0, len(s))
	for y := range s {
		years = append(years, y)
	}
	slices.Sort(years)
	return years
}

// Records returns the canonical records in ascending year order.
func (s YearSet) Records() []ResolvedYearRecord {
	out := make([]ResolvedYearRecord, 0, len(s))
	for _, y := range s.Years() {
		out = append(out, s[y])
	}
	return out
}

// Latest returns the record for the most recent year.
func (s YearSet) Latest() (ResolvedYearRecord, bool) {
	years := s.Years()
	if len(years) == 0 {
		return ResolvedYearRecord{}, false
	}
	return s[years[len(years)-1]], true
}

// ResolveCanonicalPerYear groups a firm's assessments by reporting year and
// picks exactly one record per year. Records whose year does not parse are
// dropped. The result depends only on the input and its order, so repeated
// calls over the same slice always agree.
func ResolveCanonicalPerYear(firmID string, assessments []model.RawAssessment, x *Extractor) YearSet {
	groups := make(map[int][]int)
	var order []int
	for i := range assessments {
		year, ok := assessments[i].ReportingYear()
		if !ok {
			continue
		}
		if _, seen := groups[year]; !seen {
			order = append(order, year)
		}
		groups[year] = append(groups[year], i)
	}

	out := make(YearSet, len(groups))
	for _, year := range order {
		idx := groups[year]
		pick, resolution, ambiguous := selectCanonical(assessments, idx)
		a := &assessments[pick]

		rec := ResolvedYearRecord{
			FirmID:     firmID,
			Year:       year,
			Assessment: a,
			Categories: x.CategoryScores(a),
			Resolution: resolution,
			Ambiguous:  ambiguous,
			Candidates: len(idx),
		}
		if v, ok := x.OverallScorePrecise(a); ok {
			rec.Overall = &v
		}

		if ambiguous {
			zap.L().Warn("esg: ambiguous canonical selection",
				zap.String("firm_id", firmID),
				zap.Int("year", year),
				zap.Int("candidates", len(idx)),
				zap.String("resolution", string(resolution)),
				zap.String("assessment_id", a.ID),
			)
		} else if resolution == ResolutionLatestTimestamp {
			zap.L().Debug("esg: no selected assessment, using latest timestamp",
				zap.String("firm_id", firmID),
				zap.Int("year", year),
				zap.String("assessment_id", a.ID),
			)
		}

		out[year] = rec
	}
	return out
}

// selectCanonical picks one index out of a year group (indices ascending in
// input order).
func selectCanonical(assessments []model.RawAssessment, idx []int) (int, Resolution, bool) {
	if len(idx) == 1 {
		return idx[0], ResolutionSole, false
	}

	var flagged []int
	for _, i := range idx {
		if assessments[i].Selected() {
			flagged = append(flagged, i)
		}
	}
	switch len(flagged) {
	case 1:
		return flagged[0], ResolutionSelected, false
	case 0:
		pick, tied := latestByTimestamp(assessments, idx)
		if tied {
			return pick, ResolutionInputOrder, true
		}
		return pick, ResolutionLatestTimestamp, false
	default:
		pick, _ := latestByTimestamp(assessments, flagged)
		return pick, ResolutionSelected, true
	}
}

// latestByTimestamp returns the index with the greatest timestamp, comparing
// ISO-8601 strings lexicographically. Ties go to the earliest index. tied is
// true when the winning timestamp is empty or shared with another record.
func latestByTimestamp(assessments []model.RawAssessment, idx []int) (int, bool) {
	best := idx[0]
	bestTS := assessments[best].Timestamp()
	for _, i := range idx[1:] {
		if ts := assessments[i].Timestamp(); ts > bestTS {
			best, bestTS = i, ts
		}
	}
	if bestTS == "" {
		return best, true
	}
	for _, i := range idx {
		if i != best && assessments[i].Timestamp() == bestTS {
			return best, true
		}
	}
	return best, false
}
