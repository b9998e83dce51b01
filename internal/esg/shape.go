package esg

import "github.com/sells-group/esg-engine/internal/model"

// Shape identifies which representation a score document uses.
type Shape int

const (
	// ShapeAbsent means the assessment carried no score member.
	ShapeAbsent Shape = iota
	// ShapeMalformed means the score member was not a JSON object.
	ShapeMalformed
	// ShapeTotals is the current shape: total_score/max_score plus per-category
	// raw points and category_max maxima.
	ShapeTotals
	// ShapeCategoryMax has per-category points and maxima but no total.
	ShapeCategoryMax
	// ShapeLegacyPillars holds pillar percentages keyed by category name.
	ShapeLegacyPillars
	// ShapeUnrecognized is an object matching none of the known shapes.
	ShapeUnrecognized
)

func (s Shape) String() string {
	switch s {
	case ShapeAbsent:
		return "absent"
	case ShapeMalformed:
		return "malformed"
	case ShapeTotals:
		return "totals"
	case ShapeCategoryMax:
		return "category_max"
	case ShapeLegacyPillars:
		return "legacy_pillars"
	case ShapeUnrecognized:
		return "unrecognized"
	default:
		return "unknown"
	}
}

// DetectShape classifies a score document.
func DetectShape(d model.ScoreDoc) Shape {
	switch {
	case !d.Present():
		return ShapeAbsent
	case !d.IsObject():
		return ShapeMalformed
	case HasTotalScore(d):
		return ShapeTotals
	case d.Has("category_max"):
		return ShapeCategoryMax
	case IsLegacyPillarShape(d):
		return ShapeLegacyPillars
	default:
		return ShapeUnrecognized
	}
}

// HasTotalScore reports whether the document carries a numeric total_score.
func HasTotalScore(d model.ScoreDoc) bool {
	_, ok := d.Number("total_score")
	return ok
}

// HasCategoryMax reports whether category_max holds a number for category.
func HasCategoryMax(d model.ScoreDoc, category string) bool {
	_, ok := d.CategoryMax(category)
	return ok
}

// IsLegacyPillarShape reports whether the document is the old three-pillar
// percentage object, recognized by its Environment member.
func IsLegacyPillarShape(d model.ScoreDoc) bool {
	return d.IsObject() && d.Has(CategoryEnvironment)
}
