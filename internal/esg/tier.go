package esg

import "math"

// Tier is a maturity label derived from an overall score.
type Tier string

const (
	TierNA           Tier = "N/A"
	TierYetToStart   Tier = "YET TO START"
	TierBasic        Tier = "BASIC"
	TierDeveloping   Tier = "DEVELOPING"
	TierIntermediate Tier = "INTERMEDIATE"
	TierAdvanced     Tier = "ADVANCED"
)

// Tiers lists the five scored tiers in ascending order. TierNA is not part
// of the scale.
var Tiers = []Tier{TierYetToStart, TierBasic, TierDeveloping, TierIntermediate, TierAdvanced}

// Classify maps a nullable score to its tier.
func Classify(score *float64) Tier {
	if score == nil {
		return TierNA
	}
	return ClassifyValue(*score)
}

// ClassifyValue maps a score to its tier. Upper bounds are inclusive:
// 30 is BASIC and 80 is INTERMEDIATE. Exactly 0 is its own tier.
func ClassifyValue(score float64) Tier {
	switch {
	case math.IsNaN(score) || score < 0:
		return TierNA
	case score == 0:
		return TierYetToStart
	case score <= 30:
		return TierBasic
	case score <= 50:
		return TierDeveloping
	case score <= 80:
		return TierIntermediate
	default:
		return TierAdvanced
	}
}
