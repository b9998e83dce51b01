// Package dashboard aggregates resolved ESG records into the statistics the
// admin dashboard shows: dimension buckets, the population rollup, per-firm
// metrics, the tier distribution and the year trend.
package dashboard

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/esg-engine/internal/esg"
	"github.com/sells-group/esg-engine/internal/model"
)

// Dimension is an organizational grouping key.
type Dimension string

const (
	DimensionSector           Dimension = "sector"
	DimensionIndustry         Dimension = "industry"
	DimensionIndustryCategory Dimension = "industry_category"
	DimensionBusinessSize     Dimension = "business_size"
	DimensionLocation         Dimension = "location"
	DimensionStatus           Dimension = "status"
	DimensionNone             Dimension = "none"
)

// UnknownKey labels records whose dimension value is missing.
const UnknownKey = "Unknown"

// AllKey labels the single bucket of DimensionNone.
const AllKey = "All"

// DefaultDimensions are computed for every view model unless the caller
// asks for a specific set.
var DefaultDimensions = []Dimension{
	DimensionSector,
	DimensionIndustry,
	DimensionIndustryCategory,
	DimensionBusinessSize,
	DimensionLocation,
	DimensionStatus,
}

// ParseDimension accepts the canonical names plus a few aliases.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sector":
		return DimensionSector, nil
	case "industry":
		return DimensionIndustry, nil
	case "industry_category", "industry-category", "industry-main-category", "category":
		return DimensionIndustryCategory, nil
	case "business_size", "business-size", "size":
		return DimensionBusinessSize, nil
	case "location":
		return DimensionLocation, nil
	case "status", "tier":
		return DimensionStatus, nil
	case "none", "all", "":
		return DimensionNone, nil
	default:
		return "", eris.Errorf("dashboard: unknown dimension %q", s)
	}
}

// KeyFor returns the bucket key of a resolved record under dim.
func KeyFor(rec esg.FirmRecord, dim Dimension) string {
	if dim == DimensionStatus {
		return string(rec.Tier())
	}
	return FirmKey(rec.Firm, dim)
}

// FirmKey returns the bucket key of a firm under a firm-level dimension.
func FirmKey(f *model.Firm, dim Dimension) string {
	if dim == DimensionNone {
		return AllKey
	}
	if f == nil {
		return UnknownKey
	}
	var raw string
	switch dim {
	case DimensionSector:
		raw = f.Sector
	case DimensionIndustry:
		raw = f.Industry
	case DimensionIndustryCategory:
		raw = f.IndustryCategory()
	case DimensionBusinessSize:
		raw = f.BusinessSize
	case DimensionLocation:
		raw = f.Location()
	}
	return NormalizeKey(raw)
}

// NormalizeKey trims surrounding whitespace and composes Unicode so that
// visually identical labels share a bucket. Empty values become UnknownKey.
func NormalizeKey(s string) string {
	k := strings.TrimSpace(norm.NFC.String(s))
	if k == "" {
		return UnknownKey
	}
	return k
}
