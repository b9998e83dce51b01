package dashboard

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/esg-engine/internal/esg"
	"github.com/sells-group/esg-engine/internal/model"
)

// Filters narrows the population. Empty sets match everything; a zero year
// bound is open.
type Filters struct {
	Sectors            []string `yaml:"sectors" json:"sectors,omitempty"`
	Industries         []string `yaml:"industries" json:"industries,omitempty"`
	IndustryCategories []string `yaml:"industry_categories" json:"industryCategories,omitempty"`
	BusinessSizes      []string `yaml:"business_sizes" json:"businessSizes,omitempty"`
	Locations          []string `yaml:"locations" json:"locations,omitempty"`
	YearFrom           int      `yaml:"year_from" json:"yearFrom,omitempty"`
	YearTo             int      `yaml:"year_to" json:"yearTo,omitempty"`
	Search             string   `yaml:"search" json:"search,omitempty"`
}

// LoadFilters reads a YAML filter preset.
func LoadFilters(path string) (Filters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Filters{}, eris.Wrapf(err, "dashboard: read filters %s", path)
	}
	return ParseFilters(data)
}

// ParseFilters decodes a YAML filter preset and validates the year range.
func ParseFilters(data []byte) (Filters, error) {
	var f Filters
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Filters{}, eris.Wrap(err, "dashboard: parse filters")
	}
	if err := f.Validate(); err != nil {
		return Filters{}, err
	}
	return f, nil
}

// Validate rejects an inverted year range.
func (f Filters) Validate() error {
	if f.YearFrom > 0 && f.YearTo > 0 && f.YearTo < f.YearFrom {
		return eris.Errorf("dashboard: year_to (%d) is before year_from (%d)", f.YearTo, f.YearFrom)
	}
	return nil
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return len(f.Sectors) == 0 && len(f.Industries) == 0 && len(f.IndustryCategories) == 0 &&
		len(f.BusinessSizes) == 0 && len(f.Locations) == 0 &&
		f.YearFrom == 0 && f.YearTo == 0 && strings.TrimSpace(f.Search) == ""
}

// MatchFirm applies the firm-level filters.
func (f Filters) MatchFirm(firm *model.Firm) bool {
	if firm == nil {
		return false
	}
	checks := []struct {
		set []string
		dim Dimension
	}{
		{f.Sectors, DimensionSector},
		{f.Industries, DimensionIndustry},
		{f.IndustryCategories, DimensionIndustryCategory},
		{f.BusinessSizes, DimensionBusinessSize},
		{f.Locations, DimensionLocation},
	}
	for _, c := range checks {
		if !matchSet(c.set, FirmKey(firm, c.dim)) {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(firm.Name), q) && !strings.Contains(strings.ToLower(firm.Email), q) {
			return false
		}
	}
	return true
}

// MatchYear applies the year range.
func (f Filters) MatchYear(year int) bool {
	if f.YearFrom > 0 && year < f.YearFrom {
		return false
	}
	if f.YearTo > 0 && year > f.YearTo {
		return false
	}
	return true
}

// Apply keeps the firms that match and restricts each firm's resolved years
// to the year range. Canonical selection happens per year, so dropping whole
// years after resolution is equivalent to filtering before it.
func (f Filters) Apply(pop esg.Population) esg.Population {
	out := esg.Population{Firms: make([]esg.FirmYears, 0, len(pop.Firms))}
	for _, fy := range pop.Firms {
		if !f.MatchFirm(fy.Firm) {
			continue
		}
		if f.YearFrom > 0 || f.YearTo > 0 {
			years := make(esg.YearSet, len(fy.Years))
			for y, rec := range fy.Years {
				if f.MatchYear(y) {
					years[y] = rec
				}
			}
			fy.Years = years
		}
		out.Firms = append(out.Firms, fy)
	}
	return out
}

// FirmsMatching returns the firms passing the firm-level filters, keeping
// their order.
func (f Filters) FirmsMatching(firms []model.Firm) []model.Firm {
	out := make([]model.Firm, 0, len(firms))
	for i := range firms {
		if f.MatchFirm(&firms[i]) {
			out = append(out, firms[i])
		}
	}
	return out
}

func matchSet(set []string, key string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if strings.EqualFold(NormalizeKey(s), key) {
			return true
		}
	}
	return false
}
