package esg

import "github.com/sells-group/esg-engine/internal/model"

// FirmYears pairs a firm with its resolved years.
type FirmYears struct {
	Firm     *model.Firm
	Years    YearSet
	RawCount int
}

// FirmRecord is one resolved (firm, year) record with its owning firm.
type FirmRecord struct {
	Firm *model.Firm
	ResolvedYearRecord
}

// Population is the resolved dataset for a set of firms. It is computed once
// per aggregation pass and handed to every consumer, so cards, charts and
// exports all see the same canonical records.
type Population struct {
	Firms []FirmYears
}

// ResolvePopulation resolves every firm's assessments exactly once. Firms
// keep their input order; firms with no assessments get an empty YearSet.
func ResolvePopulation(firms []model.Firm, assessmentsByFirm map[string][]model.RawAssessment, x *Extractor) Population {
	out := Population{Firms: make([]FirmYears, 0, len(firms))}
	for i := range firms {
		f := &firms[i]
		raw := assessmentsByFirm[f.ID]
		out.Firms = append(out.Firms, FirmYears{
			Firm:     f,
			Years:    ResolveCanonicalPerYear(f.ID, raw, x),
			RawCount: len(raw),
		})
	}
	return out
}

// Records flattens the population in firm order, each firm's years
// ascending.
func (p Population) Records() []FirmRecord {
	var out []FirmRecord
	for _, fy := range p.Firms {
		for _, rec := range fy.Years.Records() {
			out = append(out, FirmRecord{Firm: fy.Firm, ResolvedYearRecord: rec})
		}
	}
	return out
}

// Firm returns the resolved entry for a firm id.
func (p Population) Firm(id string) (FirmYears, bool) {
	for _, fy := range p.Firms {
		if fy.Firm.ID == id {
			return fy, true
		}
	}
	return FirmYears{}, false
}
