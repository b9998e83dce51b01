package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawResponse is one answered question within an assessment.
type RawResponse struct {
	Category      string   `json:"category"`
	QuestionScore *float64 `json:"question_score,omitempty"`
	QuestionMax   *float64 `json:"question_max,omitempty"`
}

// RawAssessment is one submission by one firm for one nominal year.
// Records are read-only inputs; nothing in the engine mutates them.
type RawAssessment struct {
	ID             string        `json:"id,omitempty"`
	FirmID         string        `json:"firm_id,omitempty"`
	Year           YearField     `json:"year,omitzero"`
	AssessmentYear YearField     `json:"assessment_year,omitzero"`
	Responses      []RawResponse `json:"responses,omitempty"`
	Score          ScoreDoc      `json:"score,omitzero"`
	IsSelected     *bool         `json:"is_selected,omitempty"`
	SubmittedAt    string        `json:"submitted_at,omitempty"`
	CreatedAt      string        `json:"created_at,omitempty"`
}

// ReportingYear returns the integer reporting year, trying year first and
// then assessment_year. ok is false when neither parses as an integer.
func (a *RawAssessment) ReportingYear() (year int, ok bool) {
	if y, ok := a.Year.Int(); ok {
		return y, true
	}
	return a.AssessmentYear.Int()
}

// Selected reports whether the record is explicitly flagged authoritative.
func (a *RawAssessment) Selected() bool {
	return a.IsSelected != nil && *a.IsSelected
}

// Timestamp returns submitted_at, falling back to created_at. The value is
// returned verbatim: ISO-8601 strings order lexicographically.
func (a *RawAssessment) Timestamp() string {
	if a.SubmittedAt != "" {
		return a.SubmittedAt
	}
	return a.CreatedAt
}

// YearField holds a year that upstream systems send either as a JSON number
// or as a string. The raw text is kept; Int does the parsing.
type YearField struct {
	raw string
	set bool
}

// NewYear returns a YearField holding an integer year.
func NewYear(y int) YearField {
	return YearField{raw: strconv.Itoa(y), set: true}
}

// YearString returns a YearField holding arbitrary text.
func YearString(s string) YearField {
	return YearField{raw: s, set: true}
}

// IsZero reports whether the field was absent or null.
func (y YearField) IsZero() bool { return !y.set }

// Int parses the year. Integral numbers ("2023", 2023, 2023.0) parse;
// everything else does not.
func (y YearField) Int() (int, bool) {
	if !y.set {
		return 0, false
	}
	s := strings.TrimSpace(y.raw)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// String returns the raw text.
func (y YearField) String() string { return y.raw }

// UnmarshalJSON accepts numbers, strings, and null. Other JSON values are
// kept as unparseable text rather than failing the whole record.
func (y *YearField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*y = YearField{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = YearField{raw: s, set: true}
		return nil
	}
	*y = YearField{raw: string(data), set: true}
	return nil
}

// MarshalJSON writes integral years as numbers and anything else as a string.
func (y YearField) MarshalJSON() ([]byte, error) {
	if !y.set {
		return []byte("null"), nil
	}
	if n, ok := y.Int(); ok && strings.TrimSpace(y.raw) == strconv.Itoa(n) {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(y.raw)
}
