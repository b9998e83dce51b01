package model

import (
	"bytes"
	"encoding/json"
	"maps"
	"math"
	"slices"
)

// ScoreDoc is the pre-aggregated score object attached to an assessment.
// Upstream has produced several shapes over time (total/max pairs with
// per-category maxima, and legacy pillar percentages), so the document is
// decoded loosely: unknown or mistyped members are ignored and a non-object
// value is recorded as malformed instead of failing the surrounding record.
type ScoreDoc struct {
	raw         json.RawMessage
	present     bool
	object      bool
	numbers     map[string]float64
	keys        map[string]bool
	categoryMax map[string]float64
}

// ParseScoreDoc decodes a score document. It never returns an error.
func ParseScoreDoc(data []byte) ScoreDoc {
	var d ScoreDoc
	_ = d.UnmarshalJSON(data)
	return d
}

// ScoreFromMap builds a ScoreDoc from a Go map, mainly for tests and fixtures.
func ScoreFromMap(m map[string]any) ScoreDoc {
	data, err := json.Marshal(m)
	if err != nil {
		return ScoreDoc{present: true}
	}
	return ParseScoreDoc(data)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *ScoreDoc) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*d = ScoreDoc{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	d.raw = append(json.RawMessage(nil), data...)
	d.present = true

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil || members == nil {
		return nil
	}
	d.object = true
	d.numbers = make(map[string]float64, len(members))
	d.keys = make(map[string]bool, len(members))
	for k, v := range members {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		d.keys[k] = true
		if f, ok := jsonNumber(v); ok {
			d.numbers[k] = f
		}
	}
	if cm, ok := members["category_max"]; ok {
		var maxes map[string]json.RawMessage
		if err := json.Unmarshal(cm, &maxes); err == nil && maxes != nil {
			d.categoryMax = make(map[string]float64, len(maxes))
			for k, v := range maxes {
				if f, ok := jsonNumber(v); ok {
					d.categoryMax[k] = f
				}
			}
		}
	}
	return nil
}

// MarshalJSON writes the document back exactly as it was received.
func (d ScoreDoc) MarshalJSON() ([]byte, error) {
	if !d.present || len(d.raw) == 0 {
		return []byte("null"), nil
	}
	return d.raw, nil
}

// IsZero reports whether the score member was absent or null.
func (d ScoreDoc) IsZero() bool { return !d.present }

// Present reports whether a non-null score member was supplied.
func (d ScoreDoc) Present() bool { return d.present }

// IsObject reports whether the score member is a JSON object.
func (d ScoreDoc) IsObject() bool { return d.object }

// Has reports whether the object carries a non-null member named key.
func (d ScoreDoc) Has(key string) bool { return d.keys[key] }

// Number returns the numeric member named key.
func (d ScoreDoc) Number(key string) (float64, bool) {
	f, ok := d.numbers[key]
	return f, ok
}

// CategoryMax returns category_max[category] when it is a number.
func (d ScoreDoc) CategoryMax(category string) (float64, bool) {
	f, ok := d.categoryMax[category]
	return f, ok
}

// Numbers returns every numeric member directly under the object, ordered by
// key so that sums over them are reproducible.
func (d ScoreDoc) Numbers() []float64 {
	out := make([]float64, 0, len(d.numbers))
	for _, k := range slices.Sorted(maps.Keys(d.numbers)) {
		out = append(out, d.numbers[k])
	}
	return out
}

func jsonNumber(v json.RawMessage) (float64, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || (v[0] != '-' && (v[0] < '0' || v[0] > '9')) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
