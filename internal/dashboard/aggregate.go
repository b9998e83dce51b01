package dashboard

import (
	"sort"

	"github.com/sells-group/esg-engine/internal/esg"
)

// Bucket accumulates the precise overall scores of the records sharing one
// dimension key. Count covers scored records only; records without an
// overall score are tallied in Unscored.
type Bucket struct {
	Key string
	esg.Accumulator
	Unscored int

	firms     map[string]struct{}
	firmOrder []string
}

// FirmCount returns the number of distinct firms in the bucket, independent
// of how many years each contributed.
func (b *Bucket) FirmCount() int {
	return len(b.firmOrder)
}

// FirmIDs returns the distinct firm ids in first-seen order.
func (b *Bucket) FirmIDs() []string {
	return append([]string(nil), b.firmOrder...)
}

func (b *Bucket) addFirm(id string) {
	if b.firms == nil {
		b.firms = make(map[string]struct{})
	}
	if _, ok := b.firms[id]; ok {
		return
	}
	b.firms[id] = struct{}{}
	b.firmOrder = append(b.firmOrder, id)
}

// BucketView is the display form of a Bucket.
type BucketView struct {
	Key             string   `json:"key"`
	AverageScore    float64  `json:"averageScore"`
	FirmCount       int      `json:"firmCount"`
	AssessmentCount int      `json:"assessmentCount"`
	Unscored        int      `json:"unscored,omitempty"`
	Min             *float64 `json:"min"`
	Max             *float64 `json:"max"`
	Median          *float64 `json:"median"`
	Tier            esg.Tier `json:"tier"`
}

// View rounds the bucket for display.
func (b *Bucket) View() BucketView {
	v := BucketView{
		Key:             b.Key,
		AverageScore:    esg.Round2(b.Average()),
		FirmCount:       b.FirmCount(),
		AssessmentCount: b.Count,
		Unscored:        b.Unscored,
		Tier:            esg.TierNA,
	}
	if b.Count > 0 {
		minV, maxV, med := esg.Round2(b.Min), esg.Round2(b.Max), esg.Round2(b.Median())
		v.Min, v.Max, v.Median = &minV, &maxV, &med
		v.Tier = esg.ClassifyValue(b.Average())
	}
	return v
}

// Aggregate groups resolved records by dim. Buckets are sorted descending
// by precise average; equal averages keep first-seen key order. An empty
// input yields an empty slice.
func Aggregate(records []esg.FirmRecord, dim Dimension) []Bucket {
	index := make(map[string]int)
	var buckets []Bucket

	for _, rec := range records {
		key := KeyFor(rec, dim)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key})
		}
		b := &buckets[i]
		b.addFirm(rec.FirmID)
		if rec.Overall != nil {
			b.Add(*rec.Overall)
		} else {
			b.Unscored++
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Average() > buckets[j].Average()
	})
	if buckets == nil {
		return []Bucket{}
	}
	return buckets
}

// Views converts buckets for display, keeping their order.
func Views(buckets []Bucket) []BucketView {
	out := make([]BucketView, len(buckets))
	for i := range buckets {
		out[i] = buckets[i].View()
	}
	return out
}
