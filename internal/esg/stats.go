package esg

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// Median returns the median, averaging the two middle values for even
// lengths, or 0 for an empty slice. data is not modified.
func Median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return stat.Mean(sorted[n/2-1:n/2+1], nil)
}

// SafeDiv returns num/den, or 0 when den is 0.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// RoundInt rounds to the nearest integer, halves away from zero.
func RoundInt(v float64) int {
	return int(math.Round(v))
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Accumulator keeps running statistics over precise scores.
// The zero value is ready to use.
type Accumulator struct {
	Count  int
	Sum    float64
	Min    float64
	Max    float64
	values []float64
}

// Add records one value. NaN values are ignored.
func (a *Accumulator) Add(v float64) {
	if math.IsNaN(v) {
		return
	}
	if a.Count == 0 || v < a.Min {
		a.Min = v
	}
	if a.Count == 0 || v > a.Max {
		a.Max = v
	}
	a.Count++
	a.Sum += v
	a.values = append(a.values, v)
}

// Average returns Sum/Count, or 0 when nothing was added.
func (a *Accumulator) Average() float64 {
	return SafeDiv(a.Sum, float64(a.Count))
}

// Median returns the median of the added values.
func (a *Accumulator) Median() float64 {
	return Median(a.values)
}
