package calculator

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"StockLens/internal/model"
)

// Describe summarizes a price column: count, mean, sample std, min,
// quartiles and max.
func Describe(values []float64) (model.SeriesStats, error) {
	if len(values) == 0 {
		return model.SeriesStats{}, errors.New("no values to describe")
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s := model.SeriesStats{
		Count: len(values),
		Mean:  stat.Mean(values, nil),
		Std:   math.NaN(),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Q25:   quantileLinear(sorted, 0.25),
		Q50:   quantileLinear(sorted, 0.50),
		Q75:   quantileLinear(sorted, 0.75),
	}
	if len(values) > 1 {
		s.Std = stat.StdDev(values, nil)
	}
	return s, nil
}

// quantileLinear interpolates between closest ranks on a sorted slice
// (position p*(n-1)).
func quantileLinear(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
