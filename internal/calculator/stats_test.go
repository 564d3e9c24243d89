package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockLens/internal/model"
)

func TestDescribe(t *testing.T) {
	s, err := Describe([]float64{4, 1, 3, 2})
	require.NoError(t, err)

	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.Std, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.InDelta(t, 1.75, s.Q25, 1e-12)
	assert.InDelta(t, 2.5, s.Q50, 1e-12)
	assert.InDelta(t, 3.25, s.Q75, 1e-12)
	assert.Equal(t, 4.0, s.Max)
}

func TestDescribe_SingleValue(t *testing.T) {
	s, err := Describe([]float64{7})
	require.NoError(t, err)
	assert.Equal(t, 7.0, s.Q50)
	assert.True(t, math.IsNaN(s.Std))
}

func TestDescribe_Empty(t *testing.T) {
	_, err := Describe(nil)
	assert.Error(t, err)
}

func TestSeriesRangeAndAxis(t *testing.T) {
	bars := []model.Bar{
		{Timestamp: 1, High: 105, Low: 99, Close: 100},
		{Timestamp: 2, High: 110, Low: 101, Close: 108},
		{Timestamp: 3, High: 107, Low: 95, Close: 96},
	}
	r, err := SeriesRange(bars)
	require.NoError(t, err)
	assert.Equal(t, 110.0, r.High)
	assert.Equal(t, 95.0, r.Low)

	lo, hi := AxisBounds(r)
	assert.InDelta(t, 94.05, lo, 1e-9)
	assert.InDelta(t, 111.1, hi, 1e-9)

	_, err = SeriesRange(nil)
	assert.Error(t, err)
}

func TestChartPoints(t *testing.T) {
	bars := []model.Bar{{Timestamp: 1704067200000, Open: 1, High: 2, Low: 0.5, Close: 1.5}}
	line := LinePoints(bars)
	require.Len(t, line, 1)
	assert.Equal(t, 2024, line[0].Date.Year())
	assert.Equal(t, 1.5, line[0].Close)

	candles := CandlePoints(bars)
	require.Len(t, candles, 1)
	assert.Equal(t, 0.5, candles[0].Low)
}
