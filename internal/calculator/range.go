package calculator

import (
	"errors"
	"math"

	"StockLens/internal/model"
)

// axisPadding widens the chart's y-axis beyond the observed range.
const axisPadding = 0.01

// SeriesRange scans every bar and returns the highest high and lowest low.
func SeriesRange(bars []model.Bar) (model.PriceRange, error) {
	if len(bars) == 0 {
		return model.PriceRange{}, errors.New("no bars provided")
	}
	high := math.Inf(-1)
	low := math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return model.PriceRange{High: high, Low: low}, nil
}

// AxisBounds returns [low*0.99, high*1.01] for the close-price chart.
func AxisBounds(r model.PriceRange) (min, max float64) {
	return r.Low * (1 - axisPadding), r.High * (1 + axisPadding)
}

// LinePoints projects the close column onto chart points.
func LinePoints(bars []model.Bar) []model.LinePoint {
	pts := make([]model.LinePoint, len(bars))
	for i, b := range bars {
		pts[i] = model.LinePoint{Date: b.Date(), Close: b.Close}
	}
	return pts
}

// CandlePoints projects OHLC onto candlestick points.
func CandlePoints(bars []model.Bar) []model.CandlePoint {
	pts := make([]model.CandlePoint, len(bars))
	for i, b := range bars {
		pts[i] = model.CandlePoint{Date: b.Date(), Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
	}
	return pts
}
