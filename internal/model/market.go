package model

import "time"

// Symbol is a resolved ticker.
type Symbol struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name,omitempty"`
	Source string `json:"source"`
}

// Quote is the latest completed trading session for a symbol.
type Quote struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Bar represents a single OHLCV aggregate.
type Bar struct {
	Timestamp    int64   `json:"timestamp"` // ms epoch, start of the bucket
	Open         float64 `json:"open"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Close        float64 `json:"close"`
	Volume       float64 `json:"volume"`
	VWAP         float64 `json:"vwap,omitempty"`
	Transactions int64   `json:"transactions,omitempty"`
}

// Date derives the bar time from its millisecond timestamp.
func (b Bar) Date() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}

// Series holds an ordered (oldest first) run of bars for one symbol.
type Series struct {
	Symbol     string `json:"symbol"`
	Multiplier int    `json:"multiplier"`
	Unit       string `json:"unit"`
	Bars       []Bar  `json:"bars"`
	// Truncated is set when the provider had more rows than were fetched.
	Truncated bool      `json:"truncated"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Len returns the number of bars.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Closes extracts the close column.
func (s *Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// CandlePoint is one candlestick for chart rendering.
type CandlePoint struct {
	Date  time.Time `json:"date"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// LinePoint is one point of the close-price line chart.
type LinePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}
