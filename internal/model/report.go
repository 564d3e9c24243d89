package model

import "time"

// FailureKind classifies why a section produced nothing.
type FailureKind string

const (
	FailureNone         FailureKind = ""
	FailureEmpty        FailureKind = "empty"
	FailureProvider     FailureKind = "provider_error"
	FailureMissingInput FailureKind = "missing_input"
	FailureComputation  FailureKind = "computation_error"
)

// SectionStatus is the display state of one report section.
type SectionStatus string

const (
	StatusOK          SectionStatus = "ok"
	StatusUnavailable SectionStatus = "unavailable"
	StatusError       SectionStatus = "error"
	StatusSkipped     SectionStatus = "skipped"
)

// Section is the common envelope of every report part.
type Section struct {
	Status  SectionStatus `json:"status"`
	Failure FailureKind   `json:"failure,omitempty"`
	Message string        `json:"message,omitempty"`
}

// OK reports whether the section carries data.
func (s Section) OK() bool { return s.Status == StatusOK }

// SeriesStats mirrors a describe() of the close column.
type SeriesStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"q25"`
	Q50   float64 `json:"q50"`
	Q75   float64 `json:"q75"`
	Max   float64 `json:"max"`
}

// PriceRange is the high/low envelope of a series.
type PriceRange struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

// DetailsSection wraps stock details.
type DetailsSection struct {
	Section
	Details *StockDetails `json:"details,omitempty"`
}

// QuoteSection wraps the latest quote.
type QuoteSection struct {
	Section
	Quote *Quote `json:"quote,omitempty"`
}

// HistorySection wraps the historical series and everything derived from it.
type HistorySection struct {
	Section
	From        time.Time     `json:"from"`
	To          time.Time     `json:"to"`
	Series      *Series       `json:"series,omitempty"`
	Stats       *SeriesStats  `json:"stats,omitempty"`
	Range       *PriceRange   `json:"range,omitempty"`
	AxisMin     float64       `json:"axis_min,omitempty"`
	AxisMax     float64       `json:"axis_max,omitempty"`
	Line        []LinePoint   `json:"line,omitempty"`
	Candles     []CandlePoint `json:"candles,omitempty"`
	CSVFilename string        `json:"csv_filename,omitempty"`
}

// GreeksSection wraps the representative option's Greeks.
type GreeksSection struct {
	Section
	Greeks *OptionGreeks `json:"greeks,omitempty"`
	Note   string        `json:"note,omitempty"`
}

// CommentarySection wraps the language-model text.
type CommentarySection struct {
	Section
	Text string `json:"text,omitempty"`
}

// Report is the full result of one analysis run.
type Report struct {
	RunID      string            `json:"run_id"`
	Symbol     string            `json:"symbol"`
	DateRange  string            `json:"date_range"`
	Timeframe  string            `json:"timeframe"`
	CreatedAt  time.Time         `json:"created_at"`
	Details    DetailsSection    `json:"details"`
	Quote      QuoteSection      `json:"quote"`
	History    HistorySection    `json:"history"`
	Greeks     GreeksSection     `json:"greeks"`
	Commentary CommentarySection `json:"commentary"`
}
