package request

import (
	"fmt"
	"strings"
	"time"
)

// MaxRows is the per-call row cap sent to the aggregates endpoint.
const MaxRows = 50000

// DateLayout is the ISO date format of the from/to query parameters.
const DateLayout = "2006-01-02"

// HistoryRequest is a fully normalized historical-bars query.
type HistoryRequest struct {
	Symbol     string
	Start      time.Time
	End        time.Time
	Multiplier int
	Unit       Unit
	Limit      int
}

// NewHistoryRequest normalizes a symbol plus range and timeframe labels.
func NewHistoryRequest(symbol, rangeLabel, timeframeLabel string, now time.Time) (HistoryRequest, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return HistoryRequest{}, fmt.Errorf("symbol is required")
	}
	start, end, err := NormalizeRange(rangeLabel, now)
	if err != nil {
		return HistoryRequest{}, err
	}
	mult, unit, err := NormalizeTimeframe(timeframeLabel)
	if err != nil {
		return HistoryRequest{}, err
	}
	return HistoryRequest{
		Symbol:     symbol,
		Start:      start,
		End:        end,
		Multiplier: mult,
		Unit:       unit,
		Limit:      MaxRows,
	}, nil
}

// From returns the start date as YYYY-MM-DD.
func (r HistoryRequest) From() string { return r.Start.Format(DateLayout) }

// To returns the end date as YYYY-MM-DD.
func (r HistoryRequest) To() string { return r.End.Format(DateLayout) }

// BucketDuration is the length of one bar.
func (r HistoryRequest) BucketDuration() time.Duration {
	switch r.Unit {
	case UnitMinute:
		return time.Duration(r.Multiplier) * time.Minute
	case UnitHour:
		return time.Duration(r.Multiplier) * time.Hour
	default:
		return time.Duration(r.Multiplier) * 24 * time.Hour
	}
}

// EstimatedRows is an upper bound of bars the window can hold, ignoring
// market hours. Callers use it to warn that a single call may truncate.
func (r HistoryRequest) EstimatedRows() int {
	d := r.BucketDuration()
	if d <= 0 {
		return 0
	}
	return int(r.End.Sub(r.Start) / d)
}
