package request

import "strings"

// Unit is a sampling granularity understood by the aggregates endpoint.
type Unit string

const (
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
)

// Timeframe is a closed enumeration of bar sizes.
type Timeframe string

const (
	Timeframe1Minute   Timeframe = "1 Minute"
	Timeframe5Minutes  Timeframe = "5 Minutes"
	Timeframe15Minutes Timeframe = "15 Minutes"
	Timeframe30Minutes Timeframe = "30 Minutes"
	Timeframe1Hour     Timeframe = "1 Hour"
	Timeframe1Day      Timeframe = "1 Day"
)

// Timeframes lists every timeframe in display order.
var Timeframes = []Timeframe{
	Timeframe1Minute, Timeframe5Minutes, Timeframe15Minutes,
	Timeframe30Minutes, Timeframe1Hour, Timeframe1Day,
}

// Granularity is a (multiplier, unit) sampling pair.
type Granularity struct {
	Multiplier int
	Unit       Unit
}

var timeframeGranularity = map[Timeframe]Granularity{
	Timeframe1Minute:   {1, UnitMinute},
	Timeframe5Minutes:  {5, UnitMinute},
	Timeframe15Minutes: {15, UnitMinute},
	Timeframe30Minutes: {30, UnitMinute},
	Timeframe1Hour:     {1, UnitHour},
	Timeframe1Day:      {1, UnitDay},
}

var timeframeAliases = map[string]Timeframe{
	"1min":  Timeframe1Minute,
	"5min":  Timeframe5Minutes,
	"15min": Timeframe15Minutes,
	"30min": Timeframe30Minutes,
	"1h":    Timeframe1Hour,
	"1d":    Timeframe1Day,
}

// ParseTimeframe resolves a display label or short alias.
func ParseTimeframe(label string) (Timeframe, error) {
	trimmed := strings.TrimSpace(label)
	for _, tf := range Timeframes {
		if strings.EqualFold(trimmed, string(tf)) {
			return tf, nil
		}
	}
	if tf, ok := timeframeAliases[strings.ToLower(trimmed)]; ok {
		return tf, nil
	}
	return "", &UnknownLabelError{Kind: "timeframe", Label: label}
}

// NormalizeTimeframe maps a label to its sampling granularity.
// Unrecognized labels are rejected with *UnknownLabelError.
func NormalizeTimeframe(label string) (multiplier int, unit Unit, err error) {
	tf, err := ParseTimeframe(label)
	if err != nil {
		return 0, "", err
	}
	g := timeframeGranularity[tf]
	return g.Multiplier, g.Unit, nil
}
