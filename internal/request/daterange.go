package request

import (
	"strings"
	"time"
)

// DateRange is a closed enumeration of look-back windows.
type DateRange string

const (
	Range1Day    DateRange = "1 Day"
	Range3Days   DateRange = "3 Days"
	Range1Month  DateRange = "1 Month"
	Range3Months DateRange = "3 Months"
	Range1Year   DateRange = "1 Year"
)

// DateRanges lists every range in display order.
var DateRanges = []DateRange{Range1Day, Range3Days, Range1Month, Range3Months, Range1Year}

var rangeDays = map[DateRange]int{
	Range1Day:    1,
	Range3Days:   3,
	Range1Month:  30,
	Range3Months: 90,
	Range1Year:   365,
}

// rangeAliases accepts the short forms used by chat commands and query strings.
var rangeAliases = map[string]DateRange{
	"1d":  Range1Day,
	"3d":  Range3Days,
	"1m":  Range1Month,
	"1mo": Range1Month,
	"3m":  Range3Months,
	"3mo": Range3Months,
	"1y":  Range1Year,
}

// ParseDateRange resolves a display label or short alias.
func ParseDateRange(label string) (DateRange, error) {
	trimmed := strings.TrimSpace(label)
	for _, r := range DateRanges {
		if strings.EqualFold(trimmed, string(r)) {
			return r, nil
		}
	}
	if r, ok := rangeAliases[strings.ToLower(trimmed)]; ok {
		return r, nil
	}
	return "", &UnknownLabelError{Kind: "date range", Label: label}
}

// Days returns the look-back length in days.
func (r DateRange) Days() (int, error) {
	d, ok := rangeDays[r]
	if !ok {
		return 0, &UnknownLabelError{Kind: "date range", Label: string(r)}
	}
	return d, nil
}

// NormalizeRange maps a label to a (start, end) pair with end = now.
// Unrecognized labels are rejected with *UnknownLabelError.
func NormalizeRange(label string, now time.Time) (start, end time.Time, err error) {
	r, err := ParseDateRange(label)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	days, err := r.Days()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return now.AddDate(0, 0, -days), now, nil
}
