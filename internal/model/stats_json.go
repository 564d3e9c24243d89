package model

import (
	"encoding/json"
	"math"
)

// MarshalJSON writes a non-finite std (one observation) as null.
func (s SeriesStats) MarshalJSON() ([]byte, error) {
	type plain SeriesStats
	var std *float64
	if !math.IsNaN(s.Std) && !math.IsInf(s.Std, 0) {
		std = &s.Std
	}
	return json.Marshal(struct {
		plain
		Std *float64 `json:"std"`
	}{plain(s), std})
}
