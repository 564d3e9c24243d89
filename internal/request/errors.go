package request

import (
	"errors"
	"fmt"
)

// ErrUnknownLabel matches every *UnknownLabelError via errors.Is.
var ErrUnknownLabel = errors.New("unknown label")

// UnknownLabelError reports a label outside a closed enumeration.
type UnknownLabelError struct {
	Kind  string // "date range" or "timeframe"
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Label)
}

func (e *UnknownLabelError) Is(target error) bool {
	return target == ErrUnknownLabel
}
