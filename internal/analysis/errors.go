package analysis

import (
	"errors"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
	"StockLens/internal/provider"
	"StockLens/internal/request"
)

// ErrMissingInput is returned before any network call when a required input
// or credential is absent.
var ErrMissingInput = errors.New("missing input")

// Classify maps an error to the failure kind shown to the user.
func Classify(err error) model.FailureKind {
	switch {
	case err == nil:
		return model.FailureNone
	case errors.Is(err, ErrMissingInput), errors.Is(err, request.ErrUnknownLabel):
		return model.FailureMissingInput
	case errors.Is(err, provider.ErrNoData), errors.Is(err, calculator.ErrNoContracts):
		return model.FailureEmpty
	case errors.Is(err, calculator.ErrInvalidVolatility), errors.Is(err, calculator.ErrInvalidInput):
		return model.FailureComputation
	default:
		return model.FailureProvider
	}
}
