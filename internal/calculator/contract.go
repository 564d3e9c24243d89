package calculator

import (
	"errors"
	"math"

	"StockLens/internal/model"
)

// Selection picks the representative contract from a chain.
type Selection string

const (
	// SelectFirst takes the first listed call of the nearest expiration,
	// which is usually deep in the money rather than at the money.
	SelectFirst Selection = "first"
	// SelectATM takes the call whose strike is closest to spot.
	SelectATM Selection = "atm"
)

// ErrNoContracts is returned when the chain has no calls.
var ErrNoContracts = errors.New("option chain has no calls")

// SelectContract returns the representative call.
func SelectContract(chain *model.OptionChain, spot float64, how Selection) (model.OptionContract, error) {
	if chain == nil || len(chain.Calls) == 0 {
		return model.OptionContract{}, ErrNoContracts
	}
	if how != SelectATM || spot <= 0 {
		return chain.Calls[0], nil
	}
	best := chain.Calls[0]
	bestDist := math.Abs(best.Strike - spot)
	for _, c := range chain.Calls[1:] {
		if d := math.Abs(c.Strike - spot); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, nil
}
