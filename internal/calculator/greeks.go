package calculator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"StockLens/internal/model"
)

const (
	// DefaultRiskFreeRate is the flat annual rate used for every contract.
	DefaultRiskFreeRate = 0.01
	// DefaultFixedDays is the assumed days to expiry when the contract's own
	// expiration is not used.
	DefaultFixedDays = 30
	daysPerYear      = 365.0
)

var (
	ErrInvalidVolatility = errors.New("implied volatility must be positive")
	ErrInvalidInput      = errors.New("invalid pricing input")
)

// GreeksParams are the model inputs that do not come from the contract quote.
type GreeksParams struct {
	TimeToExpiry float64 // years
	RiskFreeRate float64
}

// DefaultGreeksParams returns the fixed 30/365-year, 1% assumption.
func DefaultGreeksParams() GreeksParams {
	return GreeksParams{
		TimeToExpiry: DefaultFixedDays / daysPerYear,
		RiskFreeRate: DefaultRiskFreeRate,
	}
}

// ComputeGreeks evaluates call Greeks with DefaultGreeksParams.
func ComputeGreeks(spot, strike, impliedVol float64) (model.OptionGreeks, error) {
	return ComputeGreeksWith(spot, strike, impliedVol, DefaultGreeksParams())
}

// ComputeGreeksWith evaluates Black-Scholes Greeks for a European call with no
// dividend yield. Theta is per calendar day and vega per volatility point.
func ComputeGreeksWith(spot, strike, impliedVol float64, p GreeksParams) (model.OptionGreeks, error) {
	if math.IsNaN(impliedVol) || impliedVol <= 0 {
		return model.OptionGreeks{}, fmt.Errorf("%w: got %v", ErrInvalidVolatility, impliedVol)
	}
	if !(spot > 0) || !(strike > 0) || !(p.TimeToExpiry > 0) {
		return model.OptionGreeks{}, fmt.Errorf("%w: spot=%v strike=%v t=%v", ErrInvalidInput, spot, strike, p.TimeToExpiry)
	}

	S, K, T, r, sigma := spot, strike, p.TimeToExpiry, p.RiskFreeRate, impliedVol
	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	n := distuv.UnitNormal
	pdf := n.Prob(d1)
	discount := math.Exp(-r * T)

	delta := n.CDF(d1)
	gamma := pdf / (S * sigma * sqrtT)
	thetaAnnual := -(S*pdf*sigma)/(2*sqrtT) - r*K*discount*n.CDF(d2)
	vega := S * pdf * sqrtT

	g := model.OptionGreeks{
		Delta:        delta,
		Gamma:        gamma,
		Theta:        thetaAnnual / daysPerYear,
		Vega:         vega / 100,
		Spot:         spot,
		Strike:       strike,
		ImpliedVol:   impliedVol,
		TimeToExpiry: T,
		RiskFreeRate: r,
	}
	for _, v := range []float64{g.Delta, g.Gamma, g.Theta, g.Vega} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return model.OptionGreeks{}, fmt.Errorf("%w: non-finite result", ErrInvalidInput)
		}
	}
	return g, nil
}

// YearsToExpiry converts an expiration date to a year fraction from now.
// Contracts expiring today or earlier get one day so the model stays defined.
func YearsToExpiry(expiration, now time.Time) float64 {
	days := expiration.Sub(now).Hours() / 24
	if days < 1 {
		days = 1
	}
	return days / daysPerYear
}
