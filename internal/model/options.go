package model

import "time"

// OptionType distinguishes calls from puts.
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// OptionContract is one listed contract from a chain.
type OptionContract struct {
	ContractSymbol    string     `json:"contract_symbol,omitempty"`
	Type              OptionType `json:"type"`
	Strike            float64    `json:"strike"`
	Expiration        time.Time  `json:"expiration"`
	ImpliedVolatility float64    `json:"implied_volatility"`
	LastPrice         float64    `json:"last_price,omitempty"`
}

// OptionChain holds the calls for the nearest expiration, in provider order.
type OptionChain struct {
	Underlying      string           `json:"underlying"`
	UnderlyingPrice float64          `json:"underlying_price,omitempty"`
	Expirations     []time.Time      `json:"expirations"`
	Calls           []OptionContract `json:"calls"`
}

// ExpiryBasis records which time-to-expiry the Greeks were computed with.
type ExpiryBasis string

const (
	ExpiryFixed    ExpiryBasis = "fixed-30d"
	ExpiryContract ExpiryBasis = "contract"
)

// OptionGreeks are the Black-Scholes sensitivities of one call option.
type OptionGreeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"` // per calendar day
	Vega  float64 `json:"vega"`  // per volatility point

	Spot         float64     `json:"spot"`
	Strike       float64     `json:"strike"`
	ImpliedVol   float64     `json:"implied_vol"`
	TimeToExpiry float64     `json:"time_to_expiry"` // years
	RiskFreeRate float64     `json:"risk_free_rate"`
	ExpiryBasis  ExpiryBasis `json:"expiry_basis,omitempty"`
	Expiration   time.Time   `json:"expiration,omitempty"`
}
