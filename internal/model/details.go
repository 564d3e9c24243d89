package model

// StockDetails is the provider-neutral company record. Zero values mean the
// provider did not report the field.
type StockDetails struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`
	Exchange  string  `json:"exchange,omitempty"`
	PERatio   float64 `json:"pe_ratio,omitempty"`
	Source    string  `json:"source"`
}
