package provider

import (
	"context"
	"time"

	"StockLens/internal/model"
	"StockLens/internal/request"
)

// Mock returns controllable fixed data for development and testing. A nil
// field falls back to generated data; a non-nil *Err field is returned as is.
type Mock struct {
	Price   float64
	Symbol  *model.Symbol
	Quote   *model.Quote
	Bars    []model.Bar
	Details *model.StockDetails
	Chain   *model.OptionChain

	LookupErr  error
	QuoteErr   error
	HistoryErr error
	DetailsErr error
	OptionsErr error

	// LastHistory records the most recent history request.
	LastHistory *request.HistoryRequest
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) LookupSymbol(_ context.Context, query string) (*model.Symbol, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	if m.Symbol != nil {
		return m.Symbol, nil
	}
	return &model.Symbol{Ticker: query, Source: m.Name()}, nil
}

func (m *Mock) GetQuote(_ context.Context, symbol string) (*model.Quote, error) {
	if m.QuoteErr != nil {
		return nil, m.QuoteErr
	}
	if m.Quote != nil {
		return m.Quote, nil
	}
	p := m.Price
	return &model.Quote{Symbol: symbol, Time: time.Now().UTC(), Open: p * 0.999, High: p * 1.005, Low: p * 0.995, Close: p, Volume: 1000000}, nil
}

func (m *Mock) GetHistory(_ context.Context, req request.HistoryRequest) (*model.Series, error) {
	m.LastHistory = &req
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	bars := m.Bars
	if bars == nil {
		bars = generateMockBars(m.Price, req)
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	return &model.Series{
		Symbol:     req.Symbol,
		Multiplier: req.Multiplier,
		Unit:       string(req.Unit),
		Bars:       bars,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

func (m *Mock) GetDetails(_ context.Context, symbol string) (*model.StockDetails, error) {
	if m.DetailsErr != nil {
		return nil, m.DetailsErr
	}
	if m.Details != nil {
		return m.Details, nil
	}
	return &model.StockDetails{Symbol: symbol, Name: symbol + " Inc.", Source: m.Name()}, nil
}

func (m *Mock) GetOptionChain(_ context.Context, symbol string) (*model.OptionChain, error) {
	if m.OptionsErr != nil {
		return nil, m.OptionsErr
	}
	if m.Chain != nil {
		return m.Chain, nil
	}
	exp := time.Now().UTC().AddDate(0, 0, 30)
	return &model.OptionChain{
		Underlying:      symbol,
		UnderlyingPrice: m.Price,
		Expirations:     []time.Time{exp},
		Calls: []model.OptionContract{
			{Type: model.OptionCall, Strike: m.Price, Expiration: exp, ImpliedVolatility: 0.2},
		},
	}, nil
}

func generateMockBars(basePrice float64, req request.HistoryRequest) []model.Bar {
	count := req.EstimatedRows()
	if count > 500 {
		count = 500
	}
	step := req.BucketDuration()
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Timestamp: req.Start.Add(time.Duration(i) * step).UnixMilli(),
			Open:      p * 0.999,
			High:      p * 1.005,
			Low:       p * 0.995,
			Close:     p,
			Volume:    1000000,
		}
	}
	return bars
}
