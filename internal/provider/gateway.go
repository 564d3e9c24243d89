package provider

import (
	"context"
	"errors"
	"time"

	"StockLens/internal/model"
	"StockLens/internal/request"
)

// ErrNoData is returned when the provider answered but had nothing for the query.
var ErrNoData = errors.New("no data")

// SymbolSearcher resolves a free-text query to a ticker.
type SymbolSearcher interface {
	LookupSymbol(ctx context.Context, query string) (*model.Symbol, error)
}

// QuoteSource returns the latest completed session.
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (*model.Quote, error)
}

// HistorySource returns historical aggregates, at most req.Limit rows per call.
type HistorySource interface {
	GetHistory(ctx context.Context, req request.HistoryRequest) (*model.Series, error)
}

// DetailsSource returns normalized company details.
type DetailsSource interface {
	GetDetails(ctx context.Context, symbol string) (*model.StockDetails, error)
}

// OptionsSource returns the call chain for the nearest expiration.
type OptionsSource interface {
	GetOptionChain(ctx context.Context, symbol string) (*model.OptionChain, error)
}

// Gateway bundles every capability the analyzer consumes.
type Gateway interface {
	SymbolSearcher
	QuoteSource
	HistorySource
	DetailsSource
	OptionsSource
	Name() string
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
