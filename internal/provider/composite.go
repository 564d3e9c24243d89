package provider

import (
	"context"
	"fmt"

	"StockLens/internal/model"
	"StockLens/internal/request"
)

// Composite routes each capability to its own provider. The dashboard this
// replaces pulled quotes and bars from Polygon and everything else from Yahoo.
type Composite struct {
	Symbols SymbolSearcher
	Quotes  QuoteSource
	History HistorySource
	Details DetailsSource
	Options OptionsSource
}

// NewPolygonYahoo uses Polygon for quotes and history, Yahoo for the rest.
func NewPolygonYahoo(p *PolygonClient, y *YahooClient) *Composite {
	return &Composite{
		Symbols: y,
		Quotes:  p,
		History: p,
		Details: y,
		Options: y,
	}
}

// NewSingle routes every capability to one gateway.
func NewSingle(g Gateway) *Composite {
	return &Composite{Symbols: g, Quotes: g, History: g, Details: g, Options: g}
}

func (c *Composite) Name() string {
	return fmt.Sprintf("quotes=%s history=%s details=%s options=%s",
		sourceName(c.Quotes), sourceName(c.History), sourceName(c.Details), sourceName(c.Options))
}

func sourceName(v interface{}) string {
	if n, ok := v.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "none"
}

func (c *Composite) LookupSymbol(ctx context.Context, query string) (*model.Symbol, error) {
	return c.Symbols.LookupSymbol(ctx, query)
}

func (c *Composite) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	return c.Quotes.GetQuote(ctx, symbol)
}

func (c *Composite) GetHistory(ctx context.Context, req request.HistoryRequest) (*model.Series, error) {
	return c.History.GetHistory(ctx, req)
}

func (c *Composite) GetDetails(ctx context.Context, symbol string) (*model.StockDetails, error) {
	return c.Details.GetDetails(ctx, symbol)
}

func (c *Composite) GetOptionChain(ctx context.Context, symbol string) (*model.OptionChain, error) {
	return c.Options.GetOptionChain(ctx, symbol)
}
