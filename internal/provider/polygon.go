package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"StockLens/internal/model"
	"StockLens/internal/request"
)

// DefaultPolygonBaseURL is the public Polygon.io REST root.
const DefaultPolygonBaseURL = "https://api.polygon.io"

// PolygonClient implements Gateway using the Polygon.io REST API.
type PolygonClient struct {
	BaseURL string
	APIKey  string
	// MaxPages bounds how many next_url pages GetHistory follows. 1 means a
	// single call, the remainder being reported through Series.Truncated.
	MaxPages int
	Client   *http.Client
}

// NewPolygonClient creates a client with optional proxy support.
func NewPolygonClient(baseURL, apiKey, proxyURL string, maxPages int) *PolygonClient {
	if baseURL == "" {
		baseURL = DefaultPolygonBaseURL
	}
	if maxPages < 1 {
		maxPages = 1
	}
	return &PolygonClient{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		APIKey:   apiKey,
		MaxPages: maxPages,
		Client:   newHTTPClient(proxyURL),
	}
}

func (p *PolygonClient) Name() string { return "polygon" }

// polygonAgg is one aggregate in a Polygon aggs response.
type polygonAgg struct {
	Ticker       string  `json:"T"`
	Timestamp    int64   `json:"t"`
	Open         float64 `json:"o"`
	High         float64 `json:"h"`
	Low          float64 `json:"l"`
	Close        float64 `json:"c"`
	Volume       float64 `json:"v"`
	VWAP         float64 `json:"vw"`
	Transactions int64   `json:"n"`
}

type polygonAggsResponse struct {
	Ticker       string       `json:"ticker"`
	Status       string       `json:"status"`
	ResultsCount int          `json:"resultsCount"`
	Results      []polygonAgg `json:"results"`
	NextURL      string       `json:"next_url"`
	Error        string       `json:"error"`
}

func (p *PolygonClient) header() http.Header {
	h := http.Header{}
	if p.APIKey != "" {
		h.Set("Authorization", "Bearer "+p.APIKey)
	}
	return h
}

// LookupSymbol returns the first active stock whose ticker or name matches query.
func (p *PolygonClient) LookupSymbol(ctx context.Context, query string) (*model.Symbol, error) {
	q := url.Values{}
	q.Set("search", query)
	q.Set("active", "true")
	q.Set("market", "stocks")
	q.Set("limit", "1")
	endpoint := fmt.Sprintf("%s/v3/reference/tickers?%s", p.BaseURL, q.Encode())

	var resp struct {
		Results []struct {
			Ticker string `json:"ticker"`
			Name   string `json:"name"`
		} `json:"results"`
	}
	if err := getJSON(ctx, p.Client, endpoint, p.header(), &resp); err != nil {
		return nil, errors.Wrap(err, "polygon ticker search")
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoData
	}
	r := resp.Results[0]
	return &model.Symbol{Ticker: r.Ticker, Name: r.Name, Source: p.Name()}, nil
}

// GetQuote returns the previous session's aggregate.
func (p *PolygonClient) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?adjusted=true", p.BaseURL, url.PathEscape(symbol))

	var resp polygonAggsResponse
	if err := getJSON(ctx, p.Client, endpoint, p.header(), &resp); err != nil {
		return nil, errors.Wrap(err, "polygon previous close")
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoData
	}
	a := resp.Results[0]
	return &model.Quote{
		Symbol: symbol,
		Time:   time.UnixMilli(a.Timestamp).UTC(),
		Open:   a.Open,
		High:   a.High,
		Low:    a.Low,
		Close:  a.Close,
		Volume: a.Volume,
	}, nil
}

// GetHistory fetches aggregates for the normalized request.
func (p *PolygonClient) GetHistory(ctx context.Context, req request.HistoryRequest) (*model.Series, error) {
	limit := req.Limit
	if limit <= 0 || limit > request.MaxRows {
		limit = request.MaxRows
	}
	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/%s/%s/%s?adjusted=true&sort=asc&limit=%d",
		p.BaseURL, url.PathEscape(req.Symbol), req.Multiplier, req.Unit, req.From(), req.To(), limit)

	series := &model.Series{
		Symbol:     req.Symbol,
		Multiplier: req.Multiplier,
		Unit:       string(req.Unit),
		FetchedAt:  time.Now().UTC(),
	}
	for page := 0; endpoint != ""; page++ {
		if page == p.MaxPages {
			series.Truncated = true
			break
		}
		var resp polygonAggsResponse
		if err := getJSON(ctx, p.Client, endpoint, p.header(), &resp); err != nil {
			return nil, errors.Wrapf(err, "polygon aggregates page %d", page+1)
		}
		if resp.Status == "ERROR" {
			return nil, errors.Errorf("polygon aggregates: %s", resp.Error)
		}
		for _, a := range resp.Results {
			series.Bars = append(series.Bars, model.Bar{
				Timestamp:    a.Timestamp,
				Open:         a.Open,
				High:         a.High,
				Low:          a.Low,
				Close:        a.Close,
				Volume:       a.Volume,
				VWAP:         a.VWAP,
				Transactions: a.Transactions,
			})
		}
		endpoint = resp.NextURL
	}
	if len(series.Bars) == 0 {
		return nil, ErrNoData
	}
	sort.SliceStable(series.Bars, func(i, j int) bool { return series.Bars[i].Timestamp < series.Bars[j].Timestamp })
	return series, nil
}

// polygonTickerDetails is the /v3/reference/tickers/{ticker} payload.
type polygonTickerDetails struct {
	Results struct {
		Ticker          string  `json:"ticker"`
		Name            string  `json:"name"`
		MarketCap       float64 `json:"market_cap"`
		PrimaryExchange string  `json:"primary_exchange"`
	} `json:"results"`
}

// GetDetails returns company details. Polygon reports no P/E.
func (p *PolygonClient) GetDetails(ctx context.Context, symbol string) (*model.StockDetails, error) {
	endpoint := fmt.Sprintf("%s/v3/reference/tickers/%s", p.BaseURL, url.PathEscape(symbol))

	var resp polygonTickerDetails
	if err := getJSON(ctx, p.Client, endpoint, p.header(), &resp); err != nil {
		return nil, errors.Wrap(err, "polygon ticker details")
	}
	return adaptPolygonDetails(symbol, &resp)
}

func adaptPolygonDetails(symbol string, d *polygonTickerDetails) (*model.StockDetails, error) {
	if d.Results.Ticker == "" && d.Results.Name == "" {
		return nil, ErrNoData
	}
	ticker := d.Results.Ticker
	if ticker == "" {
		ticker = symbol
	}
	return &model.StockDetails{
		Symbol:    ticker,
		Name:      d.Results.Name,
		MarketCap: d.Results.MarketCap,
		Exchange:  d.Results.PrimaryExchange,
		Source:    "polygon",
	}, nil
}

type polygonOptionSnapshot struct {
	Results []struct {
		Details struct {
			ContractType   string  `json:"contract_type"`
			ExpirationDate string  `json:"expiration_date"`
			StrikePrice    float64 `json:"strike_price"`
			Ticker         string  `json:"ticker"`
		} `json:"details"`
		Day struct {
			Close float64 `json:"close"`
		} `json:"day"`
		ImpliedVolatility float64 `json:"implied_volatility"`
		UnderlyingAsset   struct {
			Price float64 `json:"price"`
		} `json:"underlying_asset"`
	} `json:"results"`
}

// GetOptionChain returns calls of the nearest expiration from the options snapshot.
func (p *PolygonClient) GetOptionChain(ctx context.Context, symbol string) (*model.OptionChain, error) {
	endpoint := fmt.Sprintf("%s/v3/snapshot/options/%s?contract_type=call&sort=expiration_date&order=asc&limit=250",
		p.BaseURL, url.PathEscape(symbol))

	var resp polygonOptionSnapshot
	if err := getJSON(ctx, p.Client, endpoint, p.header(), &resp); err != nil {
		return nil, errors.Wrap(err, "polygon options snapshot")
	}

	chain := &model.OptionChain{Underlying: symbol}
	byExpiry := map[time.Time][]model.OptionContract{}
	for _, r := range resp.Results {
		if r.Details.ContractType != "" && r.Details.ContractType != string(model.OptionCall) {
			continue
		}
		exp, err := time.Parse(request.DateLayout, r.Details.ExpirationDate)
		if err != nil {
			continue
		}
		if chain.UnderlyingPrice == 0 {
			chain.UnderlyingPrice = r.UnderlyingAsset.Price
		}
		if _, seen := byExpiry[exp]; !seen {
			chain.Expirations = append(chain.Expirations, exp)
		}
		byExpiry[exp] = append(byExpiry[exp], model.OptionContract{
			ContractSymbol:    r.Details.Ticker,
			Type:              model.OptionCall,
			Strike:            r.Details.StrikePrice,
			Expiration:        exp,
			ImpliedVolatility: r.ImpliedVolatility,
			LastPrice:         r.Day.Close,
		})
	}
	if len(chain.Expirations) == 0 {
		return nil, ErrNoData
	}
	sort.Slice(chain.Expirations, func(i, j int) bool { return chain.Expirations[i].Before(chain.Expirations[j]) })
	chain.Calls = byExpiry[chain.Expirations[0]]
	sort.SliceStable(chain.Calls, func(i, j int) bool { return chain.Calls[i].Strike < chain.Calls[j].Strike })
	return chain, nil
}
