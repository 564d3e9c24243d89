package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"StockLens/internal/model"
	"StockLens/internal/request"
)

const (
	// DefaultYahooBaseURL is the public Yahoo Finance query host.
	DefaultYahooBaseURL = "https://query1.finance.yahoo.com"
	// DefaultYahooCookieURL hands out the session cookie the crumb is bound to.
	DefaultYahooCookieURL = "https://fc.yahoo.com"
)

// YahooClient implements Gateway using Yahoo Finance public endpoints.
// quoteSummary and options calls carry a crumb tied to a session cookie;
// chart and search calls do not need one.
type YahooClient struct {
	BaseURL   string
	CookieURL string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker

	mu    sync.Mutex
	crumb string
}

// NewYahooClient creates a new Yahoo Finance client.
func NewYahooClient(baseURL, proxyURL string) *YahooClient {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	client := newHTTPClient(proxyURL)
	// cookiejar.New only fails on a bad PublicSuffixList, and none is given.
	client.Jar, _ = cookiejar.New(nil)
	return &YahooClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		CookieURL: DefaultYahooCookieURL,
		Client:    client,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (y *YahooClient) Name() string { return "yahoo" }

func (y *YahooClient) yahooSymbol(symbol string) string {
	if mapped, ok := y.SymbolMap[strings.ToUpper(symbol)]; ok {
		return mapped
	}
	return symbol
}

func (y *YahooClient) header() http.Header {
	h := http.Header{}
	h.Set("User-Agent", "Mozilla/5.0")
	return h
}

// getCrumb returns the cached crumb, running the cookie handshake first if
// there is none. The cookie endpoint answers 404 while still setting the
// cookie, so its status is ignored.
func (y *YahooClient) getCrumb(ctx context.Context) (string, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.crumb != "" {
		return y.crumb, nil
	}

	if _, err := fetch(ctx, y.Client, y.CookieURL, y.header()); err != nil {
		var se *statusError
		if !errors.Is(err, ErrNoData) && !errors.As(err, &se) {
			return "", errors.Wrap(err, "yahoo session cookie")
		}
	}
	body, err := fetch(ctx, y.Client, y.BaseURL+"/v1/test/getcrumb", y.header())
	if err != nil {
		return "", errors.Wrap(err, "yahoo crumb")
	}
	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.ContainsAny(crumb, "<{ ") {
		return "", errors.Errorf("yahoo crumb: unexpected response %q", truncate(crumb, 64))
	}
	y.crumb = crumb
	return crumb, nil
}

func (y *YahooClient) dropCrumb(stale string) {
	y.mu.Lock()
	if y.crumb == stale {
		y.crumb = ""
	}
	y.mu.Unlock()
}

// getWithCrumb decodes endpoint with the session crumb appended. A 401 means
// the crumb expired; it is refreshed once and the call retried.
func (y *YahooClient) getWithCrumb(ctx context.Context, endpoint string, out interface{}) error {
	for attempt := 0; ; attempt++ {
		crumb, err := y.getCrumb(ctx)
		if err != nil {
			return err
		}
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		err = getJSON(ctx, y.Client, endpoint+sep+"crumb="+url.QueryEscape(crumb), y.header(), out)
		if err == nil || attempt > 0 || !isUnauthorized(err) {
			return err
		}
		y.dropCrumb(crumb)
	}
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func at(vals []interface{}, i int) float64 {
	if i >= len(vals) {
		return 0
	}
	return toFloat(vals[i])
}

// yahooInterval maps a granularity to a chart interval.
func yahooInterval(multiplier int, unit request.Unit) (string, error) {
	switch unit {
	case request.UnitMinute:
		switch multiplier {
		case 1, 2, 5, 15, 30, 60, 90:
			return fmt.Sprintf("%dm", multiplier), nil
		}
	case request.UnitHour:
		if multiplier == 1 {
			return "1h", nil
		}
	case request.UnitDay:
		if multiplier == 1 {
			return "1d", nil
		}
	}
	return "", errors.Errorf("yahoo: unsupported granularity %d %s", multiplier, unit)
}

func (y *YahooClient) fetchChart(ctx context.Context, symbol string, q url.Values) ([]model.Bar, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.BaseURL, url.PathEscape(y.yahooSymbol(symbol)), q.Encode())

	var chart yahooChart
	if err := getJSON(ctx, y.Client, endpoint, y.header(), &chart); err != nil {
		return nil, errors.Wrap(err, "yahoo chart")
	}
	if chart.Chart.Error != nil {
		return nil, errors.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrNoData
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := at(quote.Open, i)
		h := at(quote.High, i)
		l := at(quote.Low, i)
		c := at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.Bar{
			Timestamp: ts * 1000,
			Open:      o,
			High:      h,
			Low:       l,
			Close:     c,
			Volume:    at(quote.Volume, i),
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp < bars[j].Timestamp })
	return bars, nil
}

// GetHistory fetches chart bars between req.Start and req.End.
func (y *YahooClient) GetHistory(ctx context.Context, req request.HistoryRequest) (*model.Series, error) {
	interval, err := yahooInterval(req.Multiplier, req.Unit)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("interval", interval)
	q.Set("period1", fmt.Sprint(req.Start.Unix()))
	q.Set("period2", fmt.Sprint(req.End.Unix()))

	bars, err := y.fetchChart(ctx, req.Symbol, q)
	if err != nil {
		return nil, err
	}
	series := &model.Series{
		Symbol:     req.Symbol,
		Multiplier: req.Multiplier,
		Unit:       string(req.Unit),
		FetchedAt:  time.Now().UTC(),
	}
	limit := req.Limit
	if limit <= 0 || limit > request.MaxRows {
		limit = request.MaxRows
	}
	if len(bars) > limit {
		bars = bars[:limit]
		series.Truncated = true
	}
	series.Bars = bars
	return series, nil
}

// GetQuote returns the last completed daily bar.
func (y *YahooClient) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", "5d")
	bars, err := y.fetchChart(ctx, symbol, q)
	if err != nil {
		return nil, err
	}
	last := bars[len(bars)-1]
	return &model.Quote{
		Symbol: symbol,
		Time:   last.Date(),
		Open:   last.Open,
		High:   last.High,
		Low:    last.Low,
		Close:  last.Close,
		Volume: last.Volume,
	}, nil
}

// LookupSymbol returns the best search match for query.
func (y *YahooClient) LookupSymbol(ctx context.Context, query string) (*model.Symbol, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("quotesCount", "1")
	q.Set("newsCount", "0")
	endpoint := fmt.Sprintf("%s/v1/finance/search?%s", y.BaseURL, q.Encode())

	var resp struct {
		Quotes []struct {
			Symbol    string `json:"symbol"`
			ShortName string `json:"shortname"`
			LongName  string `json:"longname"`
		} `json:"quotes"`
	}
	if err := getJSON(ctx, y.Client, endpoint, y.header(), &resp); err != nil {
		return nil, errors.Wrap(err, "yahoo search")
	}
	if len(resp.Quotes) == 0 || resp.Quotes[0].Symbol == "" {
		return nil, ErrNoData
	}
	r := resp.Quotes[0]
	name := r.LongName
	if name == "" {
		name = r.ShortName
	}
	return &model.Symbol{Ticker: r.Symbol, Name: name, Source: y.Name()}, nil
}

// yahooRaw is Yahoo's {"raw": 1.0, "fmt": "1.00"} number wrapper.
type yahooRaw struct {
	Raw float64 `json:"raw"`
}

type yahooQuoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				Symbol       string   `json:"symbol"`
				LongName     string   `json:"longName"`
				ShortName    string   `json:"shortName"`
				ExchangeName string   `json:"exchangeName"`
				Exchange     string   `json:"exchange"`
				MarketCap    yahooRaw `json:"marketCap"`
			} `json:"price"`
			SummaryDetail struct {
				TrailingPE yahooRaw `json:"trailingPE"`
				MarketCap  yahooRaw `json:"marketCap"`
			} `json:"summaryDetail"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

// GetDetails returns company details from the quoteSummary price and summaryDetail modules.
func (y *YahooClient) GetDetails(ctx context.Context, symbol string) (*model.StockDetails, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price,summaryDetail",
		y.BaseURL, url.PathEscape(y.yahooSymbol(symbol)))

	var resp yahooQuoteSummary
	if err := y.getWithCrumb(ctx, endpoint, &resp); err != nil {
		return nil, errors.Wrap(err, "yahoo quote summary")
	}
	return adaptYahooDetails(symbol, &resp)
}

func adaptYahooDetails(symbol string, s *yahooQuoteSummary) (*model.StockDetails, error) {
	if s.QuoteSummary.Error != nil {
		return nil, errors.Errorf("yahoo api error: %s", s.QuoteSummary.Error.Description)
	}
	if len(s.QuoteSummary.Result) == 0 {
		return nil, ErrNoData
	}
	r := s.QuoteSummary.Result[0]
	d := &model.StockDetails{
		Symbol:    r.Price.Symbol,
		Name:      r.Price.LongName,
		MarketCap: r.Price.MarketCap.Raw,
		Exchange:  r.Price.ExchangeName,
		PERatio:   r.SummaryDetail.TrailingPE.Raw,
		Source:    "yahoo",
	}
	if d.Symbol == "" {
		d.Symbol = symbol
	}
	if d.Name == "" {
		d.Name = r.Price.ShortName
	}
	if d.MarketCap == 0 {
		d.MarketCap = r.SummaryDetail.MarketCap.Raw
	}
	if d.Exchange == "" {
		d.Exchange = r.Price.Exchange
	}
	if d.Name == "" && d.MarketCap == 0 && d.Exchange == "" {
		return nil, ErrNoData
	}
	return d, nil
}

type yahooOptions struct {
	OptionChain struct {
		Result []struct {
			UnderlyingSymbol string  `json:"underlyingSymbol"`
			ExpirationDates  []int64 `json:"expirationDates"`
			Quote            struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"quote"`
			Options []struct {
				ExpirationDate int64 `json:"expirationDate"`
				Calls          []struct {
					ContractSymbol    string  `json:"contractSymbol"`
					Strike            float64 `json:"strike"`
					LastPrice         float64 `json:"lastPrice"`
					ImpliedVolatility float64 `json:"impliedVolatility"`
					Expiration        int64   `json:"expiration"`
				} `json:"calls"`
			} `json:"options"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"optionChain"`
}

// GetOptionChain returns the calls listed for the first expiration.
func (y *YahooClient) GetOptionChain(ctx context.Context, symbol string) (*model.OptionChain, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/options/%s", y.BaseURL, url.PathEscape(y.yahooSymbol(symbol)))

	var resp yahooOptions
	if err := y.getWithCrumb(ctx, endpoint, &resp); err != nil {
		return nil, errors.Wrap(err, "yahoo options")
	}
	if resp.OptionChain.Error != nil {
		return nil, errors.Errorf("yahoo api error: %s", resp.OptionChain.Error.Description)
	}
	if len(resp.OptionChain.Result) == 0 || len(resp.OptionChain.Result[0].ExpirationDates) == 0 {
		return nil, ErrNoData
	}
	r := resp.OptionChain.Result[0]
	chain := &model.OptionChain{
		Underlying:      symbol,
		UnderlyingPrice: r.Quote.RegularMarketPrice,
	}
	for _, e := range r.ExpirationDates {
		chain.Expirations = append(chain.Expirations, unixTime(e))
	}
	if len(r.Options) == 0 {
		return nil, ErrNoData
	}
	first := r.Options[0]
	for _, c := range first.Calls {
		exp := c.Expiration
		if exp == 0 {
			exp = first.ExpirationDate
		}
		chain.Calls = append(chain.Calls, model.OptionContract{
			ContractSymbol:    c.ContractSymbol,
			Type:              model.OptionCall,
			Strike:            c.Strike,
			Expiration:        unixTime(exp),
			ImpliedVolatility: c.ImpliedVolatility,
			LastPrice:         c.LastPrice,
		})
	}
	if len(chain.Calls) == 0 {
		return nil, ErrNoData
	}
	return chain, nil
}
