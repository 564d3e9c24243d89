package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockLens/internal/calculator"
	"StockLens/internal/config"
	"StockLens/internal/logging"
	"StockLens/internal/model"
	"StockLens/internal/provider"
	"StockLens/internal/request"
)

var fixedNow = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

type stubCommentator struct {
	prompt string
	text   string
	err    error
}

func (s *stubCommentator) Complete(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

func newTestAnalyzer(gw provider.Gateway) (*Analyzer, *bytes.Buffer) {
	var buf bytes.Buffer
	a := New(gw, logging.New(&buf), DefaultOptions())
	a.now = func() time.Time { return fixedNow }
	return a, &buf
}

func aaplInput() Input {
	return Input{Symbol: "AAPL", Range: "1 Month", Timeframe: "1 Day"}
}

func TestAnalyze_AllSectionsOK(t *testing.T) {
	mock := &provider.Mock{Price: 100}
	a, errLog := newTestAnalyzer(mock)

	r, err := a.Analyze(context.Background(), aaplInput())
	require.NoError(t, err)

	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, "AAPL", r.Symbol)
	assert.True(t, r.Details.OK())
	assert.True(t, r.Quote.OK())
	require.True(t, r.History.OK())
	require.True(t, r.Greeks.OK())
	assert.Equal(t, model.StatusSkipped, r.Commentary.Status)
	assert.Empty(t, errLog.String())

	require.NotNil(t, mock.LastHistory)
	assert.Equal(t, "2024-05-31", mock.LastHistory.From())
	assert.Equal(t, "2024-06-30", mock.LastHistory.To())
	assert.Equal(t, 1, mock.LastHistory.Multiplier)
	assert.Equal(t, request.UnitDay, mock.LastHistory.Unit)
	assert.LessOrEqual(t, r.History.Series.Len(), request.MaxRows)

	assert.Equal(t, "AAPL_historical_data.csv", r.History.CSVFilename)
	require.NotNil(t, r.History.Stats)
	assert.Equal(t, r.History.Series.Len(), r.History.Stats.Count)
	require.NotNil(t, r.History.Range)
	assert.InDelta(t, r.History.Range.Low*0.99, r.History.AxisMin, 1e-9)
	assert.Len(t, r.History.Candles, r.History.Series.Len())

	g := r.Greeks.Greeks
	assert.Equal(t, model.ExpiryFixed, g.ExpiryBasis)
	assert.InDelta(t, 30.0/365, g.TimeToExpiry, 1e-12)
	assert.InDelta(t, 0.5172, g.Delta, 1e-4)
	assert.Contains(t, r.Greeks.Note, "simplified calculations")
	assert.Contains(t, r.Greeks.Note, "30 days")
}

func TestAnalyze_NoDataIsUnavailable(t *testing.T) {
	mock := &provider.Mock{
		Price:      100,
		DetailsErr: provider.ErrNoData,
		QuoteErr:   provider.ErrNoData,
		HistoryErr: provider.ErrNoData,
		OptionsErr: provider.ErrNoData,
	}
	a, errLog := newTestAnalyzer(mock)

	r, err := a.Analyze(context.Background(), aaplInput())
	require.NoError(t, err)

	for name, s := range map[string]model.Section{
		"details": r.Details.Section,
		"quote":   r.Quote.Section,
		"history": r.History.Section,
		"greeks":  r.Greeks.Section,
	} {
		assert.Equal(t, model.StatusUnavailable, s.Status, name)
		assert.Equal(t, model.FailureEmpty, s.Failure, name)
		assert.NotEmpty(t, s.Message, name)
	}
	assert.Equal(t, "No historical data available for symbol: AAPL", r.History.Message)
	assert.Equal(t, "Option Greeks are not available for this stock.", r.Greeks.Message)
	assert.Empty(t, errLog.String(), "explicit-empty is not an error")
}

func TestAnalyze_ProviderErrorDegradesOneSection(t *testing.T) {
	mock := &provider.Mock{Price: 100, QuoteErr: errors.New("polygon previous close: status 500")}
	a, errLog := newTestAnalyzer(mock)

	r, err := a.Analyze(context.Background(), aaplInput())
	require.NoError(t, err)

	assert.Equal(t, model.StatusError, r.Quote.Status)
	assert.Equal(t, model.FailureProvider, r.Quote.Failure)
	assert.Equal(t, "Error fetching current quote.", r.Quote.Message)
	assert.NotContains(t, r.Quote.Message, "status 500", "raw provider errors stay in the log")
	assert.True(t, r.Details.OK())
	assert.True(t, r.History.OK())
	assert.True(t, r.Greeks.OK(), "spot comes from the chain, not the quote")

	assert.Contains(t, errLog.String(), " - quote - ERROR - run "+r.RunID)
	assert.Contains(t, errLog.String(), "status 500")
}

func TestAnalyze_MissingInput(t *testing.T) {
	mock := &provider.Mock{Price: 100}
	a, _ := newTestAnalyzer(mock)

	_, err := a.Analyze(context.Background(), Input{Symbol: "   ", Range: "1 Month", Timeframe: "1 Day"})
	require.ErrorIs(t, err, ErrMissingInput)
	assert.Contains(t, err.Error(), "symbol is required")
	assert.Nil(t, mock.LastHistory, "no network call before validation")

	a.Options.MissingCredential = "Polygon API key"
	_, err = a.Analyze(context.Background(), aaplInput())
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.Equal(t, model.FailureMissingInput, Classify(err))
}

func TestAnalyze_UnknownLabel(t *testing.T) {
	a, _ := newTestAnalyzer(&provider.Mock{Price: 100})

	_, err := a.Analyze(context.Background(), Input{Symbol: "AAPL", Range: "2 Weeks", Timeframe: "1 Day"})
	require.ErrorIs(t, err, request.ErrUnknownLabel)
	assert.Equal(t, model.FailureMissingInput, Classify(err))
}

func TestAnalyze_GreeksContractExpiry(t *testing.T) {
	exp := fixedNow.AddDate(0, 0, 73)
	mock := &provider.Mock{
		Price: 100,
		Chain: &model.OptionChain{
			Underlying:      "AAPL",
			UnderlyingPrice: 100,
			Expirations:     []time.Time{exp},
			Calls: []model.OptionContract{
				{Type: model.OptionCall, Strike: 60, Expiration: exp, ImpliedVolatility: 0.5},
				{Type: model.OptionCall, Strike: 100, Expiration: exp, ImpliedVolatility: 0.25},
			},
		},
	}
	a, _ := newTestAnalyzer(mock)
	a.Options.UseContractExpiry = true
	a.Options.Selection = calculator.SelectATM

	r, err := a.Analyze(context.Background(), aaplInput())
	require.NoError(t, err)
	require.True(t, r.Greeks.OK())

	g := r.Greeks.Greeks
	assert.Equal(t, model.ExpiryContract, g.ExpiryBasis)
	assert.InDelta(t, 73.0/365, g.TimeToExpiry, 1e-9)
	assert.Equal(t, 100.0, g.Strike)
	assert.Equal(t, 0.25, g.ImpliedVol)
	assert.Contains(t, r.Greeks.Note, exp.Format("2006-01-02"))
}

func TestAnalyze_ZeroVolatilityIsComputationFailure(t *testing.T) {
	for _, iv := range []float64{0, math.NaN()} {
		t.Run(fmt.Sprint(iv), func(t *testing.T) {
			exp := fixedNow.AddDate(0, 0, 30)
			mock := &provider.Mock{
				Price: 100,
				Chain: &model.OptionChain{
					UnderlyingPrice: 100,
					Expirations:     []time.Time{exp},
					Calls:           []model.OptionContract{{Type: model.OptionCall, Strike: 100, Expiration: exp, ImpliedVolatility: iv}},
				},
			}
			a, errLog := newTestAnalyzer(mock)

			r, err := a.Analyze(context.Background(), aaplInput())
			require.NoError(t, err)
			assert.Equal(t, model.StatusUnavailable, r.Greeks.Status)
			assert.Equal(t, model.FailureComputation, r.Greeks.Failure)
			assert.Nil(t, r.Greeks.Greeks)
			assert.Contains(t, errLog.String(), "greeks")
		})
	}
}

func TestAnalyze_SpotFallsBackToQuote(t *testing.T) {
	exp := fixedNow.AddDate(0, 0, 30)
	mock := &provider.Mock{
		Price: 100,
		Quote: &model.Quote{Symbol: "AAPL", Close: 100},
		Chain: &model.OptionChain{
			Expirations: []time.Time{exp},
			Calls:       []model.OptionContract{{Type: model.OptionCall, Strike: 100, Expiration: exp, ImpliedVolatility: 0.2}},
		},
	}
	a, _ := newTestAnalyzer(mock)

	r, err := a.Analyze(context.Background(), aaplInput())
	require.NoError(t, err)
	require.True(t, r.Greeks.OK())
	assert.Equal(t, 100.0, r.Greeks.Greeks.Spot)
}

func TestAnalyze_TruncatedHistory(t *testing.T) {
	a, _ := newTestAnalyzer(truncatingGateway{&provider.Mock{Price: 50}})

	r, err := a.Analyze(context.Background(), aaplInput())
	require.NoError(t, err)
	assert.True(t, r.History.OK())
	assert.Contains(t, r.History.Message, "provider holds more")
}

type truncatingGateway struct{ *provider.Mock }

func (g truncatingGateway) GetHistory(ctx context.Context, req request.HistoryRequest) (*model.Series, error) {
	s, err := g.Mock.GetHistory(ctx, req)
	if err == nil {
		s.Truncated = true
	}
	return s, err
}

func TestAnalyze_Commentary(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		a, _ := newTestAnalyzer(&provider.Mock{Price: 100, Details: &model.StockDetails{Symbol: "AAPL", PERatio: 29.5}})
		stub := &stubCommentator{text: "Steady uptrend."}
		a.Commentator = stub

		in := aaplInput()
		in.Commentary = true
		r, err := a.Analyze(context.Background(), in)
		require.NoError(t, err)

		assert.True(t, r.Commentary.OK())
		assert.Equal(t, "Steady uptrend.", r.Commentary.Text)
		assert.Contains(t, stub.prompt, "AAPL")
		assert.Contains(t, stub.prompt, "P/E ratio: 29.50")
		assert.Contains(t, stub.prompt, "delta")
	})
	t.Run("not configured", func(t *testing.T) {
		a, _ := newTestAnalyzer(&provider.Mock{Price: 100})

		in := aaplInput()
		in.Commentary = true
		r, err := a.Analyze(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, model.StatusSkipped, r.Commentary.Status)
		assert.Equal(t, model.FailureMissingInput, r.Commentary.Failure)
	})
	t.Run("backend error", func(t *testing.T) {
		a, errLog := newTestAnalyzer(&provider.Mock{Price: 100})
		a.Commentator = &stubCommentator{err: errors.New("completion API status 429")}

		in := aaplInput()
		in.Commentary = true
		r, err := a.Analyze(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, model.StatusError, r.Commentary.Status)
		assert.Contains(t, errLog.String(), "429")
	})
}

func TestSearch(t *testing.T) {
	a, errLog := newTestAnalyzer(&provider.Mock{Symbol: &model.Symbol{Ticker: "AAPL", Name: "Apple Inc."}})

	sym, err := a.Search(context.Background(), " apple ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", sym.Ticker)

	_, err = a.Search(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingInput)

	a.Gateway = &provider.Mock{LookupErr: errors.New("dial tcp: timeout")}
	_, err = a.Search(context.Background(), "apple")
	assert.Error(t, err)
	assert.True(t, strings.Contains(errLog.String(), " - search - ERROR - "))
}

func TestHistory(t *testing.T) {
	a, _ := newTestAnalyzer(&provider.Mock{Price: 10})

	s, err := a.History(context.Background(), aaplInput())
	require.NoError(t, err)
	assert.Equal(t, "AAPL", s.Symbol)

	a.Gateway = &provider.Mock{HistoryErr: provider.ErrNoData}
	_, err = a.History(context.Background(), aaplInput())
	assert.ErrorIs(t, err, provider.ErrNoData)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want model.FailureKind
	}{
		{nil, model.FailureNone},
		{fmt.Errorf("wrap: %w", provider.ErrNoData), model.FailureEmpty},
		{calculator.ErrNoContracts, model.FailureEmpty},
		{fmt.Errorf("x: %w", calculator.ErrInvalidVolatility), model.FailureComputation},
		{&request.UnknownLabelError{Kind: "date range", Label: "x"}, model.FailureMissingInput},
		{ErrMissingInput, model.FailureMissingInput},
		{errors.New("connection reset"), model.FailureProvider},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), "%v", tt.err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.DataSource.Primary = config.PrimaryPolygon
	cfg.Greeks.FixedDays = 30
	cfg.Greeks.RiskFreeRate = 0.02
	cfg.Greeks.ExpiryMode = config.ExpiryContract
	cfg.Greeks.ContractSelection = config.SelectATM

	opts := OptionsFromConfig(cfg)
	assert.InDelta(t, 30.0/365, opts.Greeks.TimeToExpiry, 1e-12)
	assert.Equal(t, 0.02, opts.Greeks.RiskFreeRate)
	assert.True(t, opts.UseContractExpiry)
	assert.Equal(t, calculator.SelectATM, opts.Selection)
	assert.Equal(t, "Polygon API key", opts.MissingCredential)

	cfg.DataSource.PolygonAPIKey = "pk"
	assert.Empty(t, OptionsFromConfig(cfg).MissingCredential)
}
