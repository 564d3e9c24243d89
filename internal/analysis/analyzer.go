package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"StockLens/internal/calculator"
	"StockLens/internal/commentary"
	"StockLens/internal/config"
	"StockLens/internal/export"
	"StockLens/internal/logging"
	"StockLens/internal/model"
	"StockLens/internal/provider"
	"StockLens/internal/request"
)

const simplifiedNote = "Note: These are simplified calculations and may not reflect real-time market values."

// Commentator turns a prompt into display text.
type Commentator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Input is one user analysis request.
type Input struct {
	Symbol     string `json:"symbol" validate:"required"`
	Range      string `json:"range" validate:"required"`
	Timeframe  string `json:"timeframe" validate:"required"`
	Commentary bool   `json:"commentary"`
}

// Options tune the Greeks section and credential checks.
type Options struct {
	Greeks calculator.GreeksParams
	// UseContractExpiry prices with the selected contract's own expiration
	// instead of Greeks.TimeToExpiry.
	UseContractExpiry bool
	Selection         calculator.Selection
	// MissingCredential names a required credential that is not configured.
	// When set, every analysis fails with ErrMissingInput before any call.
	MissingCredential string
}

// DefaultOptions are the fixed 30-day, 1%, first-listed-call assumptions.
func DefaultOptions() Options {
	return Options{
		Greeks:    calculator.DefaultGreeksParams(),
		Selection: calculator.SelectFirst,
	}
}

// OptionsFromConfig maps the greeks and data_source settings.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		Greeks: calculator.GreeksParams{
			TimeToExpiry: float64(cfg.Greeks.FixedDays) / 365,
			RiskFreeRate: cfg.Greeks.RiskFreeRate,
		},
		UseContractExpiry: cfg.Greeks.ExpiryMode == config.ExpiryContract,
		Selection:         calculator.Selection(cfg.Greeks.ContractSelection),
	}
	if cfg.DataSource.Primary == config.PrimaryPolygon && cfg.DataSource.PolygonAPIKey == "" {
		opts.MissingCredential = "Polygon API key"
	}
	return opts
}

// Analyzer runs one analysis per call. It holds no per-request state.
type Analyzer struct {
	Gateway     provider.Gateway
	ErrorLog    *logging.ErrorLog
	Commentator Commentator
	Options     Options

	validate *validator.Validate
	now      func() time.Time
}

// New creates an Analyzer. A nil errLog discards error lines.
func New(gw provider.Gateway, errLog *logging.ErrorLog, opts Options) *Analyzer {
	if errLog == nil {
		errLog = logging.Discard()
	}
	return &Analyzer{
		Gateway:  gw,
		ErrorLog: errLog,
		Options:  opts,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Prepare validates the input and normalizes it into a history request.
// Errors match ErrMissingInput or request.ErrUnknownLabel.
func (a *Analyzer) Prepare(in Input) (request.HistoryRequest, error) {
	in.Symbol = strings.TrimSpace(in.Symbol)
	if err := a.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return request.HistoryRequest{}, fmt.Errorf("%w: %s is required", ErrMissingInput, strings.ToLower(verrs[0].Field()))
		}
		return request.HistoryRequest{}, fmt.Errorf("%w: %v", ErrMissingInput, err)
	}
	if a.Options.MissingCredential != "" {
		return request.HistoryRequest{}, fmt.Errorf("%w: %s is not configured", ErrMissingInput, a.Options.MissingCredential)
	}
	return request.NewHistoryRequest(in.Symbol, in.Range, in.Timeframe, a.now())
}

// Analyze fetches and derives every report section. Only input errors are
// returned; provider and computation failures degrade their own section.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*model.Report, error) {
	req, err := a.Prepare(in)
	if err != nil {
		return nil, err
	}

	r := &model.Report{
		RunID:     uuid.NewString(),
		Symbol:    req.Symbol,
		DateRange: in.Range,
		Timeframe: in.Timeframe,
		CreatedAt: a.now().UTC(),
	}
	log.Printf("[INFO] run %s: analyzing %s %s..%s every %d %s via %s",
		r.RunID, req.Symbol, req.From(), req.To(), req.Multiplier, req.Unit, a.Gateway.Name())

	r.Details = a.detailsSection(ctx, r.RunID, req.Symbol)
	r.Quote = a.quoteSection(ctx, r.RunID, req.Symbol)
	r.History = a.historySection(ctx, r.RunID, req)
	r.Greeks = a.greeksSection(ctx, r.RunID, req.Symbol, r.Quote.Quote)
	r.Commentary = a.commentarySection(ctx, r.RunID, r, in.Commentary)

	log.Printf("[INFO] run %s: done (details=%s quote=%s history=%s greeks=%s commentary=%s)",
		r.RunID, r.Details.Status, r.Quote.Status, r.History.Status, r.Greeks.Status, r.Commentary.Status)
	return r, nil
}

// History fetches only the historical series, for CSV export.
func (a *Analyzer) History(ctx context.Context, in Input) (*model.Series, error) {
	req, err := a.Prepare(in)
	if err != nil {
		return nil, err
	}
	series, err := a.Gateway.GetHistory(ctx, req)
	if err != nil {
		if Classify(err) == model.FailureProvider {
			a.ErrorLog.Errorf("history", "Error fetching historical data for %s: %v", req.Symbol, err)
		}
		return nil, err
	}
	return series, nil
}

// Search resolves a company name or partial ticker.
func (a *Analyzer) Search(ctx context.Context, query string) (*model.Symbol, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", ErrMissingInput)
	}
	sym, err := a.Gateway.LookupSymbol(ctx, query)
	if err != nil {
		if Classify(err) == model.FailureProvider {
			a.ErrorLog.Errorf("search", "Error searching stock symbol %q: %v", query, err)
		}
		return nil, err
	}
	return sym, nil
}

// failed converts err into a degraded section. Empty results are benign;
// everything else goes to the error log.
func (a *Analyzer) failed(runID, component string, err error, emptyMsg, errMsg string) model.Section {
	kind := Classify(err)
	switch kind {
	case model.FailureEmpty:
		log.Printf("[WARN] run %s: %s: %v", runID, component, err)
		return model.Section{Status: model.StatusUnavailable, Failure: kind, Message: emptyMsg}
	case model.FailureComputation:
		a.ErrorLog.Errorf(component, "run %s: %v", runID, err)
		return model.Section{Status: model.StatusUnavailable, Failure: kind, Message: emptyMsg}
	default:
		a.ErrorLog.Errorf(component, "run %s: %v", runID, err)
		return model.Section{Status: model.StatusError, Failure: kind, Message: errMsg}
	}
}

func ok() model.Section { return model.Section{Status: model.StatusOK} }

func (a *Analyzer) detailsSection(ctx context.Context, runID, symbol string) model.DetailsSection {
	d, err := a.Gateway.GetDetails(ctx, symbol)
	if err != nil {
		return model.DetailsSection{Section: a.failed(runID, "details", err,
			"No details found for symbol: "+symbol, "Error fetching stock details.")}
	}
	return model.DetailsSection{Section: ok(), Details: d}
}

func (a *Analyzer) quoteSection(ctx context.Context, runID, symbol string) model.QuoteSection {
	q, err := a.Gateway.GetQuote(ctx, symbol)
	if err != nil {
		return model.QuoteSection{Section: a.failed(runID, "quote", err,
			"No current quote available for symbol: "+symbol, "Error fetching current quote.")}
	}
	return model.QuoteSection{Section: ok(), Quote: q}
}

func (a *Analyzer) historySection(ctx context.Context, runID string, req request.HistoryRequest) model.HistorySection {
	hs := model.HistorySection{From: req.Start, To: req.End}

	series, err := a.Gateway.GetHistory(ctx, req)
	if err == nil && series.Len() == 0 {
		err = provider.ErrNoData
	}
	if err != nil {
		hs.Section = a.failed(runID, "history", err,
			"No historical data available for symbol: "+req.Symbol, "Error fetching historical data.")
		return hs
	}

	hs.Section = ok()
	hs.Series = series
	hs.CSVFilename = export.Filename(req.Symbol)
	if series.Truncated {
		hs.Message = fmt.Sprintf("Showing the first %d rows; the provider holds more for this range.", series.Len())
		log.Printf("[WARN] run %s: history truncated at %d rows", runID, series.Len())
	}

	if stats, err := calculator.Describe(series.Closes()); err != nil {
		log.Printf("[WARN] run %s: statistics failed: %v", runID, err)
	} else {
		hs.Stats = &stats
	}
	if pr, err := calculator.SeriesRange(series.Bars); err != nil {
		log.Printf("[WARN] run %s: price range failed: %v", runID, err)
	} else {
		hs.Range = &pr
		hs.AxisMin, hs.AxisMax = calculator.AxisBounds(pr)
	}
	hs.Line = calculator.LinePoints(series.Bars)
	hs.Candles = calculator.CandlePoints(series.Bars)
	return hs
}

func (a *Analyzer) greeksSection(ctx context.Context, runID, symbol string, quote *model.Quote) model.GreeksSection {
	const unavailable = "Option Greeks are not available for this stock."
	fail := func(err error) model.GreeksSection {
		return model.GreeksSection{Section: a.failed(runID, "greeks", err, unavailable, "Error fetching option Greeks.")}
	}

	chain, err := a.Gateway.GetOptionChain(ctx, symbol)
	if err != nil {
		return fail(err)
	}
	spot := chain.UnderlyingPrice
	if spot <= 0 && quote != nil {
		spot = quote.Close
	}
	contract, err := calculator.SelectContract(chain, spot, a.Options.Selection)
	if err != nil {
		return fail(err)
	}

	params := a.Options.Greeks
	basis := model.ExpiryFixed
	if a.Options.UseContractExpiry && !contract.Expiration.IsZero() {
		params.TimeToExpiry = calculator.YearsToExpiry(contract.Expiration, a.now())
		basis = model.ExpiryContract
	}
	g, err := calculator.ComputeGreeksWith(spot, contract.Strike, contract.ImpliedVolatility, params)
	if err != nil {
		return fail(fmt.Errorf("%s strike %.2f: %w", symbol, contract.Strike, err))
	}
	g.ExpiryBasis = basis
	g.Expiration = contract.Expiration

	note := simplifiedNote
	if basis == model.ExpiryFixed {
		note += fmt.Sprintf(" Time to expiry is assumed to be %.0f days, not the contract's own expiration.", params.TimeToExpiry*365)
	} else {
		note += fmt.Sprintf(" Time to expiry uses the contract expiration %s.", contract.Expiration.Format(request.DateLayout))
	}
	return model.GreeksSection{Section: ok(), Greeks: &g, Note: note}
}

func (a *Analyzer) commentarySection(ctx context.Context, runID string, r *model.Report, requested bool) model.CommentarySection {
	if !requested {
		return model.CommentarySection{Section: model.Section{Status: model.StatusSkipped}}
	}
	if a.Commentator == nil {
		return model.CommentarySection{Section: model.Section{
			Status:  model.StatusSkipped,
			Failure: model.FailureMissingInput,
			Message: "Commentary is not configured.",
		}}
	}
	prompt := commentary.BuildPrompt(commentary.FromReport(r))
	text, err := a.Commentator.Complete(ctx, prompt)
	if err != nil {
		return model.CommentarySection{Section: a.failed(runID, "commentary", err,
			"No commentary was generated.", "Error generating commentary.")}
	}
	return model.CommentarySection{Section: ok(), Text: text}
}
