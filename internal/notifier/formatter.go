package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"StockLens/internal/model"
)

// Style selects Telegram HTML or plain console text.
type Style int

const (
	StyleHTML Style = iota
	StyleText
)

const na = "N/A"

type formatter struct {
	style Style
	b     strings.Builder
}

func (f *formatter) bold(s string) string {
	if f.style == StyleHTML {
		return "<b>" + html.EscapeString(s) + "</b>"
	}
	return s
}

func (f *formatter) esc(s string) string {
	if f.style == StyleHTML {
		return html.EscapeString(s)
	}
	return s
}

func (f *formatter) line(format string, args ...interface{}) {
	f.b.WriteString(fmt.Sprintf(format, args...))
	f.b.WriteByte('\n')
}

// fixed renders v with n decimals; non-finite values render as N/A.
func fixed(v float64, n int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return na
	}
	return decimal.NewFromFloat(v).StringFixed(n)
}

func money(v float64) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return na
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func orNA(s string) string {
	if s == "" {
		return na
	}
	return s
}

// FormatReport renders an analysis report section by section. Sections that
// failed show their message instead of data.
func FormatReport(r *model.Report, style Style) string {
	f := &formatter{style: style}

	f.line("📊 %s | %s, %s", f.bold("StockLens "+r.Symbol), f.esc(r.DateRange), f.esc(r.Timeframe))
	f.line("Run %s at %s", r.RunID, r.CreatedAt.Format("2006-01-02 15:04 MST"))

	f.line("")
	f.line("🏢 %s", f.bold("Stock Details"))
	f.detailsSection(&r.Details)

	f.line("")
	f.line("💵 %s", f.bold("Latest Quote"))
	f.quoteSection(&r.Quote)

	f.line("")
	f.line("📈 %s", f.bold("Historical Data"))
	f.historySection(&r.History)

	f.line("")
	f.line("🧮 %s", f.bold("Option Greeks"))
	f.greeksSection(&r.Greeks)

	if r.Commentary.Status != model.StatusSkipped || r.Commentary.Message != "" {
		f.line("")
		f.line("💬 %s", f.bold("Commentary"))
		if !f.failed(r.Commentary.Section) {
			f.line("%s", f.esc(r.Commentary.Text))
		}
	}

	return strings.TrimRight(f.b.String(), "\n")
}

// failed writes the section notice and reports whether the section has no data.
func (f *formatter) failed(s model.Section) bool {
	switch s.Status {
	case model.StatusOK:
		return false
	case model.StatusError:
		f.line("❌ %s", f.esc(s.Message))
	case model.StatusSkipped:
		if s.Message != "" {
			f.line("⏭ %s", f.esc(s.Message))
		}
	default:
		f.line("⚠️ %s", f.esc(s.Message))
	}
	return true
}

func (f *formatter) detailsSection(s *model.DetailsSection) {
	if f.failed(s.Section) || s.Details == nil {
		return
	}
	d := s.Details
	f.line("Ticker: %s", f.esc(orNA(d.Symbol)))
	f.line("Name: %s", f.esc(orNA(d.Name)))
	f.line("Market Cap: %s", money(d.MarketCap))
	f.line("Exchange: %s", f.esc(orNA(d.Exchange)))
	pe := na
	if d.PERatio != 0 {
		pe = fixed(d.PERatio, 2)
	}
	f.line("P/E Ratio: %s", pe)
}

func (f *formatter) quoteSection(s *model.QuoteSection) {
	if f.failed(s.Section) || s.Quote == nil {
		return
	}
	q := s.Quote
	f.line("Close: %s | High: %s | Low: %s | Open: %s", fixed(q.Close, 2), fixed(q.High, 2), fixed(q.Low, 2), fixed(q.Open, 2))
	f.line("Volume: %s", humanize.Comma(int64(q.Volume)))
}

func (f *formatter) greeksSection(s *model.GreeksSection) {
	if f.failed(s.Section) || s.Greeks == nil {
		return
	}
	g := s.Greeks
	f.line("Delta: %s | Gamma: %s", fixed(g.Delta, 4), fixed(g.Gamma, 4))
	f.line("Theta: %s | Vega: %s", fixed(g.Theta, 4), fixed(g.Vega, 4))
	f.line("Spot %s, strike %s, IV %s%%, T %s y (%s)",
		fixed(g.Spot, 2), fixed(g.Strike, 2), fixed(g.ImpliedVol*100, 2), fixed(g.TimeToExpiry, 4), g.ExpiryBasis)
	if s.Note != "" {
		f.line("ℹ️ %s", f.esc(s.Note))
	}
}

func (f *formatter) historySection(h *model.HistorySection) {
	if f.failed(h.Section) || h.Series == nil {
		return
	}
	f.line("%s → %s, %d bars of %d %s", h.From.Format("2006-01-02"), h.To.Format("2006-01-02"),
		h.Series.Len(), h.Series.Multiplier, h.Series.Unit)
	if h.Message != "" {
		f.line("⚠️ %s", f.esc(h.Message))
	}
	if h.Range != nil {
		f.line("High: %s | Low: %s (chart axis %s to %s)", fixed(h.Range.High, 2), fixed(h.Range.Low, 2), fixed(h.AxisMin, 2), fixed(h.AxisMax, 2))
	}
	if s := h.Stats; s != nil {
		f.line("Close statistics:")
		f.line("  count %d | mean %s | std %s", s.Count, fixed(s.Mean, 2), fixed(s.Std, 2))
		f.line("  min %s | 25%% %s | 50%% %s | 75%% %s | max %s",
			fixed(s.Min, 2), fixed(s.Q25, 2), fixed(s.Q50, 2), fixed(s.Q75, 2), fixed(s.Max, 2))
	}
	if h.CSVFilename != "" {
		f.line("CSV: %s", f.esc(h.CSVFilename))
	}
}

// FormatSymbol renders a search result.
func FormatSymbol(query string, sym *model.Symbol, style Style) string {
	f := &formatter{style: style}
	if sym.Name != "" {
		f.line("🔎 %s → %s (%s)", f.esc(query), f.bold(sym.Ticker), f.esc(sym.Name))
	} else {
		f.line("🔎 %s → %s", f.esc(query), f.bold(sym.Ticker))
	}
	return strings.TrimRight(f.b.String(), "\n")
}
