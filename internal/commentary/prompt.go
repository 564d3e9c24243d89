package commentary

import (
	"fmt"
	"strings"

	"StockLens/internal/model"
)

const na = "N/A"

// PromptData are the fields the commentary prompt is built from. Nil means
// the section that supplies the field was unavailable.
type PromptData struct {
	Symbol  string
	Price   *float64
	High    *float64
	Low     *float64
	PERatio *float64
	Greeks  *model.OptionGreeks
}

// FromReport collects prompt fields from whatever sections succeeded.
func FromReport(r *model.Report) PromptData {
	d := PromptData{Symbol: r.Symbol}
	if r.Quote.OK() && r.Quote.Quote != nil {
		d.Price = floatPtr(r.Quote.Quote.Close)
	} else if r.History.OK() && r.History.Series.Len() > 0 {
		bars := r.History.Series.Bars
		d.Price = floatPtr(bars[len(bars)-1].Close)
	}
	if r.History.OK() && r.History.Range != nil {
		d.High = floatPtr(r.History.Range.High)
		d.Low = floatPtr(r.History.Range.Low)
	}
	if r.Details.OK() && r.Details.Details != nil && r.Details.Details.PERatio != 0 {
		d.PERatio = floatPtr(r.Details.Details.PERatio)
	}
	if r.Greeks.OK() {
		d.Greeks = r.Greeks.Greeks
	}
	return d
}

// BuildPrompt renders the user prompt sent to the completion endpoint.
func BuildPrompt(d PromptData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Provide a brief analysis of %s stock based on the following data.\n", d.Symbol)
	fmt.Fprintf(&b, "Current price: %s\n", money(d.Price))
	fmt.Fprintf(&b, "Period high: %s\n", money(d.High))
	fmt.Fprintf(&b, "Period low: %s\n", money(d.Low))
	fmt.Fprintf(&b, "P/E ratio: %s\n", number(d.PERatio))
	if g := d.Greeks; g != nil {
		fmt.Fprintf(&b, "Option Greeks: delta %.4f, gamma %.4f, theta %.4f, vega %.4f\n", g.Delta, g.Gamma, g.Theta, g.Vega)
	} else {
		fmt.Fprintf(&b, "Option Greeks: %s\n", na)
	}
	b.WriteString("Keep it under 100 words and mention notable risks.")
	return b.String()
}

func money(v *float64) string {
	if v == nil {
		return na
	}
	return fmt.Sprintf("$%.2f", *v)
}

func number(v *float64) string {
	if v == nil {
		return na
	}
	return fmt.Sprintf("%.2f", *v)
}

func floatPtr(v float64) *float64 { return &v }
