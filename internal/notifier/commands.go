package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"StockLens/internal/analysis"
	"StockLens/internal/provider"
	"StockLens/internal/request"
)

const helpText = `Available commands:
• /analyze SYMBOL [range] [timeframe]
• /search QUERY
• /help

Ranges: 1 Day, 3 Days, 1 Month, 3 Months, 1 Year (or 1d, 3d, 1m, 3m, 1y)
Timeframes: 1 Minute, 5 Minutes, 15 Minutes, 30 Minutes, 1 Hour, 1 Day (or 1min, 5min, 15min, 30min, 1h, 1d)`

// Bot answers chat commands with analysis reports.
type Bot struct {
	Analyzer         *analysis.Analyzer
	DefaultRange     string
	DefaultTimeframe string
	Commentary       bool
}

// HandleCommand processes a user command and returns a reply formatted for
// Telegram HTML. User text echoed back is escaped.
func (b *Bot) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Group chats append @botname to commands.
	name := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])

	switch name {
	case "/analyze":
		if len(fields) < 2 {
			return "Usage: /analyze SYMBOL [range] [timeframe]"
		}
		rng, tf, err := parseLabels(fields[2:], b.DefaultRange, b.DefaultTimeframe)
		if err != nil {
			return "⚠️ " + html.EscapeString(err.Error()) + "\n\n" + helpText
		}
		r, err := b.Analyzer.Analyze(ctx, analysis.Input{
			Symbol:     fields[1],
			Range:      rng,
			Timeframe:  tf,
			Commentary: b.Commentary,
		})
		if err != nil {
			return "⚠️ " + html.EscapeString(err.Error())
		}
		return FormatReport(r, StyleHTML)
	case "/search":
		query := strings.TrimSpace(strings.Join(fields[1:], " "))
		sym, err := b.Analyzer.Search(ctx, query)
		switch {
		case errors.Is(err, analysis.ErrMissingInput):
			return "Usage: /search QUERY"
		case errors.Is(err, provider.ErrNoData):
			return fmt.Sprintf("Could not find symbol for %s", html.EscapeString(query))
		case err != nil:
			return "❌ Error searching stock symbol."
		}
		return FormatSymbol(query, sym, StyleHTML)
	default:
		return helpText
	}
}

// parseLabels splits the words after the symbol into a range label and a
// timeframe label. Display labels span two words, aliases one.
func parseLabels(args []string, defRange, defTimeframe string) (string, string, error) {
	rng, rest, err := takeLabel(args, defRange, func(s string) error {
		_, err := request.ParseDateRange(s)
		return err
	})
	if err != nil {
		return "", "", err
	}
	tf, rest, err := takeLabel(rest, defTimeframe, func(s string) error {
		_, err := request.ParseTimeframe(s)
		return err
	})
	if err != nil {
		return "", "", err
	}
	if len(rest) > 0 {
		return "", "", fmt.Errorf("unexpected %q", strings.Join(rest, " "))
	}
	return rng, tf, nil
}

func takeLabel(args []string, def string, parse func(string) error) (string, []string, error) {
	if len(args) == 0 {
		return def, nil, nil
	}
	for n := 2; n >= 1; n-- {
		if len(args) < n {
			continue
		}
		label := strings.Join(args[:n], " ")
		if parse(label) == nil {
			return label, args[n:], nil
		}
	}
	return "", nil, parse(args[0])
}

