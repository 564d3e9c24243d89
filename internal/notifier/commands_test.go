package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockLens/internal/analysis"
	"StockLens/internal/model"
	"StockLens/internal/provider"
)

func newTestBot(mock *provider.Mock) *Bot {
	return &Bot{
		Analyzer:         analysis.New(mock, nil, analysis.DefaultOptions()),
		DefaultRange:     "1 Month",
		DefaultTimeframe: "1 Day",
	}
}

func TestParseLabels(t *testing.T) {
	tests := []struct {
		args    []string
		rng, tf string
		wantErr bool
	}{
		{nil, "1 Month", "1 Day", false},
		{[]string{"3", "Months"}, "3 Months", "1 Day", false},
		{[]string{"1y", "1h"}, "1y", "1h", false},
		{[]string{"1", "Year", "5", "Minutes"}, "1 Year", "5 Minutes", false},
		{[]string{"1m", "1", "Day"}, "1m", "1 Day", false},
		{[]string{"2w"}, "", "", true},
		{[]string{"1d", "7min"}, "", "", true},
		{[]string{"1d", "1d", "extra"}, "", "", true},
	}
	for _, tt := range tests {
		rng, tf, err := parseLabels(tt.args, "1 Month", "1 Day")
		if tt.wantErr {
			assert.Error(t, err, "%v", tt.args)
			continue
		}
		require.NoError(t, err, "%v", tt.args)
		assert.Equal(t, tt.rng, rng, "%v", tt.args)
		assert.Equal(t, tt.tf, tf, "%v", tt.args)
	}
}

func TestHandleCommand_Analyze(t *testing.T) {
	mock := &provider.Mock{Price: 100}
	bot := newTestBot(mock)

	reply := bot.HandleCommand(context.Background(), "/analyze aapl 3m 1h")

	assert.Contains(t, reply, "StockLens AAPL")
	assert.Contains(t, reply, "<b>Option Greeks</b>")
	require.NotNil(t, mock.LastHistory)
	assert.Equal(t, 1, mock.LastHistory.Multiplier)
	assert.Equal(t, "hour", string(mock.LastHistory.Unit))
}

func TestHandleCommand_AnalyzeErrors(t *testing.T) {
	bot := newTestBot(&provider.Mock{Price: 100})

	assert.Contains(t, bot.HandleCommand(context.Background(), "/analyze"), "Usage")
	assert.Contains(t, bot.HandleCommand(context.Background(), "/analyze AAPL 2w"), `unknown date range &#34;2w&#34;`)

	reply := bot.HandleCommand(context.Background(), "/analyze AAPL <1y>")
	assert.Contains(t, reply, `unknown date range &#34;&lt;1y&gt;&#34;`)
	assert.NotContains(t, reply, "<1y>")
}

func TestHandleCommand_EscapesSymbol(t *testing.T) {
	bot := newTestBot(&provider.Mock{Price: 100})

	reply := bot.HandleCommand(context.Background(), "/analyze A&B<i>")
	assert.Contains(t, reply, "A&amp;B&lt;I&gt;")
	assert.NotContains(t, reply, "<i>")
	assert.NotContains(t, reply, "<I>")
}

func TestHandleCommand_Search(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		bot := newTestBot(&provider.Mock{Symbol: &model.Symbol{Ticker: "MSFT", Name: "Microsoft Corporation"}})
		assert.Equal(t, "🔎 microsoft → <b>MSFT</b> (Microsoft Corporation)",
			bot.HandleCommand(context.Background(), "/search@StockLensBot microsoft"))
	})
	t.Run("not found", func(t *testing.T) {
		bot := newTestBot(&provider.Mock{LookupErr: provider.ErrNoData})
		assert.Equal(t, "Could not find symbol for nothing inc", bot.HandleCommand(context.Background(), "/search nothing inc"))
		assert.Equal(t, "Could not find symbol for AT&amp;T &lt;corp&gt;", bot.HandleCommand(context.Background(), "/search AT&T <corp>"))
	})
	t.Run("provider error", func(t *testing.T) {
		bot := newTestBot(&provider.Mock{LookupErr: errors.New("timeout")})
		assert.Contains(t, bot.HandleCommand(context.Background(), "/search apple"), "Error searching")
	})
	t.Run("empty", func(t *testing.T) {
		bot := newTestBot(&provider.Mock{})
		assert.Equal(t, "Usage: /search QUERY", bot.HandleCommand(context.Background(), "/search"))
	})
}

func TestHandleCommand_Help(t *testing.T) {
	bot := newTestBot(&provider.Mock{})
	assert.Equal(t, helpText, bot.HandleCommand(context.Background(), "/help"))
	assert.Equal(t, helpText, bot.HandleCommand(context.Background(), "hello"))
}
