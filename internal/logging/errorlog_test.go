package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorLogFormat(t *testing.T) {
	var buf bytes.Buffer
	el := New(&buf)
	el.now = func() time.Time { return time.Date(2024, 6, 1, 9, 30, 5, 123000000, time.UTC) }

	el.Errorf("quote", "fetch %s: %v", "AAPL", "timeout")

	assert.Equal(t, "2024-06-01 09:30:05,123 - quote - ERROR - fetch AAPL: timeout\n", buf.String())
}

func TestErrorLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "stock_app_error.log")

	el, err := Open(path)
	require.NoError(t, err)
	el.console = false
	el.Errorf("history", "first")
	require.NoError(t, el.Close())

	el, err = Open(path)
	require.NoError(t, err)
	el.console = false
	el.Errorf("history", "second")
	require.NoError(t, el.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "first"))
	assert.True(t, strings.HasSuffix(lines[1], "second"))
}
