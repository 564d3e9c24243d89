package request

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHistoryRequest_AAPLMonthDaily(t *testing.T) {
	now := time.Date(2024, 6, 30, 16, 0, 0, 0, time.UTC)
	req, err := NewHistoryRequest(" aapl ", "1 Month", "1 Day", now)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", req.Symbol)
	assert.Equal(t, "2024-05-31", req.From())
	assert.Equal(t, "2024-06-30", req.To())
	assert.Equal(t, 1, req.Multiplier)
	assert.Equal(t, UnitDay, req.Unit)
	assert.Equal(t, MaxRows, req.Limit)
	assert.Equal(t, 30, req.EstimatedRows())
	assert.LessOrEqual(t, req.EstimatedRows(), MaxRows)
}

func TestNewHistoryRequest_Errors(t *testing.T) {
	now := time.Now()

	_, err := NewHistoryRequest("", "1 Month", "1 Day", now)
	assert.Error(t, err)

	_, err = NewHistoryRequest("AAPL", "forever", "1 Day", now)
	assert.True(t, errors.Is(err, ErrUnknownLabel))

	_, err = NewHistoryRequest("AAPL", "1 Month", "1 Week", now)
	assert.True(t, errors.Is(err, ErrUnknownLabel))
}

func TestHistoryRequest_EstimatedRowsExceedsCap(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	req, err := NewHistoryRequest("SPY", "1 Year", "1 Minute", now)
	require.NoError(t, err)
	assert.Greater(t, req.EstimatedRows(), MaxRows)
	assert.Equal(t, time.Minute, req.BucketDuration())
}
