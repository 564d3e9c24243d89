package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTelegram struct {
	mu      sync.Mutex
	sent    []map[string]string
	updates string
	polled  int
	onSend  func()
}

func (f *fakeTelegram) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/botTOKEN/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		f.mu.Lock()
		f.sent = append(f.sent, payload)
		onSend := f.onSend
		f.mu.Unlock()
		if onSend != nil {
			onSend()
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.polled++
		first := f.polled == 1
		f.mu.Unlock()
		if first {
			_, _ = w.Write([]byte(f.updates))
			return
		}
		assert.Equal(t, "8", r.URL.Query().Get("offset"))
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	})
	return mux
}

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.BaseURL = url
	return n
}

func TestTelegramSend(t *testing.T) {
	fake := &fakeTelegram{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).Send(context.Background(), "<b>hi</b>"))

	require.Len(t, fake.sent, 1)
	assert.Equal(t, "42", fake.sent[0]["chat_id"])
	assert.Equal(t, "<b>hi</b>", fake.sent[0]["text"])
	assert.Equal(t, "HTML", fake.sent[0]["parse_mode"])
}

func TestTelegramSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).Send(context.Background(), "x")
	assert.ErrorContains(t, err, "chat not found")
}

func TestSendWithRetry_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := newTestNotifier(srv.URL).SendWithRetry(ctx, "x", 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := &fakeTelegram{
		updates: `{"ok":true,"result":[{"update_id":7,"message":{"text":" /help "}}]}`,
		onSend:  cancel,
	}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	var got []string
	var pollErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		pollErr = newTestNotifier(srv.URL).StartPolling(ctx, func(_ context.Context, cmd string) string {
			got = append(got, cmd)
			return "reply to " + cmd
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	assert.NoError(t, pollErr)
	assert.Equal(t, []string{"/help"}, got)
	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.sent, 1)
	assert.Equal(t, "reply to /help", fake.sent[0]["text"])
}

func TestStartPolling_RevokedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := newTestNotifier(srv.URL).StartPolling(ctx, func(context.Context, string) string {
		t.Error("handler must not run")
		return ""
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)
	assert.True(t, apiErr.Fatal())
	assert.NoError(t, ctx.Err(), "returned without waiting for the deadline")
}

func TestStartPolling_RetriesTransientErrors(t *testing.T) {
	old := pollRetryDelay
	pollRetryDelay = 10 * time.Millisecond
	t.Cleanup(func() { pollRetryDelay = old })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/botTOKEN/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		switch n {
		case 1:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		case 2:
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":409,"description":"Conflict: terminated by other getUpdates request"}`))
		default:
			_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":1,"message":{"text":"/help"}}]}`))
		}
	})
	mux.HandleFunc("/botTOKEN/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
		cancel()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	err := newTestNotifier(srv.URL).StartPolling(ctx, func(_ context.Context, cmd string) string {
		return "ok"
	})
	assert.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, calls, 3)
}
