package slackapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	return newTestServerWith(t, Config{RetryLimit: 2}, h)
}

func newTestServerWith(t *testing.T, cfg Config, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg.Token = "xoxb-test"
	cfg.BaseURL = srv.URL
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestClient_OpenDMAndPost(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch r.URL.Path {
		case "/conversations.open":
			assert.Equal(t, "U1", body["users"])
			_, _ = w.Write([]byte(`{"ok":true,"channel":{"id":"D42"}}`))
		case "/chat.postMessage":
			assert.Equal(t, "D42", body["channel"])
			assert.Equal(t, "hello", body["text"])
			_, _ = w.Write([]byte(`{"ok":true,"ts":"1772445600.000100"}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	ch, err := c.OpenDM(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "D42", ch)

	ts, err := c.PostMessage(ctx, ch, "hello")
	require.NoError(t, err)
	assert.Equal(t, "1772445600.000100", ts)
}

func TestClient_APIErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	})

	_, err := c.PostMessage(context.Background(), "D1", "x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "channel_not_found", apiErr.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RetriesRateLimitedCall(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"channel":{"id":"D1"}}`))
	})

	ch, err := c.OpenDM(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, "D1", ch)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_PostMessageNotRetriedAfterTimeout(t *testing.T) {
	var calls atomic.Int32
	c := newTestServerWith(t, Config{Timeout: 100 * time.Millisecond, RetryLimit: 2}, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}
		_, _ = w.Write([]byte(`{"ok":true,"ts":"1772445600.000100"}`))
	})

	_, err := c.PostMessage(context.Background(), "D1", "hello")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_PostMessageNotRetriedAfterServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.PostMessage(context.Background(), "D1", "hello")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_PostMessageRetriedWhenRateLimited(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"ts":"1772445600.000200"}`))
	})

	ts, err := c.PostMessage(context.Background(), "D1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "1772445600.000200", ts)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_PostMessageRetriedWhenRequestNeverSent(t *testing.T) {
	var dials atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"ts":"1772445600.000300"}`))
	}))
	t.Cleanup(srv.Close)
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if dials.Add(1) == 1 {
			return nil, errors.New("dial tcp: connection refused")
		}
		return http.DefaultTransport.RoundTrip(r)
	})}
	c, err := NewClient(Config{Token: "xoxb-test", BaseURL: srv.URL, RetryLimit: 2, Client: hc})
	require.NoError(t, err)

	ts, err := c.PostMessage(context.Background(), "D1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "1772445600.000300", ts)
	assert.Equal(t, int32(2), dials.Load())
}

func TestClient_OpenDMRetriedAfterTimeout(t *testing.T) {
	var calls atomic.Int32
	c := newTestServerWith(t, Config{Timeout: 100 * time.Millisecond, RetryLimit: 2}, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}
		_, _ = w.Write([]byte(`{"ok":true,"channel":{"id":"D7"}}`))
	})

	ch, err := c.OpenDM(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, "D7", ch)
	assert.Equal(t, int32(2), calls.Load())
}
