// Package slackapi is a minimal Slack Web API client for direct messages.
package slackapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
)

// DefaultBaseURL is the Slack Web API root.
const DefaultBaseURL = "https://slack.com/api"

// Config configures the Web API client.
type Config struct {
	Token      string
	BaseURL    string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// APIError is a well-formed response with ok=false.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

// Client calls conversations.open and chat.postMessage with a bot token.
type Client struct {
	token      string
	baseURL    string
	retryLimit int
	client     *http.Client
}

var _ core.SlackMessenger = (*Client)(nil)

// NewClient builds a Web API client. A bot token is required.
func NewClient(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("slack bot token is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{token: token, baseURL: base, retryLimit: max(cfg.RetryLimit, 0), client: hc}, nil
}

// OpenDM opens (or reuses) the IM channel with a user and returns its id.
func (c *Client) OpenDM(ctx context.Context, userID string) (string, error) {
	var out struct {
		Channel struct {
			ID string `json:"id"`
		} `json:"channel"`
	}
	if err := c.call(ctx, "conversations.open", map[string]any{"users": userID}, &out); err != nil {
		return "", err
	}
	if out.Channel.ID == "" {
		return "", errors.New("slack conversations.open: response missing channel id")
	}
	return out.Channel.ID, nil
}

// PostMessage posts text to a channel and returns the message ts.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	var out struct {
		TS string `json:"ts"`
	}
	if err := c.call(ctx, "chat.postMessage", map[string]any{"channel": channelID, "text": text}, &out); err != nil {
		return "", err
	}
	if out.TS == "" {
		return "", errors.New("slack chat.postMessage: response missing ts")
	}
	return out.TS, nil
}

type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// idempotentMethods may be repeated after the request reached Slack without
// side effects beyond the first call. chat.postMessage is not one of them.
var idempotentMethods = map[string]bool{
	"conversations.open": true,
}

// attempt describes one round trip for the retry policy.
type attempt struct {
	wait        time.Duration
	rateLimited bool
	written     bool
}

// call posts a JSON body and decodes the result. Rate-limited calls honor
// Retry-After. Requests that never reached the wire are always retried;
// other failures are retried only for idempotent methods.
func (c *Client) call(ctx context.Context, method string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode slack %s: %w", method, err)
	}

	var lastErr error
	for n := range c.retryLimit + 1 {
		var at attempt
		at, lastErr = c.do(ctx, method, payload, out)
		if lastErr == nil {
			return nil
		}
		if n == c.retryLimit || !retryable(method, at, lastErr) {
			break
		}
		wait := at.wait
		if wait <= 0 {
			wait = time.Duration(n+1) * 250 * time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func retryable(method string, at attempt, err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	// A 429 is rejected before Slack acts on the call.
	if at.rateLimited || !at.written {
		return true
	}
	return idempotentMethods[method]
}

func (c *Client) do(ctx context.Context, method string, payload []byte, out any) (attempt, error) {
	var at attempt
	var written atomic.Bool
	ctx = httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
		WroteRequest: func(httptrace.WroteRequestInfo) { written.Store(true) },
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(payload))
	if err != nil {
		return at, fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	at.written = written.Load()
	if err != nil {
		return at, fmt.Errorf("slack %s request failed: %w", method, err)
	}
	defer resp.Body.Close()
	at.written = true

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return at, fmt.Errorf("read slack %s response: %w", method, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		at.rateLimited = true
		at.wait = time.Duration(secs) * time.Second
		return at, fmt.Errorf("slack %s: rate limited", method)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return at, fmt.Errorf("slack %s %s: %s", method, resp.Status, strings.TrimSpace(string(raw)))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return at, fmt.Errorf("decode slack %s response: %w", method, err)
	}
	if !env.OK {
		return at, &APIError{Method: method, Code: fallback(env.Error, "unknown_error")}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return at, fmt.Errorf("decode slack %s result: %w", method, err)
		}
	}
	return at, nil
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
