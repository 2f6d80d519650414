package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultPostTimeout = 5 * time.Second
	defaultPostBackoff = 200 * time.Millisecond
	errorBodyLimit     = 4 << 10
)

// Poster delivers JSON documents to a webhook endpoint. A failed delivery is
// retried up to Retries times, waiting Backoff, 2*Backoff, ... in between.
type Poster struct {
	Name    string
	Client  *http.Client
	Retries int
	Backoff time.Duration
}

// NewPoster returns a Poster named after its sink. A nil client gets a fresh
// one bounded by timeout.
func NewPoster(name string, client *http.Client, timeout time.Duration, retries int) Poster {
	if client == nil {
		if timeout <= 0 {
			timeout = defaultPostTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return Poster{Name: name, Client: client, Retries: max(retries, 0), Backoff: defaultPostBackoff}
}

// Post encodes doc and sends it to endpoint. It returns the last delivery
// error, or ctx.Err() when the context ends while waiting to retry.
func (p Poster) Post(ctx context.Context, endpoint string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", p.Name, err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.Retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(time.Duration(attempt) * p.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if lastErr = p.send(ctx, endpoint, body); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (p Poster) send(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", p.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", p.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return fmt.Errorf("%s responded %s: %s", p.Name, resp.Status, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
