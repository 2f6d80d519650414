package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := GetRequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id on empty context")
	}

	if got := SetRequestIDInContext(ctx, ""); got != ctx {
		t.Fatal("expected empty id to leave context unchanged")
	}

	ctx = SetRequestIDInContext(ctx, "req-1")
	id, ok := GetRequestIDFromContext(ctx)
	if !ok || id != "req-1" {
		t.Fatalf("expected req-1, got %q (ok=%v)", id, ok)
	}
}

func TestParseLimitOffset(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantLim int
		wantOff int
	}{
		{name: "defaults", query: "", wantLim: 20, wantOff: 0},
		{name: "explicit", query: "limit=5&offset=10", wantLim: 5, wantOff: 10},
		{name: "clamped high", query: "limit=999", wantLim: 50, wantOff: 0},
		{name: "clamped low", query: "limit=0&offset=-3", wantLim: 1, wantOff: 0},
		{name: "garbage falls back", query: "limit=abc", wantLim: 20, wantOff: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
			lim, off := ParseLimitOffset(req, 20, 50)
			if lim != tt.wantLim || off != tt.wantOff {
				t.Fatalf("got (%d,%d), want (%d,%d)", lim, off, tt.wantLim, tt.wantOff)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if got := bearerToken(req); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
