package oauth2

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHeaderTransport(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	headers := map[string]string{
		"User-Agent": "go-envato",
		"X-Trace":    "abc",
	}
	transport := NewHeaderTransport(nil, headers)
	headers["X-Trace"] = "mutated"

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("X-Trace", "per-request")

	resp, err := (&http.Client{Transport: transport}).Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got.Get("User-Agent") != "go-envato" {
		t.Errorf("User-Agent = %q, want %q", got.Get("User-Agent"), "go-envato")
	}
	if got.Get("X-Trace") != "per-request" {
		t.Errorf("X-Trace = %q, request header should win", got.Get("X-Trace"))
	}
	if req.Header.Get("User-Agent") != "" {
		t.Error("RoundTrip should not modify the caller's request")
	}
}

func TestWithHeaders(t *testing.T) {
	base := &http.Client{}

	if withHeaders(base, nil) != base {
		t.Error("withHeaders without headers should return the client unchanged")
	}

	wrapped := withHeaders(base, map[string]string{"User-Agent": "go-envato"})
	if wrapped == base {
		t.Fatal("withHeaders should return a copy")
	}
	if base.Transport != nil {
		t.Error("withHeaders should not modify the base client")
	}
	if _, ok := wrapped.Transport.(*HeaderTransport); !ok {
		t.Errorf("Transport = %T, want *HeaderTransport", wrapped.Transport)
	}

	if withHeaders(nil, map[string]string{"A": "b"}) == nil {
		t.Error("withHeaders should accept a nil client")
	}
}
