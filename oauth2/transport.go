package oauth2

import (
	"maps"
	"net/http"
)

// HeaderTransport is an http.RoundTripper that stamps a fixed set of headers
// on every outgoing request. Headers already present on the request win, so
// per-request values (Authorization set by oauth2.Transport) are untouched.
type HeaderTransport struct {
	Base    http.RoundTripper
	Headers map[string]string
}

// NewHeaderTransport returns a HeaderTransport over base with a private copy
// of headers. A nil base uses http.DefaultTransport.
func NewHeaderTransport(base http.RoundTripper, headers map[string]string) *HeaderTransport {
	return &HeaderTransport{
		Base:    base,
		Headers: maps.Clone(headers),
	}
}

func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.Headers) == 0 {
		return t.base().RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	for key, value := range t.Headers {
		if clone.Header.Get(key) == "" {
			clone.Header.Set(key, value)
		}
	}

	return t.base().RoundTrip(clone)
}

func (t *HeaderTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// withHeaders returns a shallow copy of client whose transport adds headers.
func withHeaders(client *http.Client, headers map[string]string) *http.Client {
	if client == nil {
		client = &http.Client{}
	}
	if len(headers) == 0 {
		return client
	}

	wrapped := *client
	wrapped.Transport = NewHeaderTransport(client.Transport, headers)
	return &wrapped
}
