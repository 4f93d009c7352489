package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrUnexpectedStatus is wrapped by RequestError when the upstream answered
// with a non 2xx status code.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// RequestError reports a failure to obtain a usable response from an upstream
// endpoint: the request could not be built, the transport failed, or the
// server answered with a non 2xx status.
type RequestError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request to %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response body that is not valid JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode JSON from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// FetchJSON performs an HTTP GET against rawURL using client and decodes the
// JSON body into target. The raw body is returned so callers can keep it for
// diagnostics.
//
// Errors are either *RequestError or *DecodeError. The client is expected to
// carry authentication already, usually one returned by Client.HTTPClient.
func FetchJSON(ctx context.Context, client *http.Client, rawURL string, target any) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &RequestError{URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &RequestError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &RequestError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status),
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return body, &DecodeError{URL: rawURL, Err: err}
	}

	return body, nil
}
