package envato

import (
	"errors"
	"fmt"
)

// Stage labels the profile fetch step an error came from. Its value is the
// prefix of the error message.
type Stage string

const (
	// StageAccount is the account resource: name, image, country, balances.
	StageAccount Stage = "failed to fetch user profile"
	// StageUsername is the username resource.
	StageUsername Stage = "failed to fetch username"
	// StageEmail is the email resource.
	StageEmail Stage = "failed to fetch email"
)

// ErrMissingCode is returned by Authenticate when the callback carries a
// valid state but no authorization code.
var ErrMissingCode = errors.New("authorization code missing from callback")

// ConfigurationError is returned by New when the OAuth2 engine rejects the
// options, typically a missing client ID or secret.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("envato: invalid configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// UpstreamFetchError reports a transport level failure while fetching the
// profile: network error, cancelled context or a non 2xx answer.
type UpstreamFetchError struct {
	Stage      Stage
	StatusCode int // zero when no response was received
	Err        error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a profile response that could not be
// decoded.
type MalformedResponseError struct {
	Stage Stage
	Err   error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Stage, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// AuthorizationError is returned when the provider redirects back with an
// error instead of a code, e.g. the user denied access.
type AuthorizationError struct {
	Code        string
	Description string
	URI         string
}

func (e *AuthorizationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed: %s: %s", e.Code, e.Description)
	}
	return "authorization failed: " + e.Code
}
