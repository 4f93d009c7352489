package oauth2

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// Provider describes an OAuth2 identity provider: where users are sent to
// authorize, where codes are exchanged for tokens, and where the signed-in
// user can be looked up afterwards.
//
// Usage Example:
//
//	provider, _ := NewGenericProvider("envato", oauth2.Endpoint{
//	    AuthURL:  "https://api.envato.com/authorization",
//	    TokenURL: "https://api.envato.com/token",
//	}, "https://api.envato.com/v1/market/private/user/account.json", nil)
//
//	client, _ := NewClient[MyState](provider, "client-id", "client-secret", "http://localhost/callback", "")
//	authURL, _ := client.GenerateURL("", MyState{ReturnTo: "/"})
//
// Implementation Notes:
//   - Providers validate their configuration during construction
//   - Scopes are fixed at construction; the Client reads them once
//   - GetUserInfo receives a client that already carries the bearer token
type Provider interface {
	// Name returns the lowercase provider identifier, e.g. "envato".
	// Hosts use it to pick a provider among several.
	Name() string

	// Scopes returns a copy of the scopes requested during authorization.
	Scopes() []string

	// Endpoint returns the authorization and token URLs.
	Endpoint() oauth2.Endpoint

	// UserInfoURL returns the URL queried by GetUserInfo.
	UserInfoURL() string

	// GetUserInfo fetches the signed-in user's profile, decodes it into
	// target and returns the raw body.
	//
	// Error Conditions:
	//   - *RequestError: network failure or non 2xx status (expired token, rate limit)
	//   - *DecodeError: body does not decode into target
	GetUserInfo(ctx context.Context, client *http.Client, target any) ([]byte, error)
}
