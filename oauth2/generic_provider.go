package oauth2

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"golang.org/x/oauth2"
)

// GenericProvider is a configurable Provider for any standard OAuth2
// identity provider. Provider specific packages build one with their own
// endpoints instead of implementing the interface from scratch.
//
// Usage Example:
//
//	provider, err := NewGenericProvider("envato", oauth2.Endpoint{
//	    AuthURL:  "https://api.envato.com/authorization",
//	    TokenURL: "https://api.envato.com/token",
//	}, "https://api.envato.com/v1/market/private/user/account.json", nil)
//
// Thread Safety:
//   - Immutable after construction, safe for concurrent use
type GenericProvider struct {
	name        string
	endpoint    oauth2.Endpoint
	userInfoURL string
	scopes      []string
}

// NewGenericProvider creates a GenericProvider after validating its
// configuration.
//
// Validation Rules:
//   - name must be non-empty
//   - endpoint.AuthURL and endpoint.TokenURL must be non-empty
//   - userInfoURL must be non-empty
//   - scopes may be empty but must not contain empty strings
func NewGenericProvider(name string, endpoint oauth2.Endpoint, userInfoURL string, scopes []string) (*GenericProvider, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: provider name cannot be empty", ErrInvalidConfig)
	}

	if endpoint.AuthURL == "" {
		return nil, fmt.Errorf("%w: authorization URL cannot be empty", ErrInvalidConfig)
	}

	if endpoint.TokenURL == "" {
		return nil, fmt.Errorf("%w: token URL cannot be empty", ErrInvalidConfig)
	}

	if userInfoURL == "" {
		return nil, fmt.Errorf("%w: user info URL cannot be empty", ErrInvalidConfig)
	}

	for i, scope := range scopes {
		if scope == "" {
			return nil, fmt.Errorf("%w: scope at index %d cannot be empty", ErrInvalidConfig, i)
		}
	}

	return &GenericProvider{
		name:        name,
		endpoint:    endpoint,
		userInfoURL: userInfoURL,
		scopes:      slices.Clone(scopes),
	}, nil
}

// Name returns the identifier given to NewGenericProvider.
func (g *GenericProvider) Name() string {
	return g.name
}

// Scopes returns a copy so callers cannot mutate provider state.
func (g *GenericProvider) Scopes() []string {
	return slices.Clone(g.scopes)
}

// Endpoint returns the authorization and token URLs.
func (g *GenericProvider) Endpoint() oauth2.Endpoint {
	return g.endpoint
}

// UserInfoURL returns the URL GetUserInfo queries.
func (g *GenericProvider) UserInfoURL() string {
	return g.userInfoURL
}

// GetUserInfo performs a GET against the user info URL with the given
// authenticated client and decodes the JSON body into target.
func (g *GenericProvider) GetUserInfo(ctx context.Context, client *http.Client, target any) ([]byte, error) {
	body, err := FetchJSON(ctx, client, g.userInfoURL, target)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	return body, nil
}
