package oauth2

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Client drives the OAuth2 authorization code flow for any Provider.
//
// The client is generic over T, the data a caller wants back after the user
// returns from the provider (return URL, login intent). T is carried inside a
// signed, expiring state token and handed back by ValidateState.
//
// Usage Example:
//
//	type LoginState struct {
//	    ReturnTo string `json:"return_to"`
//	}
//
//	client, err := NewClient[LoginState](provider, "client-id", "client-secret",
//	    "https://app.example.com/auth/callback", os.Getenv("STATE_KEY"))
//
//	authURL, err := client.GenerateURL("", LoginState{ReturnTo: "/dashboard"})
//	// redirect the user to authURL, then on callback:
//	_, loginState, err := client.ValidateState(r.URL.Query().Get("state"))
//	token, err := client.Exchange(ctx, r.URL.Query().Get("code"))
//	httpClient := client.HTTPClient(ctx, token)
//
// Thread Safety:
//   - Flow methods are safe for concurrent use
//   - Setters are meant for construction time, before the client is shared
type Client[T any] struct {
	config     *oauth2.Config
	provider   Provider
	states     StateStore
	stateKey   []byte
	stateTTL   time.Duration
	httpClient *http.Client
	headers    map[string]string
}

// NewClient creates a Client for provider.
//
// Validation Rules:
//   - provider cannot be nil
//   - clientID and clientSecret must be non-empty
//   - stateKey must be empty (a random key is generated) or at least 32 bytes
//
// redirectURL may be empty when the provider has a registered default.
// All validation errors wrap ErrInvalidConfig.
func NewClient[T any](provider Provider, clientID, clientSecret, redirectURL, stateKey string) (*Client[T], error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: provider cannot be nil", ErrInvalidConfig)
	}

	if clientID == "" {
		return nil, fmt.Errorf("%w: client ID cannot be empty", ErrInvalidConfig)
	}

	if clientSecret == "" {
		return nil, fmt.Errorf("%w: client secret cannot be empty", ErrInvalidConfig)
	}

	key, err := resolveStateKey(stateKey)
	if err != nil {
		return nil, err
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       provider.Scopes(),
		Endpoint:     provider.Endpoint(),
	}

	return &Client[T]{
		config:   config,
		provider: provider,
		states:   NewMemoryStateStore(),
		stateKey: key,
		stateTTL: DefaultStateTTL,
	}, nil
}

// SetStateStore replaces the default in-memory StateStore, for example with
// one backed by Redis when several instances serve callbacks.
func (c *Client[T]) SetStateStore(store StateStore) {
	c.states = store
}

// SetStateTTL changes how long issued state tokens stay valid.
// Non-positive values restore DefaultStateTTL.
func (c *Client[T]) SetStateTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	c.stateTTL = ttl
}

// SetHTTPClient sets the base client used for token exchange and for
// authenticated API calls. Nil restores http.DefaultClient behaviour.
func (c *Client[T]) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetHeaders sets headers sent with every request to the provider, token
// exchange included. The map is copied.
func (c *Client[T]) SetHeaders(headers map[string]string) {
	c.headers = maps.Clone(headers)
}

// Provider returns the provider this client was built for, used to reach
// its user info resource with a client from HTTPClient.
func (c *Client[T]) Provider() Provider {
	return c.provider
}

// GenerateURL builds the provider authorization URL. state is the caller's
// CSRF value (a UUID is generated when empty); it and data are sealed into a
// signed state token that is registered with the StateStore.
//
// opts are passed to oauth2.Config.AuthCodeURL for provider specific
// parameters such as oauth2.AccessTypeOffline.
func (c *Client[T]) GenerateURL(state string, data T, opts ...oauth2.AuthCodeOption) (string, error) {
	if state == "" {
		state = uuid.New().String()
	}

	token, id, err := SignState(c.stateKey, state, data, c.stateTTL)
	if err != nil {
		return "", err
	}

	if !c.states.Store(id, time.Now().Add(c.stateTTL)) {
		return "", fmt.Errorf("failed to store state for validation")
	}

	return c.config.AuthCodeURL(token, opts...), nil
}

// ValidateState verifies a state token received on the callback and returns
// the original state and data. A token is accepted once.
//
// Error Conditions:
//   - ErrStateInvalid: malformed, tampered, foreign or expired token
//   - ErrStateNotFound: token not issued here or already consumed
func (c *Client[T]) ValidateState(token string) (string, T, error) {
	var empty T

	id, state, data, err := ParseState[T](c.stateKey, token)
	if err != nil {
		return "", empty, err
	}

	if !c.states.Validate(id) {
		return "", empty, ErrStateNotFound
	}

	return state, data, nil
}

// Exchange trades an authorization code for a token.
func (c *Client[T]) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	token, err := c.config.Exchange(c.withTransport(ctx), code, opts...)
	if err != nil {
		return nil, fmt.Errorf("OAuth2 token exchange failed: %w", err)
	}
	return token, nil
}

// HTTPClient returns a client that presents token as a bearer credential and
// carries the configured headers. Expired tokens with a refresh token are
// refreshed transparently by golang.org/x/oauth2.
func (c *Client[T]) HTTPClient(ctx context.Context, token *oauth2.Token) *http.Client {
	return c.config.Client(c.withTransport(ctx), token)
}

// withTransport stores the base client in ctx where golang.org/x/oauth2
// picks it up for both token requests and authenticated calls.
func (c *Client[T]) withTransport(ctx context.Context) context.Context {
	if c.httpClient == nil && len(c.headers) == 0 {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, withHeaders(c.httpClient, c.headers))
}
