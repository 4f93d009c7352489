// Package envato authenticates users against the Envato marketplace OAuth2
// provider.
//
// A Strategy wraps the generic OAuth2 engine from the oauth2 subpackage with
// Envato endpoints and the User-Agent header the API requires, and assembles
// a Profile from the account, username and email resources once an access
// token is available.
//
//	strategy, err := envato.New(envato.Options{
//	    ClientID:     os.Getenv("ENVATO_CLIENT_ID"),
//	    ClientSecret: os.Getenv("ENVATO_CLIENT_SECRET"),
//	    CallbackURL:  "https://app.example.com/auth/envato/callback",
//	}, func(ctx context.Context, access, refresh string, p *envato.Profile) (any, error) {
//	    return users.FindOrCreate(ctx, p.Username, p.Email)
//	})
package envato

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goliatone/go-envato/oauth2"
	xoauth2 "golang.org/x/oauth2"
)

// VerifyFunc resolves an authenticated Envato profile to the host's user.
// Its result is returned unchanged in Result.User.
type VerifyFunc func(ctx context.Context, accessToken, refreshToken string, profile *Profile) (any, error)

// AuthState is carried through the authorization round trip inside the
// signed state parameter.
type AuthState struct {
	ReturnTo string            `json:"return_to,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// Result is the outcome of a completed login.
type Result struct {
	User    any
	Profile *Profile
	Token   *xoauth2.Token
	State   AuthState
}

// Strategy authenticates users with Envato. It is safe for concurrent use;
// every call works on its own Profile.
type Strategy struct {
	opts   Options
	engine *oauth2.Client[AuthState]
	verify VerifyFunc
	logger *slog.Logger
}

// New resolves opts and builds the underlying OAuth2 client. verify may be
// nil, in which case Result.User is the Profile.
func New(opts Options, verify VerifyFunc) (*Strategy, error) {
	resolved, err := opts.WithDefaults()
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	provider, err := oauth2.NewGenericProvider(ProviderName, xoauth2.Endpoint{
		AuthURL:  resolved.AuthorizationURL,
		TokenURL: resolved.TokenURL,
	}, resolved.UserProfileURL, resolved.Scope)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	engine, err := oauth2.NewClient[AuthState](
		provider,
		resolved.ClientID,
		resolved.ClientSecret,
		resolved.CallbackURL,
		resolved.StateKey,
	)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	engine.SetHeaders(resolved.headers())
	engine.SetHTTPClient(resolved.HTTPClient)
	engine.SetStateTTL(resolved.StateTTL)

	logger := resolved.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Strategy{
		opts:   resolved,
		engine: engine,
		verify: verify,
		logger: logger.With("provider", ProviderName),
	}, nil
}

// Name returns the provider identifier, "envato".
func (s *Strategy) Name() string {
	return s.engine.Provider().Name()
}

// Options returns the resolved configuration.
func (s *Strategy) Options() Options {
	opts := s.opts
	opts.CustomHeaders = s.opts.headers()
	return opts
}

// SetStateStore replaces the in-memory store of pending authorization
// requests. Call it before the strategy serves traffic.
func (s *Strategy) SetStateStore(store oauth2.StateStore) {
	s.engine.SetStateStore(store)
}

// AuthCodeURL returns the Envato authorization URL to redirect the user to.
// state may be empty to have one generated.
func (s *Strategy) AuthCodeURL(state string, data AuthState) (string, error) {
	return s.engine.GenerateURL(state, data)
}

// Exchange trades an authorization code for a token.
func (s *Strategy) Exchange(ctx context.Context, code string) (*xoauth2.Token, error) {
	return s.engine.Exchange(ctx, code)
}

// AuthenticateRequest completes a login from the provider's callback
// request, reading code, state and error from the query string.
func (s *Strategy) AuthenticateRequest(r *http.Request) (*Result, error) {
	query := r.URL.Query()
	if code := query.Get("error"); code != "" {
		return nil, &AuthorizationError{
			Code:        code,
			Description: query.Get("error_description"),
			URI:         query.Get("error_uri"),
		}
	}
	return s.Authenticate(r.Context(), query.Get("state"), query.Get("code"))
}

// Authenticate validates state, exchanges code, fetches the profile and runs
// the verify callback. Any failure aborts the login.
func (s *Strategy) Authenticate(ctx context.Context, state, code string) (*Result, error) {
	_, authState, err := s.engine.ValidateState(state)
	if err != nil {
		s.logger.WarnContext(ctx, "rejected authorization state", "error", err)
		return nil, err
	}

	if code == "" {
		return nil, ErrMissingCode
	}

	token, err := s.engine.Exchange(ctx, code)
	if err != nil {
		s.logger.WarnContext(ctx, "token exchange failed", "error", err)
		return nil, err
	}

	profile, err := s.fetchProfile(ctx, s.engine.HTTPClient(ctx, token))
	if err != nil {
		return nil, err
	}

	var user any = profile
	if s.verify != nil {
		if user, err = s.verify(ctx, token.AccessToken, token.RefreshToken, profile); err != nil {
			return nil, err
		}
	}

	return &Result{
		User:    user,
		Profile: profile,
		Token:   token,
		State:   authState,
	}, nil
}

// FetchProfile loads the Envato profile for accessToken. The account,
// username and email resources are fetched in that order and the first
// failure aborts the rest.
//
// Errors are *UpstreamFetchError for transport failures and non 2xx answers
// or *MalformedResponseError for undecodable bodies, both tagged with the
// failing Stage.
func (s *Strategy) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	token := &xoauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	return s.fetchProfile(ctx, s.engine.HTTPClient(ctx, token))
}

// TODO: the three resources are independent and could be fetched
// concurrently once callers agree on which failure to report first.
func (s *Strategy) fetchProfile(ctx context.Context, client *http.Client) (*Profile, error) {
	provider := s.engine.Provider()

	var account accountResponse
	raw, err := s.fetch(ctx, StageAccount, provider.UserInfoURL(), func() ([]byte, error) {
		return provider.GetUserInfo(ctx, client, &account)
	})
	if err != nil {
		return nil, err
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &MalformedResponseError{Stage: StageAccount, Err: err}
	}

	profile := &Profile{
		Provider:          ProviderName,
		Image:             string(account.Account.Image),
		FirstName:         string(account.Account.FirstName),
		Surname:           string(account.Account.Surname),
		AvailableEarnings: string(account.Account.AvailableEarnings),
		TotalDeposits:     string(account.Account.TotalDeposits),
		Balance:           string(account.Account.Balance),
		Country:           string(account.Account.Country),
		Raw:               string(raw),
		JSON:              parsed,
	}

	var username usernameResponse
	if _, err := s.fetch(ctx, StageUsername, s.opts.UserProfileUsername, getJSON(ctx, client, s.opts.UserProfileUsername, &username)); err != nil {
		return nil, err
	}
	profile.Username = string(username.Username)

	var email emailResponse
	if _, err := s.fetch(ctx, StageEmail, s.opts.UserProfileEmail, getJSON(ctx, client, s.opts.UserProfileEmail, &email)); err != nil {
		return nil, err
	}
	profile.Email = string(email.Email)

	return profile, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, target any) func() ([]byte, error) {
	return func() ([]byte, error) {
		return oauth2.FetchJSON(ctx, client, url, target)
	}
}

// fetch runs one profile stage and maps engine errors onto the stage's
// error type.
func (s *Strategy) fetch(ctx context.Context, stage Stage, url string, get func() ([]byte, error)) ([]byte, error) {
	s.logger.DebugContext(ctx, "fetching profile resource", "stage", string(stage), "url", url)

	raw, err := get()
	if err == nil {
		return raw, nil
	}

	s.logger.WarnContext(ctx, "profile fetch failed", "stage", string(stage), "url", url, "error", err)

	var decodeErr *oauth2.DecodeError
	if errors.As(err, &decodeErr) {
		return nil, &MalformedResponseError{Stage: stage, Err: decodeErr}
	}

	fetchErr := &UpstreamFetchError{Stage: stage, Err: err}
	var reqErr *oauth2.RequestError
	if errors.As(err, &reqErr) {
		fetchErr.StatusCode = reqErr.StatusCode
	}
	return nil, fetchErr
}
