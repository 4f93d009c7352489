package envato

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	ptre "github.com/soongo/path-to-regexp"
)

const (
	// DefaultBaseURL is the production Envato API host. OAuth and REST
	// endpoints share it.
	DefaultBaseURL = "https://api.envato.com"
	// DefaultAPIVersion is the REST version segment of the profile routes.
	DefaultAPIVersion = "v1"
)

// Route names understood by Endpoints.
const (
	// RouteAuthorize is the page users are redirected to for consent.
	RouteAuthorize = "authorize"
	// RouteToken exchanges authorization codes and refresh tokens.
	RouteToken = "token"
	// RouteAccount returns name, image, country and balances.
	RouteAccount = "account"
	// RouteUsername returns the marketplace username.
	RouteUsername = "username"
	// RouteEmail returns the account email address.
	RouteEmail = "email"
)

// ErrRouteNotFound is returned by Endpoints.URL for an unknown route name.
var ErrRouteNotFound = errors.New("route not found")

var defaultRoutes = map[string]string{
	RouteAuthorize: "/authorization",
	RouteToken:     "/token",
	RouteAccount:   "/:version/market/private/user/account.json",
	RouteUsername:  "/:version/market/private/user/username.json",
	RouteEmail:     "/:version/market/private/user/email.json",
}

// Endpoints renders the Envato API routes against a base URL. The default
// instance points at the production API; tests and sandboxes build their own
// with EndpointsFor.
type Endpoints struct {
	base     *url.URL
	version  string
	compiled map[string]func(any) (string, error)
}

// EndpointsFor compiles the Envato routes against baseURL using
// DefaultAPIVersion.
func EndpointsFor(baseURL string) (*Endpoints, error) {
	return NewEndpoints(baseURL, DefaultAPIVersion)
}

// NewEndpoints compiles the Envato routes against baseURL for the given API
// version segment.
func NewEndpoints(baseURL, version string) (*Endpoints, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	if version == "" {
		version = DefaultAPIVersion
	}

	compiled := make(map[string]func(any) (string, error), len(defaultRoutes))
	for name, tpl := range defaultRoutes {
		fn, err := ptre.Compile(tpl, &ptre.Options{
			Encode: func(uri string, token any) string {
				return url.PathEscape(uri)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("compile route %s: %w", name, err)
		}
		compiled[name] = fn
	}

	return &Endpoints{
		base:     base,
		version:  version,
		compiled: compiled,
	}, nil
}

// URL returns the absolute URL for the named route.
func (e *Endpoints) URL(route string) (string, error) {
	compiled, ok := e.compiled[route]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrRouteNotFound, route)
	}

	path, err := compiled(map[string]any{"version": e.version})
	if err != nil {
		return "", fmt.Errorf("failed to build route %s: %w", route, err)
	}

	return e.base.JoinPath(path).String(), nil
}

// MustURL is like URL but panics on error. Only use it with the Route
// constants.
func (e *Endpoints) MustURL(route string) string {
	u, err := e.URL(route)
	if err != nil {
		panic(err)
	}
	return u
}
