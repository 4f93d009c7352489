package envato

import (
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultUserAgent is sent when neither Options.UserAgent nor a custom
// User-Agent header is configured. Envato rejects API calls without one.
const DefaultUserAgent = "go-envato"

const userAgentHeader = "User-Agent"

// Options configures a Strategy. Zero values fall back to the Envato
// production endpoints.
//
// Options can be loaded from YAML with LoadOptions:
//
//	client_id: my-app
//	client_secret: ${ENVATO_CLIENT_SECRET}
//	callback_url: https://app.example.com/auth/envato/callback
//	user_agent: my-app/1.0
//	custom_headers:
//	  X-Request-Source: login
type Options struct {
	ClientID     string   `json:"client_id" yaml:"client_id"`
	ClientSecret string   `json:"client_secret" yaml:"client_secret"`
	CallbackURL  string   `json:"callback_url,omitempty" yaml:"callback_url,omitempty"`
	Scope        []string `json:"scope,omitempty" yaml:"scope,omitempty"`

	// UserAgent is used for the User-Agent header unless CustomHeaders
	// already carries one.
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`

	// APIBaseURL moves every defaulted endpoint to another host.
	// Explicit endpoint URLs below are never rewritten.
	APIBaseURL string `json:"api_base_url,omitempty" yaml:"api_base_url,omitempty"`

	AuthorizationURL    string `json:"authorization_url,omitempty" yaml:"authorization_url,omitempty"`
	TokenURL            string `json:"token_url,omitempty" yaml:"token_url,omitempty"`
	UserProfileURL      string `json:"user_profile_url,omitempty" yaml:"user_profile_url,omitempty"`
	UserProfileUsername string `json:"user_profile_username,omitempty" yaml:"user_profile_username,omitempty"`
	UserProfileEmail    string `json:"user_profile_email,omitempty" yaml:"user_profile_email,omitempty"`

	// CustomHeaders are added to every request to Envato, token exchange
	// included. They never replace a header the request already carries:
	// Authorization is set by the OAuth2 transport and profile requests
	// always send Accept: application/json, so entries for either are
	// ignored on those requests.
	CustomHeaders map[string]string `json:"custom_headers,omitempty" yaml:"custom_headers,omitempty"`

	// StateKey signs authorization state tokens (HS256, at least 32 bytes).
	// Empty generates a per-process key, which breaks callbacks served by
	// another instance.
	StateKey string        `json:"state_key,omitempty" yaml:"state_key,omitempty"`
	StateTTL time.Duration `json:"state_ttl,omitempty" yaml:"state_ttl,omitempty"`

	HTTPClient *http.Client `json:"-" yaml:"-"`
	Logger     *slog.Logger `json:"-" yaml:"-"`
}

// WithDefaults returns a copy of o with endpoint URLs and headers resolved.
// The receiver, including its CustomHeaders map, is left untouched.
func (o Options) WithDefaults() (Options, error) {
	resolved := o
	resolved.Scope = slices.Clone(o.Scope)

	base := o.APIBaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	endpoints, err := EndpointsFor(base)
	if err != nil {
		return Options{}, err
	}

	defaults := []struct {
		field *string
		route string
	}{
		{&resolved.AuthorizationURL, RouteAuthorize},
		{&resolved.TokenURL, RouteToken},
		{&resolved.UserProfileURL, RouteAccount},
		{&resolved.UserProfileUsername, RouteUsername},
		{&resolved.UserProfileEmail, RouteEmail},
	}
	for _, d := range defaults {
		if *d.field != "" {
			continue
		}
		if *d.field, err = endpoints.URL(d.route); err != nil {
			return Options{}, err
		}
	}

	resolved.CustomHeaders = EffectiveHeaders(o.CustomHeaders, o.UserAgent)
	return resolved, nil
}

// EffectiveHeaders merges custom with the identifying User-Agent header.
// An existing non-empty User-Agent in custom (any key casing) wins over
// userAgent, which wins over DefaultUserAgent. custom is not modified.
func EffectiveHeaders(custom map[string]string, userAgent string) map[string]string {
	headers := make(map[string]string, len(custom)+1)
	hasAgent := false

	for key, value := range custom {
		if http.CanonicalHeaderKey(key) == userAgentHeader {
			if value == "" {
				continue
			}
			hasAgent = true
		}
		headers[key] = value
	}

	if !hasAgent {
		if userAgent == "" {
			userAgent = DefaultUserAgent
		}
		headers[userAgentHeader] = userAgent
	}

	return headers
}

// LoadOptions reads Options from a YAML file. ${VAR} references are expanded
// from the environment before parsing so secrets can stay out of the file.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read options %s: %w", path, err)
	}
	return ParseOptions(data)
}

// ParseOptions decodes YAML options, expanding environment references.
func ParseOptions(data []byte) (Options, error) {
	var opts Options
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &opts); err != nil {
		return Options{}, fmt.Errorf("parse options: %w", err)
	}
	return opts, nil
}

func (o Options) headers() map[string]string {
	return maps.Clone(o.CustomHeaders)
}
