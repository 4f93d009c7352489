package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

// TestGenericProvider tests the GenericProvider implementation
func TestGenericProvider(t *testing.T) {
	endpoint := oauth2.Endpoint{
		AuthURL:  "https://example.com/authorization",
		TokenURL: "https://example.com/token",
	}
	userInfoURL := "https://example.com/userinfo"
	scopes := []string{"read", "write"}

	provider, err := NewGenericProvider("test", endpoint, userInfoURL, scopes)
	if err != nil {
		t.Fatalf("NewGenericProvider failed: %v", err)
	}

	if provider.Name() != "test" {
		t.Errorf("Name() = %q, want %q", provider.Name(), "test")
	}

	if provider.Endpoint() != endpoint {
		t.Errorf("Endpoint() = %v, want %v", provider.Endpoint(), endpoint)
	}

	if provider.UserInfoURL() != userInfoURL {
		t.Errorf("UserInfoURL() = %q, want %q", provider.UserInfoURL(), userInfoURL)
	}

	returnedScopes := provider.Scopes()
	if !reflect.DeepEqual(returnedScopes, scopes) {
		t.Errorf("Scopes() = %v, want %v", returnedScopes, scopes)
	}

	returnedScopes[0] = "modified"
	if provider.Scopes()[0] == "modified" {
		t.Error("Scopes() should return a copy, not the internal slice")
	}

	scopes[1] = "mutated"
	if provider.Scopes()[1] != "write" {
		t.Error("NewGenericProvider should copy the scopes it is given")
	}
}

// TestGenericProviderValidation tests parameter validation in NewGenericProvider
func TestGenericProviderValidation(t *testing.T) {
	validEndpoint := oauth2.Endpoint{
		AuthURL:  "https://example.com/authorization",
		TokenURL: "https://example.com/token",
	}

	tests := []struct {
		name          string
		providerName  string
		endpoint      oauth2.Endpoint
		userInfoURL   string
		scopes        []string
		expectError   bool
		errorContains string
	}{
		{
			name:         "valid provider",
			providerName: "valid",
			endpoint:     validEndpoint,
			userInfoURL:  "https://example.com/userinfo",
			scopes:       []string{"read"},
		},
		{
			name:         "no scopes",
			providerName: "envato",
			endpoint:     validEndpoint,
			userInfoURL:  "https://example.com/userinfo",
		},
		{
			name:          "empty provider name",
			endpoint:      validEndpoint,
			userInfoURL:   "https://example.com/userinfo",
			expectError:   true,
			errorContains: "provider name cannot be empty",
		},
		{
			name:          "empty auth URL",
			providerName:  "test",
			endpoint:      oauth2.Endpoint{TokenURL: "https://example.com/token"},
			userInfoURL:   "https://example.com/userinfo",
			expectError:   true,
			errorContains: "authorization URL cannot be empty",
		},
		{
			name:          "empty token URL",
			providerName:  "test",
			endpoint:      oauth2.Endpoint{AuthURL: "https://example.com/authorization"},
			userInfoURL:   "https://example.com/userinfo",
			expectError:   true,
			errorContains: "token URL cannot be empty",
		},
		{
			name:          "empty user info URL",
			providerName:  "test",
			endpoint:      validEndpoint,
			expectError:   true,
			errorContains: "user info URL cannot be empty",
		},
		{
			name:          "empty scope",
			providerName:  "test",
			endpoint:      validEndpoint,
			userInfoURL:   "https://example.com/userinfo",
			scopes:        []string{"read", ""},
			expectError:   true,
			errorContains: "scope at index 1 cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewGenericProvider(tt.providerName, tt.endpoint, tt.userInfoURL, tt.scopes)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("error %v should wrap ErrInvalidConfig", err)
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errorContains)
				}
				if provider != nil {
					t.Error("provider should be nil when error occurs")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestGenericProviderGetUserInfo tests the GetUserInfo method
func TestGenericProviderGetUserInfo(t *testing.T) {
	expectedUserInfo := map[string]any{
		"account": map[string]any{
			"firstname": "Jane",
			"surname":   "Doe",
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Accept") != "application/json" {
			http.Error(w, "Not acceptable", http.StatusNotAcceptable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(expectedUserInfo)
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)

	client := &http.Client{
		Transport: NewHeaderTransport(nil, map[string]string{"Authorization": "Bearer test-token"}),
	}

	var userInfo map[string]any
	body, err := provider.GetUserInfo(context.Background(), client, &userInfo)
	if err != nil {
		t.Fatalf("GetUserInfo failed: %v", err)
	}

	if !reflect.DeepEqual(userInfo, expectedUserInfo) {
		t.Errorf("GetUserInfo returned %v, want %v", userInfo, expectedUserInfo)
	}
	if !strings.Contains(string(body), `"firstname":"Jane"`) {
		t.Errorf("GetUserInfo should return the raw body, got %q", body)
	}
}

// TestGenericProviderGetUserInfoErrors tests error conditions in GetUserInfo
func TestGenericProviderGetUserInfoErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantDecode bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"invalid_token"}`, wantStatus: http.StatusUnauthorized},
		{name: "rate limited", status: http.StatusTooManyRequests, body: "slow down", wantStatus: http.StatusTooManyRequests},
		{name: "server error", status: http.StatusInternalServerError, body: "", wantStatus: http.StatusInternalServerError},
		{name: "invalid JSON", status: http.StatusOK, body: "{not json", wantDecode: true},
		{name: "JSON array", status: http.StatusOK, body: `["a"]`, wantDecode: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider := newTestProvider(t, server.URL)

			var target map[string]any
			_, err := provider.GetUserInfo(context.Background(), server.Client(), &target)
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !strings.Contains(err.Error(), "failed to fetch user info") {
				t.Errorf("error %q should contain %q", err.Error(), "failed to fetch user info")
			}

			if tt.wantDecode {
				var decodeErr *DecodeError
				if !errors.As(err, &decodeErr) {
					t.Errorf("error %v should be a *DecodeError", err)
				}
				return
			}

			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("error %v should be a *RequestError", err)
			}
			if reqErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", reqErr.StatusCode, tt.wantStatus)
			}
			if !errors.Is(err, ErrUnexpectedStatus) {
				t.Errorf("error %v should wrap ErrUnexpectedStatus", err)
			}
		})
	}
}

// TestGenericProviderNetworkError tests GetUserInfo against an unreachable host
func TestGenericProviderNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	provider := newTestProvider(t, baseURL)

	var target map[string]any
	_, err := provider.GetUserInfo(context.Background(), http.DefaultClient, &target)
	if err == nil {
		t.Fatal("expected network error")
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error %v should be a *RequestError", err)
	}
	if reqErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 when no response was received", reqErr.StatusCode)
	}
}

func BenchmarkGenericProviderScopes(b *testing.B) {
	provider, err := NewGenericProvider("bench", oauth2.Endpoint{
		AuthURL:  "https://example.com/authorization",
		TokenURL: "https://example.com/token",
	}, "https://example.com/userinfo", []string{"a", "b", "c", "d"})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = provider.Scopes()
	}
}
