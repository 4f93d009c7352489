package oauth2

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minStateKeyLength = 32 // HS256, 256 bits

var (
	ErrInvalidConfig   = errors.New("invalid oauth2 configuration")
	ErrStateNotFound   = errors.New("invalid state: not found in stored states")
	ErrStateInvalid    = errors.New("invalid state: token rejected")
	ErrSigningFailed   = errors.New("failed to sign state")
	stateSigningMethod = jwt.SigningMethodHS256
)

// stateClaims is the payload of a state token. The original caller state and
// the typed data travel together so the callback can recover both.
type stateClaims[T any] struct {
	State string `json:"st"`
	Data  T      `json:"dat"`
	jwt.RegisteredClaims
}

// SignState issues an HS256 state token carrying state and data that expires
// after ttl. The returned id is the token's jti, the value to track in a
// StateStore.
func SignState[T any](key []byte, state string, data T, ttl time.Duration) (token string, id string, err error) {
	now := time.Now()
	id = uuid.NewString()

	claims := stateClaims[T]{
		State: state,
		Data:  data,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(stateSigningMethod, claims).SignedString(key)
	if err != nil {
		// jwt errors can echo key material, keep them out of the message
		return "", "", ErrSigningFailed
	}

	return signed, id, nil
}

// ParseState verifies a state token and returns its id, original state and
// data. Expired, tampered or foreign tokens yield ErrStateInvalid.
func ParseState[T any](key []byte, token string) (id string, state string, data T, err error) {
	var empty T

	claims := &stateClaims[T]{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{stateSigningMethod.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", "", empty, fmt.Errorf("%w: %v", ErrStateInvalid, err)
	}

	if !parsed.Valid || claims.ID == "" {
		return "", "", empty, ErrStateInvalid
	}

	return claims.ID, claims.State, claims.Data, nil
}

func resolveStateKey(key string) ([]byte, error) {
	if key == "" {
		generated := make([]byte, minStateKeyLength)
		if _, err := rand.Read(generated); err != nil {
			return nil, fmt.Errorf("%w: generate state key: %v", ErrInvalidConfig, err)
		}
		return generated, nil
	}

	if len(key) < minStateKeyLength {
		return nil, fmt.Errorf("%w: state key must be at least %d bytes, got %d",
			ErrInvalidConfig, minStateKeyLength, len(key))
	}

	return []byte(key), nil
}
