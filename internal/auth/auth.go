// Package auth resolves bearer credentials to stable user identifiers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthenticated reports a missing or unverifiable bearer credential.
var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier maps a bearer id token to the user identifier it was issued for.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (string, error)
}

// BearerToken extracts the token from the request's Authorization header
// without touching the request body.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}
	return token, nil
}
