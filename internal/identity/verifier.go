package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/ameliazsabrina/sericlo-app/pkg/errors"
	"github.com/ameliazsabrina/sericlo-app/pkg/httpclient"
)

// Identity is the resolved owner of a request.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// Verifier resolves a bearer credential to an identity.
//
// Errors are kept distinct so callers can tell a missing token
// (Unauthenticated), a rejected one (InvalidSession), and an unreachable
// identity provider (Upstream) apart.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Claims are the JWT claims the identity provider signs into session tokens.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTVerifier validates session tokens locally against a shared secret.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for HS256-signed session tokens.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token, returning the identity it carries.
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, apperrors.Unauthenticated("missing bearer token")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, apperrors.InvalidSession("session token rejected")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.InvalidSession("invalid session token claims")
	}
	if claims.Subject == "" {
		return nil, apperrors.InvalidSession("session token has no subject")
	}

	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// RemoteVerifier resolves tokens against the identity provider's user
// endpoint. Calls go through the circuit breaker so a flapping provider
// fails fast instead of queueing requests.
type RemoteVerifier struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
}

// NewRemoteVerifier creates a verifier backed by the identity provider at baseURL.
func NewRemoteVerifier(client *httpclient.CircuitBreakerClient, baseURL string) *RemoteVerifier {
	return &RemoteVerifier{client: client, baseURL: baseURL}
}

// Verify asks the identity provider to resolve the token.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, apperrors.Unauthenticated("missing bearer token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Upstream("identity provider", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, apperrors.InvalidSession("session token rejected")
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.Upstream("identity provider",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var ident Identity
	if err := json.NewDecoder(resp.Body).Decode(&ident); err != nil {
		return nil, apperrors.Upstream("identity provider", fmt.Errorf("decode user response: %w", err))
	}
	if ident.UserID == "" {
		return nil, apperrors.InvalidSession("identity provider returned no user")
	}

	return &ident, nil
}
