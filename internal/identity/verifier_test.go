package identity

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ameliazsabrina/sericlo-app/pkg/errors"
	"github.com/ameliazsabrina/sericlo-app/pkg/httpclient"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject, email string, expiry time.Duration) string {
	t.Helper()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(expiry)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTVerifier_ValidToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	token := signToken(t, testSecret, "user-1", "a@sericlo.app", time.Hour)

	ident, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.UserID)
	assert.Equal(t, "a@sericlo.app", ident.Email)
}

func TestJWTVerifier_MissingToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	_, err := v.Verify(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestJWTVerifier_WrongSecret(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	token := signToken(t, "other-secret", "user-1", "a@sericlo.app", time.Hour)

	_, err := v.Verify(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)
}

func TestJWTVerifier_ExpiredToken(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	token := signToken(t, testSecret, "user-1", "a@sericlo.app", -time.Hour)

	_, err := v.Verify(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)
}

func TestJWTVerifier_NoSubject(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	token := signToken(t, testSecret, "", "a@sericlo.app", time.Hour)

	_, err := v.Verify(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)
}

func remoteVerifier(t *testing.T, url string) *RemoteVerifier {
	t.Helper()
	client := httpclient.New(httpclient.Config{Timeout: 5 * time.Second, MaxConnsPerHost: 10})
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	cb := httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("identity-test-"+t.Name()), logger)
	return NewRemoteVerifier(cb, url)
}

func TestRemoteVerifier_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"user-9","email":"b@sericlo.app"}`))
	}))
	defer server.Close()

	v := remoteVerifier(t, server.URL)
	ident, err := v.Verify(context.Background(), "session-token")
	require.NoError(t, err)
	assert.Equal(t, "user-9", ident.UserID)
	assert.Equal(t, "b@sericlo.app", ident.Email)
}

func TestRemoteVerifier_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	v := remoteVerifier(t, server.URL)
	_, err := v.Verify(context.Background(), "bad-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)
}

func TestRemoteVerifier_MissingToken(t *testing.T) {
	v := remoteVerifier(t, "http://localhost:0")
	_, err := v.Verify(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestRemoteVerifier_ProviderUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // immediately closed, connection refused

	v := remoteVerifier(t, server.URL)
	_, err := v.Verify(context.Background(), "session-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestRemoteVerifier_EmptyUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	v := remoteVerifier(t, server.URL)
	_, err := v.Verify(context.Background(), "session-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)
}
