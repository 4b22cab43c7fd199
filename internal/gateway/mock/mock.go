package mock

import (
	"context"

	"github.com/google/uuid"

	"github.com/ameliazsabrina/sericlo-app/internal/gateway"
)

// Provider is a mock payment gateway that always opens a session.
// It is intended for development and testing purposes.
type Provider struct{}

// NewProvider creates a new mock payment gateway.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// CreateSession returns a fresh fake session token.
func (p *Provider) CreateSession(_ context.Context, input *gateway.SessionInput) (*gateway.Session, error) {
	return &gateway.Session{
		Token:       "mock_session_" + uuid.New().String(),
		RedirectURL: "https://pay.invalid/" + input.OrderID,
	}, nil
}

// ValidSignature always accepts; the mock has no shared secret.
func (p *Provider) ValidSignature(_, _, _, _ string) bool {
	return true
}
