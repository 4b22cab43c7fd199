package gateway

import (
	"context"
)

// SessionInput holds the parameters for opening a hosted payment session.
type SessionInput struct {
	OrderID       string
	GrossAmount   int64
	CustomerName  string
	CustomerEmail string
}

// Session is an opened hosted payment session. The token drives the
// gateway's payment widget on the client.
type Session struct {
	Token       string
	RedirectURL string
}

// Provider defines the interface for payment gateway integrations.
type Provider interface {
	// Name returns the provider name (e.g., "mock", "snap").
	Name() string

	// CreateSession opens a hosted payment session for the given order.
	CreateSession(ctx context.Context, input *SessionInput) (*Session, error)

	// ValidSignature verifies a webhook notification's signature key.
	// Providers without signature support return true.
	ValidSignature(orderID, statusCode, grossAmount, signature string) bool
}
