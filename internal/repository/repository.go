package repository

import (
	"context"

	"github.com/ameliazsabrina/sericlo-app/internal/domain"
)

// CartRepository defines the interface for cart line persistence.
type CartRepository interface {
	// Add inserts a new cart line.
	Add(ctx context.Context, line *domain.CartLine) error

	// ListByUser returns the user's cart lines joined with product data,
	// most recently added first.
	ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error)

	// LinesByUser returns the user's raw cart lines.
	LinesByUser(ctx context.Context, userID string) ([]domain.CartLine, error)

	// Remove deletes a cart line scoped to its owner.
	Remove(ctx context.Context, userID, lineID string) error

	// ClearByUser deletes all of a user's cart lines.
	ClearByUser(ctx context.Context, userID string) error
}

// CatalogRepository defines read access to product data.
type CatalogRepository interface {
	// GetProduct retrieves a single product by ID.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// GetProducts retrieves the given products keyed by ID. Missing IDs
	// are absent from the map, not an error.
	GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

// OrderRepository defines the interface for order persistence.
type OrderRepository interface {
	// Create inserts an order and its items atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByOrderNumber retrieves an order with its items, scoped to its owner.
	GetByOrderNumber(ctx context.Context, userID, orderNumber string) (*domain.Order, error)

	// OwnerOf returns the user ID that owns the given order number.
	OwnerOf(ctx context.Context, orderNumber string) (string, error)
}

// TransactionRepository defines the interface for the payment ledger.
type TransactionRepository interface {
	// Upsert folds a reconciliation event into the ledger and reports
	// whether the row was created or advanced.
	Upsert(ctx context.Context, ev *domain.ReconcileEvent) (bool, error)

	// GetByOrderID retrieves the ledger record for an order number.
	GetByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error)
}

// DedupCache defines the interface for short-circuiting repeat
// reconciliation events.
type DedupCache interface {
	// MarkSeen records the event and reports whether it had already been
	// seen within the TTL window.
	MarkSeen(ctx context.Context, ev *domain.ReconcileEvent) (bool, error)

	// Forget removes the seen marker for an event.
	Forget(ctx context.Context, ev *domain.ReconcileEvent) error
}
