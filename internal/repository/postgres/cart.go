package postgres

import (
	"context"
	"fmt"

	"github.com/ameliazsabrina/sericlo-app/internal/domain"
	"github.com/ameliazsabrina/sericlo-app/pkg/database"
)

// CartRepository implements cart line persistence using PostgreSQL.
type CartRepository struct {
	pool database.DBTX
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool database.DBTX) *CartRepository {
	return &CartRepository{pool: pool}
}

// Add inserts a new cart line.
func (r *CartRepository) Add(ctx context.Context, line *domain.CartLine) error {
	query := `
		INSERT INTO cart_lines (id, user_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		line.ID,
		line.UserID,
		line.ProductID,
		line.Quantity,
		line.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cart line: %w", err)
	}

	return nil
}

// ListByUser returns the user's cart lines joined with current product
// display data, most recently added first.
func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	query := `
		SELECT cl.id, cl.product_id, cl.quantity, p.price, p.name, p.image, cl.created_at
		FROM cart_lines cl
		JOIN products p ON p.id = cl.product_id
		WHERE cl.user_id = $1
		ORDER BY cl.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.Price, &item.Name, &item.Image, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}

	return items, nil
}

// LinesByUser returns the user's raw cart lines, without catalog data.
func (r *CartRepository) LinesByUser(ctx context.Context, userID string) ([]domain.CartLine, error) {
	query := `
		SELECT id, user_id, product_id, quantity, created_at
		FROM cart_lines
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}

	return lines, nil
}

// Remove deletes a cart line scoped to its owner. Deleting a line that does
// not exist, or that belongs to another user, is a silent no-op so callers
// cannot probe other users' carts.
func (r *CartRepository) Remove(ctx context.Context, userID, lineID string) error {
	query := `DELETE FROM cart_lines WHERE id = $1 AND user_id = $2`

	if _, err := r.pool.Exec(ctx, query, lineID, userID); err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}

	return nil
}

// ClearByUser deletes all of a user's cart lines.
func (r *CartRepository) ClearByUser(ctx context.Context, userID string) error {
	query := `DELETE FROM cart_lines WHERE user_id = $1`

	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	return nil
}
