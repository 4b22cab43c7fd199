package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ameliazsabrina/sericlo-app/internal/domain"
	"github.com/ameliazsabrina/sericlo-app/pkg/database"
	apperrors "github.com/ameliazsabrina/sericlo-app/pkg/errors"
)

// OrderRepository persists authoritative order records with their snapshot
// line items.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts an order and its items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orderQuery := `
		INSERT INTO orders (id, order_number, user_id, total, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = tx.Exec(ctx, orderQuery,
		order.ID,
		order.OrderNumber,
		order.UserID,
		order.Total,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, seller_id, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, item := range order.Items {
		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			order.ID,
			item.ProductID,
			item.Name,
			item.SellerID,
			item.UnitPrice,
			item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}

	return nil
}

// GetByOrderNumber retrieves an order with its items, scoped to its owner.
func (r *OrderRepository) GetByOrderNumber(ctx context.Context, userID, orderNumber string) (*domain.Order, error) {
	orderQuery := `
		SELECT id, order_number, user_id, total, created_at
		FROM orders
		WHERE order_number = $1 AND user_id = $2`

	var order domain.Order
	err := r.pool.QueryRow(ctx, orderQuery, orderNumber, userID).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.Total,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", orderNumber)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	itemQuery := `
		SELECT id, order_id, product_id, name, seller_id, unit_price, quantity
		FROM order_items
		WHERE order_id = $1`

	rows, err := r.pool.Query(ctx, itemQuery, order.ID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.SellerID, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return &order, nil
}

// OwnerOf returns the user ID that owns the given order number.
func (r *OrderRepository) OwnerOf(ctx context.Context, orderNumber string) (string, error) {
	query := `SELECT user_id FROM orders WHERE order_number = $1`

	var userID string
	err := r.pool.QueryRow(ctx, query, orderNumber).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NotFound("order", orderNumber)
		}
		return "", fmt.Errorf("get order owner: %w", err)
	}

	return userID, nil
}
