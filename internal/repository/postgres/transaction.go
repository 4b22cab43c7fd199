package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ameliazsabrina/sericlo-app/internal/domain"
	"github.com/ameliazsabrina/sericlo-app/pkg/database"
	apperrors "github.com/ameliazsabrina/sericlo-app/pkg/errors"
)

// TransactionRepository is the transaction ledger. At most one row exists
// per order number; reconciliation events are folded into it with a
// rank-checked conditional upsert.
type TransactionRepository struct {
	pool database.DBTX
}

// NewTransactionRepository creates a new PostgreSQL-backed ledger repository.
func NewTransactionRepository(pool database.DBTX) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Upsert folds a reconciliation event into the ledger. The write is a single
// conditional statement: the insert wins if no row exists, and the update
// only applies when the incoming status outranks the stored one. Concurrent
// events for the same order therefore cannot interleave a read-then-write
// race; the database decides.
//
// The returned bool reports whether the row was created or advanced. False
// means the event was stale or a duplicate; GetByOrderID tells which.
func (r *TransactionRepository) Upsert(ctx context.Context, ev *domain.ReconcileEvent) (bool, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO transactions (id, order_id, transaction_id, payment_type, status, status_rank, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (order_id) DO UPDATE
		SET transaction_id = EXCLUDED.transaction_id,
		    payment_type = EXCLUDED.payment_type,
		    status = EXCLUDED.status,
		    status_rank = EXCLUDED.status_rank,
		    amount = EXCLUDED.amount,
		    updated_at = EXCLUDED.updated_at
		WHERE transactions.status_rank < EXCLUDED.status_rank`

	ct, err := r.pool.Exec(ctx, query,
		uuid.New().String(),
		ev.OrderID,
		ev.GatewayTxnID,
		ev.PaymentType,
		string(ev.Status),
		ev.Status.Rank(),
		ev.Amount,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("upsert transaction: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// GetByOrderID retrieves the ledger record for an order number.
func (r *TransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error) {
	query := `
		SELECT id, order_id, transaction_id, payment_type, status, amount, created_at, updated_at
		FROM transactions
		WHERE order_id = $1`

	var t domain.Transaction
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&t.ID,
		&t.OrderID,
		&t.GatewayTxnID,
		&t.PaymentType,
		&t.Status,
		&t.Amount,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("transaction", orderID)
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	return &t, nil
}
