package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ameliazsabrina/sericlo-app/internal/domain"
	"github.com/ameliazsabrina/sericlo-app/internal/event"
	"github.com/ameliazsabrina/sericlo-app/internal/gateway"
	"github.com/ameliazsabrina/sericlo-app/internal/repository"
	apperrors "github.com/ameliazsabrina/sericlo-app/pkg/errors"
)

// reconcileChannel identifies which side reported a payment outcome. The
// confirm channel is the authenticated client; the webhook channel is the
// gateway's server-to-server notification.
type reconcileChannel int

const (
	channelConfirm reconcileChannel = iota
	channelWebhook
)

// CheckoutService orchestrates checkout initiation and payment
// reconciliation across both reporting channels.
type CheckoutService struct {
	carts    repository.CartRepository
	catalog  repository.CatalogRepository
	orders   repository.OrderRepository
	txns     repository.TransactionRepository
	dedup    repository.DedupCache
	provider gateway.Provider
	producer *event.Producer
	logger   *slog.Logger
}

// NewCheckoutService creates a new checkout service. The dedup cache is
// optional; a nil cache disables the pre-database duplicate check.
func NewCheckoutService(
	carts repository.CartRepository,
	catalog repository.CatalogRepository,
	orders repository.OrderRepository,
	txns repository.TransactionRepository,
	dedup repository.DedupCache,
	provider gateway.Provider,
	producer *event.Producer,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		catalog:  catalog,
		orders:   orders,
		txns:     txns,
		dedup:    dedup,
		provider: provider,
		producer: producer,
		logger:   logger,
	}
}

// CheckoutResult is returned to the client after a checkout is initiated.
type CheckoutResult struct {
	OrderNumber string
	Token       string
	RedirectURL string
}

// InitiateCheckout snapshots the user's cart into an order and opens a
// hosted payment session for it. The order row is committed before the
// gateway is called, so every session token the client ever sees has an
// authoritative order behind it.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, userID, customerName, customerEmail string) (*CheckoutResult, error) {
	if userID == "" {
		return nil, apperrors.Unauthenticated("user id is required")
	}

	lines, err := s.carts.LinesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, apperrors.EmptyCart()
	}

	ids := make([]string, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}

	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve cart products: %w", err)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:          uuid.New().String(),
		OrderNumber: domain.NewOrderNumber(now),
		UserID:      userID,
		CreatedAt:   now,
	}

	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, apperrors.NotFound("product", line.ProductID)
		}
		order.Items = append(order.Items, domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ProductID: product.ID,
			Name:      product.Name,
			SellerID:  product.SellerID,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
		})
	}
	order.Total = order.TotalAmount()

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	session, err := s.provider.CreateSession(ctx, &gateway.SessionInput{
		OrderID:       order.OrderNumber,
		GrossAmount:   order.Total,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("open payment session: %w", err)
	}

	// Publish event; log but do not fail on error.
	if err := s.producer.PublishCheckoutInitiated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.initiated event",
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout initiated",
		slog.String("order_number", order.OrderNumber),
		slog.String("user_id", userID),
		slog.Int64("total", order.Total),
		slog.String("provider", s.provider.Name()),
	)

	return &CheckoutResult{
		OrderNumber: order.OrderNumber,
		Token:       session.Token,
		RedirectURL: session.RedirectURL,
	}, nil
}

// Confirm applies a payment outcome reported by the authenticated client.
// The order must belong to the caller. A report that would move the ledger
// backwards is rejected with a conflict so a stale client learns its view
// is outdated.
func (s *CheckoutService) Confirm(ctx context.Context, userID string, ev *domain.ReconcileEvent) (*domain.Transaction, error) {
	if userID == "" {
		return nil, apperrors.Unauthenticated("user id is required")
	}
	if ev == nil || ev.OrderID == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	if !domain.IsValidOrderNumber(ev.OrderID) {
		return nil, apperrors.InvalidInput("malformed order id")
	}

	owner, err := s.orders.OwnerOf(ctx, ev.OrderID)
	if err != nil {
		return nil, fmt.Errorf("resolve order owner: %w", err)
	}
	// Another user's order is indistinguishable from a missing one.
	if owner != userID {
		return nil, apperrors.NotFound("order", ev.OrderID)
	}

	return s.reconcile(ctx, ev, owner, channelConfirm)
}

// HandleWebhook applies a payment outcome reported by the gateway. Stale and
// duplicate notifications are acknowledged as successes so the gateway stops
// retrying them.
func (s *CheckoutService) HandleWebhook(ctx context.Context, ev *domain.ReconcileEvent) error {
	if ev == nil || ev.OrderID == "" {
		return apperrors.InvalidInput("order id is required")
	}

	owner, err := s.orders.OwnerOf(ctx, ev.OrderID)
	if err != nil {
		return fmt.Errorf("resolve order owner: %w", err)
	}

	if _, err := s.reconcile(ctx, ev, owner, channelWebhook); err != nil {
		return err
	}

	return nil
}

// GetOrder returns an order with its ledger record, scoped to its owner.
// The transaction is nil when no payment outcome has been recorded yet.
func (s *CheckoutService) GetOrder(ctx context.Context, userID, orderNumber string) (*domain.Order, *domain.Transaction, error) {
	if userID == "" {
		return nil, nil, apperrors.Unauthenticated("user id is required")
	}

	order, err := s.orders.GetByOrderNumber(ctx, userID, orderNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("get order: %w", err)
	}

	txn, err := s.txns.GetByOrderID(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return order, nil, nil
		}
		return nil, nil, fmt.Errorf("get transaction: %w", err)
	}

	return order, txn, nil
}

// reconcile folds one payment outcome into the ledger. The conditional
// upsert in the transaction repository decides races; this method only
// classifies the result and emits side effects for genuine advancements.
func (s *CheckoutService) reconcile(ctx context.Context, ev *domain.ReconcileEvent, ownerID string, channel reconcileChannel) (*domain.Transaction, error) {
	if s.dedup != nil {
		seen, err := s.dedup.MarkSeen(ctx, ev)
		if err != nil {
			s.logger.WarnContext(ctx, "dedup cache unavailable, falling through to ledger",
				slog.String("order_number", ev.OrderID),
				slog.String("error", err.Error()),
			)
		} else if seen {
			s.logger.InfoContext(ctx, "duplicate reconciliation event short-circuited",
				slog.String("order_number", ev.OrderID),
				slog.String("status", string(ev.Status)),
			)
			return s.txns.GetByOrderID(ctx, ev.OrderID)
		}
	}

	applied, err := s.txns.Upsert(ctx, ev)
	if err != nil {
		// Let a retry of this exact event through the cache.
		if s.dedup != nil {
			if ferr := s.dedup.Forget(ctx, ev); ferr != nil {
				s.logger.WarnContext(ctx, "failed to clear dedup marker",
					slog.String("order_number", ev.OrderID),
					slog.String("error", ferr.Error()),
				)
			}
		}
		return nil, fmt.Errorf("reconcile transaction: %w", err)
	}

	if !applied {
		current, err := s.txns.GetByOrderID(ctx, ev.OrderID)
		if err != nil {
			return nil, fmt.Errorf("classify rejected event: %w", err)
		}

		if current.Status == ev.Status && current.GatewayTxnID == ev.GatewayTxnID {
			// Exact redelivery; nothing to report.
			return current, nil
		}

		s.logger.InfoContext(ctx, "stale reconciliation event rejected",
			slog.String("order_number", ev.OrderID),
			slog.String("stored_status", string(current.Status)),
			slog.String("event_status", string(ev.Status)),
		)

		if channel == channelConfirm {
			return nil, apperrors.Conflict(fmt.Sprintf("transaction is already %s", current.Status))
		}
		return current, nil
	}

	txn, err := s.txns.GetByOrderID(ctx, ev.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load reconciled transaction: %w", err)
	}

	s.applySettlementEffects(ctx, txn, ownerID)

	s.logger.InfoContext(ctx, "transaction reconciled",
		slog.String("order_number", txn.OrderID),
		slog.String("status", string(txn.Status)),
		slog.String("transaction_id", txn.GatewayTxnID),
	)

	return txn, nil
}

// applySettlementEffects emits events and clears the buyer's cart once a
// transaction reaches a terminal state. All effects are best-effort; the
// ledger write has already committed.
func (s *CheckoutService) applySettlementEffects(ctx context.Context, txn *domain.Transaction, ownerID string) {
	switch txn.Status {
	case domain.StatusSettled:
		if err := s.carts.ClearByUser(ctx, ownerID); err != nil {
			s.logger.ErrorContext(ctx, "failed to clear cart after settlement",
				slog.String("order_number", txn.OrderID),
				slog.String("user_id", ownerID),
				slog.String("error", err.Error()),
			)
		}
		if err := s.producer.PublishPaymentSettled(ctx, txn); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish payment.settled event",
				slog.String("order_number", txn.OrderID),
				slog.String("error", err.Error()),
			)
		}
	case domain.StatusFailed, domain.StatusExpired:
		if err := s.producer.PublishPaymentFailed(ctx, txn); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish payment.failed event",
				slog.String("order_number", txn.OrderID),
				slog.String("error", err.Error()),
			)
		}
	case domain.StatusPending:
		// No side effects until a terminal outcome arrives.
	}
}
