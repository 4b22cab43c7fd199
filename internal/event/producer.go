package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ameliazsabrina/sericlo-app/internal/domain"
	pkgkafka "github.com/ameliazsabrina/sericlo-app/pkg/kafka"
)

// Kafka topics for checkout and payment domain events.
var (
	TopicCheckoutInitiated = pkgkafka.Topic("checkout", "initiated")
	TopicPaymentSettled    = pkgkafka.Topic("payment", "settled")
	TopicPaymentFailed     = pkgkafka.Topic("payment", "failed")
)

// Aggregate type constants.
const (
	AggregateTypeOrder   = "order"
	AggregateTypePayment = "payment"
)

// Source identifier for events originating from this service.
const SourceCheckoutService = "checkout-service"

// CheckoutInitiatedData is the payload for a checkout.initiated event.
type CheckoutInitiatedData struct {
	OrderNumber string             `json:"order_number"`
	UserID      string             `json:"user_id"`
	Items       []domain.OrderItem `json:"items"`
	TotalAmount int64              `json:"total_amount"`
}

// PaymentSettledData is the payload for a payment.settled event.
type PaymentSettledData struct {
	OrderNumber   string `json:"order_number"`
	TransactionID string `json:"transaction_id"`
	PaymentType   string `json:"payment_type"`
	Amount        int64  `json:"amount"`
}

// PaymentFailedData is the payload for a payment.failed event. Status
// distinguishes gateway denial from expiry.
type PaymentFailedData struct {
	OrderNumber   string `json:"order_number"`
	TransactionID string `json:"transaction_id"`
	PaymentType   string `json:"payment_type"`
	Status        string `json:"status"`
}

// Producer publishes checkout and payment domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCheckoutInitiated publishes a checkout.initiated event.
func (p *Producer) PublishCheckoutInitiated(ctx context.Context, order *domain.Order) error {
	data := CheckoutInitiatedData{
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Items:       order.Items,
		TotalAmount: order.Total,
	}

	event, err := pkgkafka.NewEvent(TopicCheckoutInitiated, order.OrderNumber, AggregateTypeOrder, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create checkout.initiated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCheckoutInitiated, event); err != nil {
		return fmt.Errorf("publish checkout.initiated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.initiated event",
		slog.String("order_number", order.OrderNumber),
		slog.String("user_id", order.UserID),
	)

	return nil
}

// PublishPaymentSettled publishes a payment.settled event.
func (p *Producer) PublishPaymentSettled(ctx context.Context, txn *domain.Transaction) error {
	data := PaymentSettledData{
		OrderNumber:   txn.OrderID,
		TransactionID: txn.GatewayTxnID,
		PaymentType:   txn.PaymentType,
		Amount:        txn.Amount,
	}

	event, err := pkgkafka.NewEvent(TopicPaymentSettled, txn.OrderID, AggregateTypePayment, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create payment.settled event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPaymentSettled, event); err != nil {
		return fmt.Errorf("publish payment.settled event: %w", err)
	}

	p.logger.DebugContext(ctx, "published payment.settled event",
		slog.String("order_number", txn.OrderID),
		slog.String("transaction_id", txn.GatewayTxnID),
	)

	return nil
}

// PublishPaymentFailed publishes a payment.failed event for a denial or an
// expiry.
func (p *Producer) PublishPaymentFailed(ctx context.Context, txn *domain.Transaction) error {
	data := PaymentFailedData{
		OrderNumber:   txn.OrderID,
		TransactionID: txn.GatewayTxnID,
		PaymentType:   txn.PaymentType,
		Status:        string(txn.Status),
	}

	event, err := pkgkafka.NewEvent(TopicPaymentFailed, txn.OrderID, AggregateTypePayment, SourceCheckoutService, data)
	if err != nil {
		return fmt.Errorf("create payment.failed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPaymentFailed, event); err != nil {
		return fmt.Errorf("publish payment.failed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published payment.failed event",
		slog.String("order_number", txn.OrderID),
		slog.String("status", string(txn.Status)),
	)

	return nil
}
