package domain

import (
	"fmt"
	"time"
)

// TransactionStatus is the canonical payment state recorded in the ledger.
// The gateway reports free-text status strings; they are mapped to these
// values at the boundary so the monotonic-transition invariant is checkable.
type TransactionStatus string

const (
	StatusPending TransactionStatus = "PENDING"
	StatusSettled TransactionStatus = "SETTLED"
	StatusFailed  TransactionStatus = "FAILED"
	StatusExpired TransactionStatus = "EXPIRED"
)

// statusRanks orders statuses so stale events can be rejected: a write only
// proceeds when the incoming rank is strictly greater than the stored rank.
// Terminal states share a rank, so re-delivery of the same terminal state is
// a detectable no-op rather than an advancement.
var statusRanks = map[TransactionStatus]int{
	StatusPending: 1,
	StatusSettled: 2,
	StatusFailed:  2,
	StatusExpired: 2,
}

// Rank returns the monotonic rank of the status, or 0 if unknown.
func (s TransactionStatus) Rank() int {
	return statusRanks[s]
}

// IsTerminal reports whether the status accepts no further transitions.
func (s TransactionStatus) IsTerminal() bool {
	return s.Rank() > statusRanks[StatusPending]
}

// CanonicalStatus maps a gateway-reported status string to a canonical
// transaction status. Unknown strings are rejected so the ledger never
// stores free text.
func CanonicalStatus(gatewayStatus string) (TransactionStatus, error) {
	switch gatewayStatus {
	case "pending":
		return StatusPending, nil
	case "settlement", "success", "capture":
		return StatusSettled, nil
	case "failure", "deny", "cancel":
		return StatusFailed, nil
	case "expire":
		return StatusExpired, nil
	default:
		return "", fmt.Errorf("unknown gateway status %q", gatewayStatus)
	}
}

// Transaction mirrors the gateway's view of one payment, keyed by order
// number. At most one logical transaction exists per order.
type Transaction struct {
	ID           string            `json:"id"`
	OrderID      string            `json:"order_id"`
	GatewayTxnID string            `json:"transaction_id"`
	PaymentType  string            `json:"payment_type,omitempty"`
	Status       TransactionStatus `json:"status"`
	Amount       int64             `json:"amount"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ReconcileEvent is a normalized reconciliation event from either the
// client confirm channel or the gateway webhook.
type ReconcileEvent struct {
	OrderID      string
	GatewayTxnID string
	PaymentType  string
	Status       TransactionStatus
	Amount       int64
}
