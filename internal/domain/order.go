package domain

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

// Order is the authoritative record of a checkout attempt, written before
// the payment session token is returned to the client.
type Order struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"order_number"`
	UserID      string      `json:"user_id"`
	Total       int64       `json:"total"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrderItem snapshots one cart line at checkout time. Unit price and seller
// are captured here so later catalog changes cannot alter the order.
type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	SellerID  string `json:"seller_id"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// TotalAmount recomputes the order total from its items.
func (o *Order) TotalAmount() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

var orderNumberPattern = regexp.MustCompile(`^ORDER-\d+-\d+$`)

// NewOrderNumber generates an order number in the ORDER-<timestamp>-<random>
// format the payment gateway and clients correlate on. The nine random digits
// make collisions between concurrent checkouts in the same second negligible.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORDER-%d-%09d", now.Unix(), rand.Int64N(1_000_000_000)) // #nosec G404 -- uniqueness, not secrecy
}

// IsValidOrderNumber reports whether s matches the order number wire format.
func IsValidOrderNumber(s string) bool {
	return orderNumberPattern.MatchString(s)
}
