package domain

import "time"

// CartLine represents a single product/quantity pair in a user's cart.
// There is no cart entity; a user's cart is the set of their lines.
type CartLine struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// CartItem is a cart line joined with current product display data,
// as returned by the cart listing endpoint.
type CartItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is the read-only catalog view consumed at checkout and cart time.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Image    string `json:"image,omitempty"`
	SellerID string `json:"seller_id"`
}
