package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ameliazsabrina/sericlo-app/internal/domain"
	"github.com/ameliazsabrina/sericlo-app/internal/repository"
	apperrors "github.com/ameliazsabrina/sericlo-app/pkg/errors"
)

// CartService implements the business logic for cart operations.
type CartService struct {
	carts   repository.CartRepository
	catalog repository.CatalogRepository
	logger  *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, catalog repository.CatalogRepository, logger *slog.Logger) *CartService {
	return &CartService{
		carts:   carts,
		catalog: catalog,
		logger:  logger,
	}
}

// AddItemInput holds the parameters for adding a product to the cart.
type AddItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// AddItem adds a product to the user's cart. The product must resolve in the
// catalog; a missing quantity defaults to one.
func (s *CartService) AddItem(ctx context.Context, userID string, input *AddItemInput) (*domain.CartLine, error) {
	if userID == "" {
		return nil, apperrors.Unauthenticated("user id is required")
	}
	if input == nil || input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, apperrors.InvalidQuantity("quantity must be greater than 0")
	}

	if _, err := s.catalog.GetProduct(ctx, input.ProductID); err != nil {
		return nil, fmt.Errorf("resolve product: %w", err)
	}

	line := &domain.CartLine{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: input.ProductID,
		Quantity:  quantity,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.carts.Add(ctx, line); err != nil {
		return nil, fmt.Errorf("add cart line: %w", err)
	}

	s.logger.InfoContext(ctx, "cart line added",
		slog.String("user_id", userID),
		slog.String("product_id", input.ProductID),
		slog.Int("quantity", quantity),
	)

	return line, nil
}

// ListItems returns the user's cart joined with current product data.
func (s *CartService) ListItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	if userID == "" {
		return nil, apperrors.Unauthenticated("user id is required")
	}

	items, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}

	return items, nil
}

// RemoveItem deletes a cart line. Lines belonging to other users are
// indistinguishable from missing ones.
func (s *CartService) RemoveItem(ctx context.Context, userID, lineID string) error {
	if userID == "" {
		return apperrors.Unauthenticated("user id is required")
	}
	if lineID == "" {
		return apperrors.InvalidInput("cart line id is required")
	}

	if err := s.carts.Remove(ctx, userID, lineID); err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}

	s.logger.InfoContext(ctx, "cart line removed",
		slog.String("user_id", userID),
		slog.String("line_id", lineID),
	)

	return nil
}
