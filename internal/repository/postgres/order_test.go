package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ameliazsabrina/sericlo-app/internal/domain"
	"github.com/ameliazsabrina/sericlo-app/pkg/database"
	apperrors "github.com/ameliazsabrina/sericlo-app/pkg/errors"
)

var (
	orderColumns     = []string{"id", "order_number", "user_id", "total", "created_at"}
	orderItemColumns = []string{"id", "order_id", "product_id", "name", "seller_id", "unit_price", "quantity"}
)

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:          "ord-row-001",
		OrderNumber: "ORDER-1717243200-000000042",
		UserID:      "usr-001",
		Total:       130000,
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Items: []domain.OrderItem{
			{ID: "item-001", OrderID: "ord-row-001", ProductID: "prod-001", Name: "Vintage Tee", SellerID: "seller-001", UnitPrice: 50000, Quantity: 2},
			{ID: "item-002", OrderID: "ord-row-001", ProductID: "prod-002", Name: "Denim Jacket", SellerID: "seller-002", UnitPrice: 30000, Quantity: 1},
		},
	}
}

func TestOrderRepository_Create(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	order := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(order.ID, order.OrderNumber, order.UserID, order.Total, order.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	for _, item := range order.Items {
		mock.ExpectExec("INSERT INTO order_items").
			WithArgs(item.ID, order.ID, item.ProductID, item.Name, item.SellerID, item.UnitPrice, item.Quantity).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()
	mock.ExpectRollback()

	err = repo.Create(context.Background(), order)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_ItemInsertFails(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	order := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(order.ID, order.OrderNumber, order.UserID, order.Total, order.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(order.Items[0].ID, order.ID, order.Items[0].ProductID, order.Items[0].Name, order.Items[0].SellerID, order.Items[0].UnitPrice, order.Items[0].Quantity).
		WillReturnError(errors.New("connection refused"))
	mock.ExpectRollback()

	err = repo.Create(context.Background(), order)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order item")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_BeginFails(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err = repo.Create(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin order tx")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByOrderNumber(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	orderRows := pgxmock.NewRows(orderColumns).
		AddRow("ord-row-001", "ORDER-1717243200-000000042", "usr-001", int64(130000), createdAt)
	itemRows := pgxmock.NewRows(orderItemColumns).
		AddRow("item-001", "ord-row-001", "prod-001", "Vintage Tee", "seller-001", int64(50000), 2).
		AddRow("item-002", "ord-row-001", "prod-002", "Denim Jacket", "seller-002", int64(30000), 1)

	mock.ExpectQuery("SELECT id, order_number, user_id").
		WithArgs("ORDER-1717243200-000000042", "usr-001").
		WillReturnRows(orderRows)
	mock.ExpectQuery("SELECT id, order_id, product_id").
		WithArgs("ord-row-001").
		WillReturnRows(itemRows)

	order, err := repo.GetByOrderNumber(context.Background(), "usr-001", "ORDER-1717243200-000000042")
	require.NoError(t, err)
	assert.Equal(t, int64(130000), order.Total)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Vintage Tee", order.Items[0].Name)
	assert.Equal(t, int64(130000), order.TotalAmount())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByOrderNumber_WrongOwner(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	// Owner scoping means another user's lookup sees nothing at all.
	mock.ExpectQuery("SELECT id, order_number, user_id").
		WithArgs("ORDER-1717243200-000000042", "usr-other").
		WillReturnRows(pgxmock.NewRows(orderColumns))

	_, err = repo.GetByOrderNumber(context.Background(), "usr-other", "ORDER-1717243200-000000042")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_OwnerOf(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	mock.ExpectQuery("SELECT user_id FROM orders").
		WithArgs("ORDER-1717243200-000000042").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow("usr-001"))

	userID, err := repo.OwnerOf(context.Background(), "ORDER-1717243200-000000042")
	require.NoError(t, err)
	assert.Equal(t, "usr-001", userID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_OwnerOf_NotFound(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOrderRepository(mock)

	mock.ExpectQuery("SELECT user_id FROM orders").
		WithArgs("ORDER-0-000000000").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}))

	_, err = repo.OwnerOf(context.Background(), "ORDER-0-000000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
