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
)

var cartItemColumns = []string{"id", "product_id", "quantity", "price", "name", "image", "created_at"}

func sampleCartLine() *domain.CartLine {
	return &domain.CartLine{
		ID:        "line-001",
		UserID:    "usr-001",
		ProductID: "prod-001",
		Quantity:  2,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCartRepository_Add(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCartRepository(mock)
	line := sampleCartLine()

	mock.ExpectExec("INSERT INTO cart_lines").
		WithArgs(line.ID, line.UserID, line.ProductID, line.Quantity, line.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Add(context.Background(), line)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_Add_ExecError(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCartRepository(mock)
	line := sampleCartLine()

	mock.ExpectExec("INSERT INTO cart_lines").
		WithArgs(line.ID, line.UserID, line.ProductID, line.Quantity, line.CreatedAt).
		WillReturnError(errors.New("connection refused"))

	err = repo.Add(context.Background(), line)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert cart line")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_ListByUser(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCartRepository(mock)
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(cartItemColumns).
		AddRow("line-002", "prod-002", 1, int64(30000), "Denim Jacket", "https://img/2.jpg", createdAt.Add(time.Minute)).
		AddRow("line-001", "prod-001", 2, int64(50000), "Vintage Tee", "https://img/1.jpg", createdAt)

	mock.ExpectQuery("SELECT cl.id, cl.product_id").
		WithArgs("usr-001").
		WillReturnRows(rows)

	items, err := repo.ListByUser(context.Background(), "usr-001")
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Newest first.
	assert.Equal(t, "line-002", items[0].ID)
	assert.Equal(t, "Denim Jacket", items[0].Name)
	assert.Equal(t, int64(30000), items[0].Price)
	assert.Equal(t, "line-001", items[1].ID)
	assert.Equal(t, 2, items[1].Quantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_ListByUser_Empty(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCartRepository(mock)

	mock.ExpectQuery("SELECT cl.id, cl.product_id").
		WithArgs("usr-001").
		WillReturnRows(pgxmock.NewRows(cartItemColumns))

	items, err := repo.ListByUser(context.Background(), "usr-001")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_LinesByUser(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCartRepository(mock)
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "user_id", "product_id", "quantity", "created_at"}).
		AddRow("line-001", "usr-001", "prod-001", 2, createdAt)

	mock.ExpectQuery("SELECT id, user_id, product_id").
		WithArgs("usr-001").
		WillReturnRows(rows)

	lines, err := repo.LinesByUser(context.Background(), "usr-001")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "prod-001", lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_Remove_ScopedToOwner(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCartRepository(mock)

	// Zero rows affected (wrong owner or missing line) is still a success.
	mock.ExpectExec("DELETE FROM cart_lines").
		WithArgs("line-001", "usr-other").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = repo.Remove(context.Background(), "usr-other", "line-001")
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_ClearByUser(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCartRepository(mock)

	mock.ExpectExec("DELETE FROM cart_lines").
		WithArgs("usr-001").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	err = repo.ClearByUser(context.Background(), "usr-001")
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
