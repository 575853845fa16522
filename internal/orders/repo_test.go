package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orderchat/orderchat-backend/pkg/db/models"
	"github.com/orderchat/orderchat-backend/pkg/enums"
	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending',
  picking_order_number TEXT,
  total NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newOrder(t *testing.T, db *gorm.DB, number string, status enums.OrderStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: number,
		Status:      status,
		Total:       decimal.NewFromInt(450),
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepoFindByID(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newOrder(t, db, "SO-1001", enums.OrderStatusConfirmed)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "SO-1001", found.OrderNumber)
	assert.Equal(t, enums.OrderStatusConfirmed, found.Status)

	_, err = repo.FindByID(ctx, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestRepoUpdateStatusAdvances(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newOrder(t, db, "SO-1002", enums.OrderStatusConfirmed)

	updated, err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusConfirmed, enums.OrderStatusReady)
	require.NoError(t, err)
	assert.True(t, updated)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReady, found.Status)
}

func TestRepoUpdateStatusGuardsCurrentValue(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newOrder(t, db, "SO-1003", enums.OrderStatusShipped)

	// Guard misses when the row is no longer in the expected status.
	updated, err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusConfirmed, enums.OrderStatusReady)
	require.NoError(t, err)
	assert.False(t, updated)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, found.Status)
}

func TestRepoUpdateStatusRejectsBackwardMove(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newOrder(t, db, "SO-1004", enums.OrderStatusReady)

	updated, err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusReady, enums.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.False(t, updated)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReady, found.Status)
}

func TestRepoSetPickingOrderNumber(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newOrder(t, db, "SO-1005", enums.OrderStatusConfirmed)

	require.NoError(t, repo.SetPickingOrderNumber(ctx, order.ID, "PK-77"))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found.PickingOrderNumber)
	assert.Equal(t, "PK-77", *found.PickingOrderNumber)

	err = repo.SetPickingOrderNumber(ctx, uuid.New(), "PK-78")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
