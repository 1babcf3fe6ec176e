package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	for _, table := range []string{"payments", "order_items", "orders"} {
		require.NoError(t, db.Exec("DROP TABLE IF EXISTS "+table).Error)
	}

	ddl := []string{
		`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  currency TEXT NOT NULL DEFAULT 'usd',
  subtotal_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  promo_code TEXT,
  points_redeemed INTEGER NOT NULL DEFAULT 0,
  points_discount_cents INTEGER NOT NULL DEFAULT 0,
  shipping_cents INTEGER NOT NULL DEFAULT 0,
  tax_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  shipping_address TEXT,
  cancel_reason TEXT,
  cancel_note TEXT,
  share_token TEXT NOT NULL,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id),
  product_id TEXT NOT NULL,
  variant_id TEXT,
  design_id TEXT,
  name TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE REFERENCES orders(id),
  amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'usd',
  method TEXT NOT NULL DEFAULT 'card',
  status TEXT NOT NULL DEFAULT 'pending',
  stripe_payment_id TEXT,
  failure_reason TEXT,
  gateway_response TEXT,
  paid_at DATETIME,
  refunded_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedOrder(t *testing.T, repo Repository, status enums.OrderStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		Status:        status,
		Currency:      "usd",
		SubtotalCents: 4200,
		TotalCents:    5050,
		ShareToken:    newShareToken(),
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: uuid.New(), Name: "Panther Tee", Qty: 2, UnitPriceCents: 1500, TotalCents: 3000},
			{ID: uuid.New(), ProductID: uuid.New(), Name: "Sticker Pack", Qty: 1, UnitPriceCents: 1200, TotalCents: 1200},
		},
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestFindByIDPreloadsItemsAndPayment(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	order := seedOrder(t, repo, enums.OrderStatusPending)
	require.NoError(t, repo.CreatePayment(context.Background(), &models.Payment{
		ID:          uuid.New(),
		OrderID:     order.ID,
		AmountCents: order.TotalCents,
		Currency:    "usd",
		Method:      "card",
		Status:      enums.PaymentStatusPending,
	}))

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, found.Items, 2)
	require.NotNil(t, found.Payment)
	assert.Equal(t, enums.PaymentStatusPending, found.Payment.Status)
}

func TestFindByShareTokenTrimsInput(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	order := seedOrder(t, repo, enums.OrderStatusPending)

	found, err := repo.FindByShareToken(context.Background(), "  "+order.ShareToken+" ")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.Len(t, found.Items, 2)
}

func TestUpdateStatusGuardsOnCurrentStatus(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	order := seedOrder(t, repo, enums.OrderStatusPending)

	moved, err := repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPending, enums.OrderStatusPaymentConfirmed, nil)
	require.NoError(t, err)
	assert.True(t, moved)

	// A replayed transition finds the order already confirmed and touches
	// nothing.
	moved, err = repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPending, enums.OrderStatusPaymentConfirmed, nil)
	require.NoError(t, err)
	assert.False(t, moved)

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaymentConfirmed, found.Status)
}

func TestUpdateStatusAppliesExtraColumns(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	order := seedOrder(t, repo, enums.OrderStatusPending)

	moved, err := repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled, map[string]any{
		"cancel_reason": enums.OrderCancelReasonCheckoutExpired,
	})
	require.NoError(t, err)
	assert.True(t, moved)

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, found.CancelReason)
	assert.Equal(t, enums.OrderCancelReasonCheckoutExpired, *found.CancelReason)
}

func TestListByCustomerFiltersAndCaps(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	first := seedOrder(t, repo, enums.OrderStatusPending)
	seedOrder(t, repo, enums.OrderStatusPending)

	list, err := repo.ListByCustomer(context.Background(), first.CustomerID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestFindPaymentByStripeIDMissingIsNil(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))

	payment, err := repo.FindPaymentByStripeID(context.Background(), "pi_missing")
	require.NoError(t, err)
	assert.Nil(t, payment)
}

func TestSecondPaymentPerOrderIsRejected(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	order := seedOrder(t, repo, enums.OrderStatusPending)

	base := models.Payment{
		OrderID:     order.ID,
		AmountCents: order.TotalCents,
		Currency:    "usd",
		Method:      "card",
		Status:      enums.PaymentStatusPending,
	}
	first := base
	first.ID = uuid.New()
	require.NoError(t, repo.CreatePayment(context.Background(), &first))

	second := base
	second.ID = uuid.New()
	require.Error(t, repo.CreatePayment(context.Background(), &second))
}
