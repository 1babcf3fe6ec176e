package orders

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/printhaus/printhaus-backend/internal/promos"
	"github.com/printhaus/printhaus-backend/pkg/config"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/logger"
	"github.com/printhaus/printhaus-backend/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubOrdersRepo struct {
	order         *models.Order
	payment       *models.Payment
	createdOrders []*models.Order
	createdPays   []*models.Payment
	savedPays     []*models.Payment
	statusMoves   []enums.OrderStatus
	moveResult    bool
	createErr     error
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.createdOrders = append(s.createdOrders, order)
	return nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) FindByShareToken(ctx context.Context, token string) (*models.Order, error) {
	if s.order == nil || s.order.ShareToken != token {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error) {
	if s.order == nil {
		return nil, nil
	}
	return []models.Order{*s.order}, nil
}

func (s *stubOrdersRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error) {
	s.statusMoves = append(s.statusMoves, to)
	if s.moveResult && s.order != nil {
		s.order.Status = to
	}
	return s.moveResult, nil
}

func (s *stubOrdersRepo) FindPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	return s.payment, nil
}

func (s *stubOrdersRepo) FindPaymentByStripeID(ctx context.Context, stripePaymentID string) (*models.Payment, error) {
	if s.payment != nil && s.payment.StripePaymentID != nil && *s.payment.StripePaymentID == stripePaymentID {
		return s.payment, nil
	}
	return nil, nil
}

func (s *stubOrdersRepo) CreatePayment(ctx context.Context, payment *models.Payment) error {
	s.createdPays = append(s.createdPays, payment)
	return nil
}

func (s *stubOrdersRepo) SavePayment(ctx context.Context, payment *models.Payment) error {
	s.savedPays = append(s.savedPays, payment)
	return nil
}

type stubRunner struct{ err error }

func (s *stubRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(&gorm.DB{})
}

type stubPromoSvc struct {
	discount  int
	quoteErr  error
	recordErr error
	recorded  []promos.RedemptionInput
}

func (s *stubPromoSvc) Quote(ctx context.Context, code string, cartTotalCents int) (int, error) {
	if s.quoteErr != nil {
		return 0, s.quoteErr
	}
	return s.discount, nil
}

func (s *stubPromoSvc) ValidateAndRecord(ctx context.Context, tx *gorm.DB, code string, input promos.RedemptionInput) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.recorded = append(s.recorded, input)
	return nil
}

type stubLoyaltySvc struct {
	redeemErr     error
	redeemedPts   []int
	awarded       []int
	redeemValue   int
	balanceResult int
}

func (s *stubLoyaltySvc) Redeem(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, points int, orderID uuid.UUID) (int, error) {
	if s.redeemErr != nil {
		return 0, s.redeemErr
	}
	s.redeemedPts = append(s.redeemedPts, points)
	return points * s.redeemValue, nil
}

func (s *stubLoyaltySvc) Award(ctx context.Context, customerID, orderID uuid.UUID, amountPaidCents int) (*models.LoyaltyTransaction, error) {
	s.awarded = append(s.awarded, amountPaidCents)
	return nil, nil
}

func (s *stubLoyaltySvc) Balance(ctx context.Context, customerID uuid.UUID) (int, error) {
	return s.balanceResult, nil
}

func (s *stubLoyaltySvc) RedeemValueCents() int { return s.redeemValue }

type stubCart struct {
	cleared []uuid.UUID
	err     error
}

func (s *stubCart) Clear(ctx context.Context, customerID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.cleared = append(s.cleared, customerID)
	return nil
}

type stubRecovery struct {
	cancelled  []uuid.UUID
	converted  []uuid.UUID
	cancelErr  error
	convertErr error
}

func (s *stubRecovery) CancelPending(ctx context.Context, customerID uuid.UUID) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}
	s.cancelled = append(s.cancelled, customerID)
	return nil
}

func (s *stubRecovery) CheckConversion(ctx context.Context, customerID, orderID uuid.UUID) error {
	if s.convertErr != nil {
		return s.convertErr
	}
	s.converted = append(s.converted, orderID)
	return nil
}

type orderServiceFixture struct {
	svc      Service
	repo     *stubOrdersRepo
	promos   *stubPromoSvc
	loyalty  *stubLoyaltySvc
	cart     *stubCart
	recovery *stubRecovery
}

func newOrderServiceFixture(t *testing.T) *orderServiceFixture {
	t.Helper()

	f := &orderServiceFixture{
		repo:     &stubOrdersRepo{moveResult: true},
		promos:   &stubPromoSvc{},
		loyalty:  &stubLoyaltySvc{redeemValue: 1},
		cart:     &stubCart{},
		recovery: &stubRecovery{},
	}

	svc, err := NewService(Deps{
		Runner:   &stubRunner{},
		Repo:     f.repo,
		Promos:   f.promos,
		Loyalty:  f.loyalty,
		Cart:     f.cart,
		Recovery: f.recovery,
		Metrics:  metrics.NewPaymentMetrics(nil),
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Config:   config.OrdersConfig{Currency: "usd"},
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerID: uuid.New(),
		Items: []CreateOrderItemInput{
			{ProductID: uuid.New(), Name: "Classic Tee", Qty: 2, UnitPriceCents: 1500},
			{ProductID: uuid.New(), Name: "Mug", Qty: 1, UnitPriceCents: 1200},
		},
		ShippingCents: 500,
		TaxCents:      350,
	}
}

func TestCreateComputesTotals(t *testing.T) {
	f := newOrderServiceFixture(t)

	order, err := f.svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, 4200, order.SubtotalCents)
	assert.Equal(t, 5050, order.TotalCents)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Len(t, order.Items, 2)
	assert.NotEmpty(t, order.ShareToken)

	require.Len(t, f.repo.createdOrders, 1)
	require.Len(t, f.repo.createdPays, 1)
	assert.Equal(t, enums.PaymentStatusPending, f.repo.createdPays[0].Status)
	assert.Equal(t, order.TotalCents, f.repo.createdPays[0].AmountCents)
}

func TestCreateAppliesPromoAndPoints(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.promos.discount = 1000

	code := "launch10"
	input := validInput()
	input.PromoCode = &code
	input.PointsToRedeem = 200

	order, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 1000, order.DiscountCents)
	assert.Equal(t, 200, order.PointsRedeemed)
	assert.Equal(t, 200, order.PointsDiscountCents)
	// 4200 - 1000 - 200 + 500 + 350
	assert.Equal(t, 3850, order.TotalCents)
	require.NotNil(t, order.PromoCode)
	assert.Equal(t, "LAUNCH10", *order.PromoCode)

	require.Len(t, f.promos.recorded, 1)
	assert.Equal(t, 1000, f.promos.recorded[0].DiscountCents)
	assert.Equal(t, order.ID, f.promos.recorded[0].OrderID)
	assert.Equal(t, []int{200}, f.loyalty.redeemedPts)
}

func TestCreateCapsPointsAtRemainingSubtotal(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.promos.discount = 4000

	code := "BIG"
	input := validInput()
	input.PromoCode = &code
	input.PointsToRedeem = 100000

	order, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)

	// Only 200 cents of subtotal remain after the promo.
	assert.Equal(t, 200, order.PointsRedeemed)
	assert.Equal(t, 200, order.PointsDiscountCents)
	assert.Equal(t, 850, order.TotalCents)
}

func TestCreateRunsPostCommitHousekeeping(t *testing.T) {
	f := newOrderServiceFixture(t)

	input := validInput()
	order, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{input.CustomerID}, f.cart.cleared)
	assert.Equal(t, []uuid.UUID{input.CustomerID}, f.recovery.cancelled)
	assert.Equal(t, []uuid.UUID{order.ID}, f.recovery.converted)
}

func TestCreateHousekeepingFailureDoesNotSurface(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.cart.err = errors.New("redis down")
	f.recovery.cancelErr = errors.New("db hiccup")

	_, err := f.svc.Create(context.Background(), validInput())
	require.NoError(t, err)
}

func TestCreateAbortsWhenPromoRejectedInTx(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.promos.discount = 1000
	f.promos.recordErr = pkgerrors.New(pkgerrors.CodeValidation, "promo code has been fully redeemed")

	code := "GONE"
	input := validInput()
	input.PromoCode = &code

	_, err := f.svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.Empty(t, f.cart.cleared)
}

func TestCreateAbortsWhenPointsInsufficient(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.loyalty.redeemErr = pkgerrors.New(pkgerrors.CodeValidation, "insufficient points balance")

	input := validInput()
	input.PointsToRedeem = 50

	_, err := f.svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.Empty(t, f.cart.cleared)
	assert.Empty(t, f.recovery.cancelled)
}

func TestCreateValidatesInput(t *testing.T) {
	f := newOrderServiceFixture(t)

	cases := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"no customer", func(in *CreateOrderInput) { in.CustomerID = uuid.Nil }},
		{"no items", func(in *CreateOrderInput) { in.Items = nil }},
		{"zero qty", func(in *CreateOrderInput) { in.Items[0].Qty = 0 }},
		{"negative price", func(in *CreateOrderInput) { in.Items[0].UnitPriceCents = -1 }},
		{"negative points", func(in *CreateOrderInput) { in.PointsToRedeem = -1 }},
		{"negative shipping", func(in *CreateOrderInput) { in.ShippingCents = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := f.svc.Create(context.Background(), input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestConfirmPaymentTransitionsPendingOrder(t *testing.T) {
	f := newOrderServiceFixture(t)
	orderID := uuid.New()
	f.repo.order = &models.Order{ID: orderID, Status: enums.OrderStatusPending, TotalCents: 5050, Currency: "usd"}
	f.repo.payment = &models.Payment{ID: uuid.New(), OrderID: orderID, Status: enums.PaymentStatusPending, AmountCents: 5050}

	order, confirmed, err := f.svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		OrderID:         orderID,
		StripePaymentID: "pi_123",
		AmountPaidCents: 5050,
	})
	require.NoError(t, err)
	assert.True(t, confirmed)
	assert.Equal(t, enums.OrderStatusPaymentConfirmed, order.Status)

	require.Len(t, f.repo.savedPays, 1)
	saved := f.repo.savedPays[0]
	assert.Equal(t, enums.PaymentStatusCompleted, saved.Status)
	require.NotNil(t, saved.StripePaymentID)
	assert.Equal(t, "pi_123", *saved.StripePaymentID)
	assert.NotNil(t, saved.PaidAt)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	f := newOrderServiceFixture(t)
	orderID := uuid.New()
	f.repo.order = &models.Order{ID: orderID, Status: enums.OrderStatusPaymentConfirmed, TotalCents: 5050}

	_, confirmed, err := f.svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{OrderID: orderID, StripePaymentID: "pi_123"})
	require.NoError(t, err)
	assert.False(t, confirmed)
	assert.Empty(t, f.repo.statusMoves)
}

func TestConfirmPaymentConflictsOnCancelledOrder(t *testing.T) {
	f := newOrderServiceFixture(t)
	orderID := uuid.New()
	f.repo.order = &models.Order{ID: orderID, Status: enums.OrderStatusCancelled}

	_, _, err := f.svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{OrderID: orderID, StripePaymentID: "pi_123"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestConfirmPaymentMissingOrder(t *testing.T) {
	f := newOrderServiceFixture(t)

	_, _, err := f.svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{OrderID: uuid.New(), StripePaymentID: "pi_123"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCancelExpiredOnlyTouchesPendingOrders(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.repo.moveResult = false
	f.repo.order = &models.Order{ID: uuid.New(), Status: enums.OrderStatusPaymentConfirmed}

	cancelled, err := f.svc.CancelExpired(context.Background(), f.repo.order.ID)
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestCancelExpiredFailsPendingPayment(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.repo.moveResult = true
	f.repo.order = &models.Order{ID: uuid.New(), Status: enums.OrderStatusPending}
	f.repo.payment = &models.Payment{ID: uuid.New(), OrderID: f.repo.order.ID, Status: enums.PaymentStatusPending}

	cancelled, err := f.svc.CancelExpired(context.Background(), f.repo.order.ID)
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.Equal(t, enums.PaymentStatusFailed, f.repo.payment.Status)
	require.NotNil(t, f.repo.payment.FailureReason)
	assert.Equal(t, "checkout session expired", *f.repo.payment.FailureReason)
}

func TestRecordPaymentFailureCancelsPendingOrder(t *testing.T) {
	f := newOrderServiceFixture(t)
	orderID := uuid.New()
	f.repo.order = &models.Order{ID: orderID, Status: enums.OrderStatusPending}
	f.repo.payment = &models.Payment{ID: uuid.New(), OrderID: orderID, Status: enums.PaymentStatusPending}

	cancelled, err := f.svc.RecordPaymentFailure(context.Background(), orderID, "card_declined", nil)
	require.NoError(t, err)
	assert.True(t, cancelled)

	require.Len(t, f.repo.savedPays, 1)
	assert.Equal(t, enums.PaymentStatusFailed, f.repo.savedPays[0].Status)
	require.NotNil(t, f.repo.savedPays[0].FailureReason)
	assert.Equal(t, "card_declined", *f.repo.savedPays[0].FailureReason)
}

func TestRecordPaymentFailureIgnoresConfirmedOrder(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.repo.moveResult = false
	orderID := uuid.New()
	f.repo.payment = &models.Payment{ID: uuid.New(), OrderID: orderID, Status: enums.PaymentStatusCompleted}

	cancelled, err := f.svc.RecordPaymentFailure(context.Background(), orderID, "card_declined", nil)
	require.NoError(t, err)
	assert.False(t, cancelled)
	assert.Empty(t, f.repo.savedPays)
}

func TestMarkRefundedRequiresPaidOrder(t *testing.T) {
	f := newOrderServiceFixture(t)
	orderID := uuid.New()
	f.repo.order = &models.Order{ID: orderID, Status: enums.OrderStatusPending}

	_, _, err := f.svc.MarkRefunded(context.Background(), orderID, nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestMarkRefundedIsIdempotent(t *testing.T) {
	f := newOrderServiceFixture(t)
	orderID := uuid.New()
	f.repo.order = &models.Order{ID: orderID, Status: enums.OrderStatusRefunded}

	_, refunded, err := f.svc.MarkRefunded(context.Background(), orderID, nil)
	require.NoError(t, err)
	assert.False(t, refunded)
}

func TestMarkRefundedStampsPayment(t *testing.T) {
	f := newOrderServiceFixture(t)
	orderID := uuid.New()
	f.repo.order = &models.Order{ID: orderID, Status: enums.OrderStatusPaymentConfirmed}
	f.repo.payment = &models.Payment{ID: uuid.New(), OrderID: orderID, Status: enums.PaymentStatusCompleted}

	order, refunded, err := f.svc.MarkRefunded(context.Background(), orderID, nil)
	require.NoError(t, err)
	assert.True(t, refunded)
	assert.Equal(t, enums.OrderStatusRefunded, order.Status)

	require.Len(t, f.repo.savedPays, 1)
	assert.Equal(t, enums.PaymentStatusRefunded, f.repo.savedPays[0].Status)
	assert.NotNil(t, f.repo.savedPays[0].RefundedAt)
}
