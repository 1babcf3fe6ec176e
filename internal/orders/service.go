package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/printhaus/printhaus-backend/internal/loyalty"
	"github.com/printhaus/printhaus-backend/internal/promos"
	"github.com/printhaus/printhaus-backend/internal/recovery"
	"github.com/printhaus/printhaus-backend/pkg/config"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/logger"
	"github.com/printhaus/printhaus-backend/pkg/metrics"
	"gorm.io/gorm"
)

// Service is the order lifecycle manager. Create runs the single checkout
// transaction (order, items, promo redemption, points redemption); the
// Confirm/Cancel/Refund operations are the status transitions driven by
// gateway events, each guarded so replays and races degrade to no-ops.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByShareToken(ctx context.Context, token string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error)
	// ConfirmPayment moves a pending order to payment_confirmed and completes
	// its payment row. The bool is false when the order was already
	// confirmed, making redelivery a no-op. Confirmation against a cancelled
	// or refunded order is a state conflict.
	ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*models.Order, bool, error)
	// CancelExpired cancels a still-pending order whose checkout session
	// expired. The bool is false when the order was not pending.
	CancelExpired(ctx context.Context, orderID uuid.UUID) (bool, error)
	// RecordPaymentFailure marks the payment failed and cancels the order if
	// it is still pending.
	RecordPaymentFailure(ctx context.Context, orderID uuid.UUID, failureReason string, gatewayResponse []byte) (bool, error)
	// MarkRefunded moves a paid order to refunded and stamps the payment row.
	// The bool is false when the order was already refunded.
	MarkRefunded(ctx context.Context, orderID uuid.UUID, gatewayResponse []byte) (*models.Order, bool, error)
	// RecordAdvisoryIntent notes a gateway payment intent against the order's
	// payment row without touching order status.
	RecordAdvisoryIntent(ctx context.Context, orderID uuid.UUID, intentID string, gatewayResponse []byte) error
	FindPaymentByStripeID(ctx context.Context, stripePaymentID string) (*models.Payment, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartClearer interface {
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type service struct {
	runner   txRunner
	repo     Repository
	promos   promos.Service
	loyalty  loyalty.Service
	cart     cartClearer
	recovery recovery.Service
	metrics  *metrics.PaymentMetrics
	logg     *logger.Logger
	cfg      config.OrdersConfig
	now      func() time.Time
}

// Deps bundles the order service dependencies. Cart and recovery are
// optional; when nil the post-commit housekeeping for them is skipped.
type Deps struct {
	Runner   txRunner
	Repo     Repository
	Promos   promos.Service
	Loyalty  loyalty.Service
	Cart     cartClearer
	Recovery recovery.Service
	Metrics  *metrics.PaymentMetrics
	Logger   *logger.Logger
	Config   config.OrdersConfig
}

// NewService wires the order service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Runner == nil:
		return nil, fmt.Errorf("tx runner required")
	case deps.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Promos == nil:
		return nil, fmt.Errorf("promos service required")
	case deps.Loyalty == nil:
		return nil, fmt.Errorf("loyalty service required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	if deps.Config.Currency == "" {
		deps.Config.Currency = "usd"
	}
	return &service{
		runner:   deps.Runner,
		repo:     deps.Repo,
		promos:   deps.Promos,
		loyalty:  deps.Loyalty,
		cart:     deps.Cart,
		recovery: deps.Recovery,
		metrics:  deps.Metrics,
		logg:     deps.Logger,
		cfg:      deps.Config,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := validateCreateInput(input); err != nil {
		s.metrics.ObserveOrderCreated("rejected")
		return nil, err
	}

	ctx = s.logg.WithCustomerID(ctx, input.CustomerID.String())
	subtotal := input.SubtotalCents()

	// Quote the promo before opening the transaction so obviously bad codes
	// fail fast. The authoritative budget consumption happens inside the
	// transaction and may still reject.
	promoDiscount := 0
	if input.PromoCode != nil {
		discount, err := s.promos.Quote(ctx, *input.PromoCode, subtotal)
		if err != nil {
			s.observePromoRejection(err)
			s.metrics.ObserveOrderCreated("rejected")
			return nil, err
		}
		promoDiscount = discount
	}

	pointsToRedeem, pointsDiscount := s.sizePointsRedemption(input.PointsToRedeem, subtotal-promoDiscount)

	orderID := uuid.New()
	order := &models.Order{
		ID:                  orderID,
		CustomerID:          input.CustomerID,
		Status:              enums.OrderStatusPending,
		Currency:            s.cfg.Currency,
		SubtotalCents:       subtotal,
		DiscountCents:       promoDiscount,
		PromoCode:           normalizedPromoCode(input.PromoCode),
		PointsRedeemed:      pointsToRedeem,
		PointsDiscountCents: pointsDiscount,
		ShippingCents:       input.ShippingCents,
		TaxCents:            input.TaxCents,
		TotalCents:          subtotal - promoDiscount - pointsDiscount + input.ShippingCents + input.TaxCents,
		ShippingAddress:     input.ShippingAddress,
		ShareToken:          newShareToken(),
		Items:               input.ItemModels(orderID),
	}

	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if input.PromoCode != nil {
			redemption := promos.RedemptionInput{
				CustomerID:     &input.CustomerID,
				Email:          input.Email,
				OrderID:        orderID,
				DiscountCents:  promoDiscount,
				CartTotalCents: subtotal,
			}
			if err := s.promos.ValidateAndRecord(ctx, tx, *input.PromoCode, redemption); err != nil {
				return err
			}
		}

		if pointsToRedeem > 0 {
			granted, err := s.loyalty.Redeem(ctx, tx, input.CustomerID, pointsToRedeem, orderID)
			if err != nil {
				return err
			}
			if granted != pointsDiscount {
				return pkgerrors.New(pkgerrors.CodeInternal, "points discount mismatch")
			}
		}

		payment := &models.Payment{
			OrderID:     orderID,
			AmountCents: order.TotalCents,
			Currency:    order.Currency,
			Method:      "card",
			Status:      enums.PaymentStatusPending,
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment record")
		}

		if order.TotalCents < 0 {
			return pkgerrors.New(pkgerrors.CodeInternal, "order total went negative")
		}
		return nil
	})
	if err != nil {
		s.observePromoRejection(err)
		s.metrics.ObserveOrderCreated("failed")
		return nil, err
	}

	s.metrics.ObserveOrderCreated("success")
	s.afterCheckout(ctx, input.CustomerID, orderID)
	return order, nil
}

// afterCheckout runs the non-transactional housekeeping. Failures here must
// never surface to the customer; the order is already committed.
func (s *service) afterCheckout(ctx context.Context, customerID, orderID uuid.UUID) {
	if s.cart != nil {
		if err := s.cart.Clear(ctx, customerID); err != nil {
			s.logg.Error(ctx, "cart clear after checkout failed", err)
		}
	}
	if s.recovery != nil {
		if err := s.recovery.CancelPending(ctx, customerID); err != nil {
			s.logg.Error(ctx, "recovery campaign cancellation failed", err)
		}
		if err := s.recovery.CheckConversion(ctx, customerID, orderID); err != nil {
			s.logg.Error(ctx, "recovery conversion check failed", err)
		}
	}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) GetByShareToken(ctx context.Context, token string) (*models.Order, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "share token required")
	}
	order, err := s.repo.FindByShareToken(ctx, token)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	list, err := s.repo.ListByCustomer(ctx, customerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*models.Order, bool, error) {
	if input.OrderID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.Get(ctx, input.OrderID)
	if err != nil {
		return nil, false, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	switch {
	case order.Status.IsPaid():
		return order, false, nil
	case order.Status == enums.OrderStatusCancelled, order.Status == enums.OrderStatusRefunded:
		return nil, false, pkgerrors.New(pkgerrors.CodeStateConflict, "payment confirmed for a closed order").
			WithDetails(map[string]any{"order_id": order.ID, "status": order.Status})
	}

	if input.AmountPaidCents != order.TotalCents {
		s.logg.Warn(ctx, fmt.Sprintf("paid amount %d differs from order total %d", input.AmountPaidCents, order.TotalCents))
	}

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		moved, err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPaymentConfirmed, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
		}
		if !moved {
			// Lost the race to a concurrent delivery; the winner did the work.
			return nil
		}

		now := s.now().UTC()
		payment, err := repo.FindPaymentByOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment record")
		}
		if payment == nil {
			payment = &models.Payment{
				OrderID:     order.ID,
				AmountCents: input.AmountPaidCents,
				Currency:    order.Currency,
				Method:      "card",
			}
		}
		payment.Status = enums.PaymentStatusCompleted
		payment.StripePaymentID = &input.StripePaymentID
		payment.PaidAt = &now
		if len(input.GatewayResponse) > 0 {
			payment.GatewayResponse = input.GatewayResponse
		}
		if payment.ID == uuid.Nil {
			return repo.CreatePayment(ctx, payment)
		}
		return repo.SavePayment(ctx, payment)
	})
	if err != nil {
		return nil, false, err
	}

	order, err = s.Get(ctx, input.OrderID)
	if err != nil {
		return nil, false, err
	}
	return order, order.Status == enums.OrderStatusPaymentConfirmed, nil
}

func (s *service) CancelExpired(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	var cancelled bool
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		now := s.now().UTC()
		moved, err := repo.UpdateStatus(ctx, orderID, enums.OrderStatusPending, enums.OrderStatusCancelled, map[string]any{
			"cancel_reason": enums.OrderCancelReasonCheckoutExpired,
			"cancelled_at":  now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel expired order")
		}
		cancelled = moved
		if !moved {
			return nil
		}

		payment, err := repo.FindPaymentByOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment record")
		}
		if payment == nil || payment.Status != enums.PaymentStatusPending {
			return nil
		}
		reason := "checkout session expired"
		payment.Status = enums.PaymentStatusFailed
		payment.FailureReason = &reason
		return repo.SavePayment(ctx, payment)
	})
	if err != nil {
		return false, err
	}
	return cancelled, nil
}

func (s *service) RecordPaymentFailure(ctx context.Context, orderID uuid.UUID, failureReason string, gatewayResponse []byte) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if strings.TrimSpace(failureReason) == "" {
		failureReason = "payment failed"
	}

	var cancelled bool
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		now := s.now().UTC()
		moved, err := repo.UpdateStatus(ctx, orderID, enums.OrderStatusPending, enums.OrderStatusCancelled, map[string]any{
			"cancel_reason": enums.OrderCancelReasonPaymentFailed,
			"cancelled_at":  now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel failed order")
		}
		cancelled = moved
		if !moved {
			// Confirmed or already closed; the failure is stale.
			return nil
		}

		payment, err := repo.FindPaymentByOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment record")
		}
		if payment == nil {
			return nil
		}
		payment.Status = enums.PaymentStatusFailed
		payment.FailureReason = &failureReason
		if len(gatewayResponse) > 0 {
			payment.GatewayResponse = gatewayResponse
		}
		return repo.SavePayment(ctx, payment)
	})
	if err != nil {
		return false, err
	}
	return cancelled, nil
}

func (s *service) MarkRefunded(ctx context.Context, orderID uuid.UUID, gatewayResponse []byte) (*models.Order, bool, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, false, err
	}

	if order.Status == enums.OrderStatusRefunded {
		return order, false, nil
	}
	if !order.Status.CanTransitionTo(enums.OrderStatusRefunded) {
		return nil, false, pkgerrors.New(pkgerrors.CodeStateConflict, "refund received for an unpaid order").
			WithDetails(map[string]any{"order_id": order.ID, "status": order.Status})
	}

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		moved, err := repo.UpdateStatus(ctx, order.ID, order.Status, enums.OrderStatusRefunded, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order refunded")
		}
		if !moved {
			return nil
		}

		payment, err := repo.FindPaymentByOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment record")
		}
		if payment == nil {
			return nil
		}
		now := s.now().UTC()
		payment.Status = enums.PaymentStatusRefunded
		payment.RefundedAt = &now
		if len(gatewayResponse) > 0 {
			payment.GatewayResponse = gatewayResponse
		}
		return repo.SavePayment(ctx, payment)
	})
	if err != nil {
		return nil, false, err
	}

	order, err = s.Get(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	return order, true, nil
}

func (s *service) RecordAdvisoryIntent(ctx context.Context, orderID uuid.UUID, intentID string, gatewayResponse []byte) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	payment, err := s.repo.FindPaymentByOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment record")
	}
	if payment == nil {
		return nil
	}
	if payment.StripePaymentID == nil && intentID != "" {
		payment.StripePaymentID = &intentID
	}
	if len(gatewayResponse) > 0 && payment.Status == enums.PaymentStatusPending {
		payment.GatewayResponse = gatewayResponse
	}
	if err := s.repo.SavePayment(ctx, payment); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment record")
	}
	return nil
}

func (s *service) FindPaymentByStripeID(ctx context.Context, stripePaymentID string) (*models.Payment, error) {
	if strings.TrimSpace(stripePaymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway payment id required")
	}
	payment, err := s.repo.FindPaymentByStripeID(ctx, stripePaymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment record")
	}
	return payment, nil
}

// sizePointsRedemption caps the redemption so the discount never exceeds what
// is left of the subtotal after the promo. Points are reduced, not burned:
// the ledger only debits points that bought a discount.
func (s *service) sizePointsRedemption(requested, remainingCents int) (points, discountCents int) {
	if requested <= 0 || remainingCents <= 0 {
		return 0, 0
	}
	rate := s.loyalty.RedeemValueCents()
	points = requested
	if limit := remainingCents / rate; points > limit {
		points = limit
	}
	return points, points * rate
}

func (s *service) observePromoRejection(err error) {
	if reason, ok := promos.ReasonOf(err); ok {
		s.metrics.ObservePromoRejection(string(reason))
	}
}

func validateCreateInput(input CreateOrderInput) error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPriceCents < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price must be non-negative")
		}
	}
	if input.PointsToRedeem < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "points to redeem must be non-negative")
	}
	if input.ShippingCents < 0 || input.TaxCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping and tax must be non-negative")
	}
	if input.ShippingAddress != nil {
		if missing := input.ShippingAddress.Validate(); missing != "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "shipping address incomplete").
				WithDetails(map[string]any{"missing": missing})
		}
	}
	return nil
}

func normalizedPromoCode(code *string) *string {
	if code == nil {
		return nil
	}
	normalized := strings.ToUpper(strings.TrimSpace(*code))
	if normalized == "" {
		return nil
	}
	return &normalized
}

func newShareToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
