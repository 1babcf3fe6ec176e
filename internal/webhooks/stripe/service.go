package stripe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/printhaus/printhaus-backend/internal/accounting"
	"github.com/printhaus/printhaus-backend/internal/loyalty"
	"github.com/printhaus/printhaus-backend/internal/orders"
	"github.com/printhaus/printhaus-backend/pkg/db"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/logger"
	"github.com/printhaus/printhaus-backend/pkg/metrics"
	stripeapi "github.com/stripe/stripe-go/v84"
)

const (
	outcomeProcessed = "processed"
	outcomeDuplicate = "duplicate"
	outcomeIgnored   = "ignored"
	outcomeFailed    = "failed"

	metadataOrderID = "order_id"
)

// Service applies gateway events to order and payment state. Deliveries are
// at-least-once and unordered; every handler is written so a replayed or
// late event degrades to a no-op instead of a second state change.
type Service interface {
	HandleEvent(ctx context.Context, event *stripeapi.Event) error
}

type service struct {
	repo       Repository
	orders     orders.Service
	loyalty    loyalty.Service
	accounting accounting.Service
	metrics    *metrics.PaymentMetrics
	logg       *logger.Logger
}

// Deps bundles the webhook service dependencies.
type Deps struct {
	Repo       Repository
	Orders     orders.Service
	Loyalty    loyalty.Service
	Accounting accounting.Service
	Metrics    *metrics.PaymentMetrics
	Logger     *logger.Logger
}

// NewService wires the payment event processor.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, fmt.Errorf("webhook repository required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders service required")
	case deps.Loyalty == nil:
		return nil, fmt.Errorf("loyalty service required")
	case deps.Accounting == nil:
		return nil, fmt.Errorf("accounting service required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       deps.Repo,
		orders:     deps.Orders,
		loyalty:    deps.Loyalty,
		accounting: deps.Accounting,
		metrics:    deps.Metrics,
		logg:       deps.Logger,
	}, nil
}

func (s *service) HandleEvent(ctx context.Context, event *stripeapi.Event) error {
	if event == nil || event.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	ctx = s.logg.WithEventID(ctx, event.ID)
	eventType := string(event.Type)

	// The marker row goes in before any side effect. A duplicate delivery
	// hits the unique index here and the whole event becomes a soft no-op.
	marker := &models.WebhookEvent{StripeEventID: event.ID, EventType: eventType}
	if err := s.repo.CreateEvent(ctx, marker); err != nil {
		if db.IsUniqueViolation(err, "idx_webhook_events_stripe_event_id") {
			s.logg.Info(ctx, "duplicate webhook delivery ignored")
			s.metrics.ObserveWebhookEvent(eventType, outcomeDuplicate)
			return nil
		}
		s.metrics.ObserveWebhookEvent(eventType, outcomeFailed)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record webhook event")
	}

	var err error
	switch event.Type {
	case "checkout.session.completed":
		err = s.handleCheckoutCompleted(ctx, event)
	case "checkout.session.expired":
		err = s.handleCheckoutExpired(ctx, event)
	case "payment_intent.succeeded":
		err = s.handleIntentSucceeded(ctx, event)
	case "payment_intent.payment_failed":
		err = s.handleIntentFailed(ctx, event)
	case "charge.refunded":
		err = s.handleChargeRefunded(ctx, event)
	default:
		s.logg.Info(ctx, fmt.Sprintf("unhandled webhook event type %s", eventType))
		s.metrics.ObserveWebhookEvent(eventType, outcomeIgnored)
		return nil
	}

	if err != nil {
		s.metrics.ObserveWebhookEvent(eventType, outcomeFailed)
		return err
	}
	s.metrics.ObserveWebhookEvent(eventType, outcomeProcessed)
	return nil
}

func (s *service) handleCheckoutCompleted(ctx context.Context, event *stripeapi.Event) error {
	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}

	// Sessions can complete with payment still processing (e.g. bank
	// debits). Only a paid session confirms the order; Stripe sends a
	// follow-up async event when the money clears.
	if session.PaymentStatus != stripeapi.CheckoutSessionPaymentStatusPaid {
		s.logg.Warn(ctx, fmt.Sprintf("checkout session completed with payment status %s, skipping", session.PaymentStatus))
		return nil
	}

	orderID, err := orderIDFromSession(&session)
	if err != nil {
		return err
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	intentID := ""
	if session.PaymentIntent != nil {
		intentID = session.PaymentIntent.ID
	}

	order, confirmed, err := s.orders.ConfirmPayment(ctx, orders.ConfirmPaymentInput{
		OrderID:         orderID,
		StripePaymentID: intentID,
		AmountPaidCents: int(session.AmountTotal),
		GatewayResponse: event.Data.Raw,
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
			// Money was taken for an order that can no longer accept it.
			// File the claim so support refunds it; the delivery itself
			// succeeded.
			s.logg.Error(ctx, "payment landed on a closed order", err)
			if _, resErr := s.accounting.OpenAwaitingRefund(ctx, orderID, "payment confirmed for closed order"); resErr != nil {
				s.logg.Error(ctx, "resolution filing failed", resErr)
				s.metrics.ObserveSideEffectFailure("resolution")
			}
			return nil
		}
		return err
	}
	if !confirmed {
		s.logg.Info(ctx, "order already confirmed, skipping side effects")
		return nil
	}

	// Side effects are individually isolated: a failed invoice must not
	// undo the confirmation or block the points award. Each failure is
	// logged and counted, never returned.
	if err := s.accounting.ConfirmPaid(ctx, order.ID, order.TotalCents); err != nil {
		s.logg.Error(ctx, "accounting side effects failed", err)
		s.metrics.ObserveSideEffectFailure("accounting")
	}
	if _, err := s.loyalty.Award(ctx, order.CustomerID, order.ID, order.TotalCents); err != nil {
		s.logg.Error(ctx, "loyalty award failed", err)
		s.metrics.ObserveSideEffectFailure("loyalty_award")
	}
	return nil
}

func (s *service) handleCheckoutExpired(ctx context.Context, event *stripeapi.Event) error {
	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}

	orderID, err := orderIDFromSession(&session)
	if err != nil {
		// Expiry for a session we never attached to an order is noise.
		s.logg.Warn(ctx, "expired session carries no order reference")
		return nil
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	cancelled, err := s.orders.CancelExpired(ctx, orderID)
	if err != nil {
		return err
	}
	if !cancelled {
		s.logg.Info(ctx, "expired session for a non-pending order, ignoring")
	}
	return nil
}

func (s *service) handleIntentSucceeded(ctx context.Context, event *stripeapi.Event) error {
	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
	}

	// Advisory only. Confirmation authority stays with
	// checkout.session.completed, which carries the session-level payment
	// status this event lacks.
	orderID, ok := orderIDFromMetadata(intent.Metadata)
	if !ok {
		s.logg.Info(ctx, "payment intent succeeded without order reference, ignoring")
		return nil
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())
	if err := s.orders.RecordAdvisoryIntent(ctx, orderID, intent.ID, event.Data.Raw); err != nil {
		s.logg.Error(ctx, "advisory intent note failed", err)
	}
	return nil
}

func (s *service) handleIntentFailed(ctx context.Context, event *stripeapi.Event) error {
	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
	}

	orderID, ok := orderIDFromMetadata(intent.Metadata)
	if !ok {
		s.logg.Info(ctx, "payment failure without order reference, ignoring")
		return nil
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	reason := "payment failed"
	if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
		reason = intent.LastPaymentError.Msg
	}

	cancelled, err := s.orders.RecordPaymentFailure(ctx, orderID, reason, event.Data.Raw)
	if err != nil {
		return err
	}
	if !cancelled {
		s.logg.Info(ctx, "payment failure for a non-pending order, ignoring")
	}
	return nil
}

func (s *service) handleChargeRefunded(ctx context.Context, event *stripeapi.Event) error {
	var charge stripeapi.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge")
	}

	intentID := ""
	if charge.PaymentIntent != nil {
		intentID = charge.PaymentIntent.ID
	}
	if intentID == "" {
		s.logg.Warn(ctx, "refunded charge carries no payment intent, ignoring")
		return nil
	}

	payment, err := s.orders.FindPaymentByStripeID(ctx, intentID)
	if err != nil {
		return err
	}
	if payment == nil {
		// A refund we cannot match to a payment is money leaving the books
		// unreconciled. Fail so the gateway redelivers once the payment
		// record lands.
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found for refunded charge").
			WithDetails(map[string]any{"payment_intent_id": intentID})
	}
	ctx = s.logg.WithOrderID(ctx, payment.OrderID.String())
	if payment.Status == enums.PaymentStatusRefunded {
		s.logg.Info(ctx, "payment already refunded, ignoring")
		return nil
	}

	_, refunded, err := s.orders.MarkRefunded(ctx, payment.OrderID, event.Data.Raw)
	if err != nil {
		return err
	}
	if !refunded {
		return nil
	}

	reason := "gateway refund"
	if charge.Refunds != nil && len(charge.Refunds.Data) > 0 && charge.Refunds.Data[0].Reason != "" {
		reason = string(charge.Refunds.Data[0].Reason)
	}
	if err := s.accounting.SettleRefund(ctx, payment.OrderID, payment.ID, int(charge.AmountRefunded), reason); err != nil {
		s.logg.Error(ctx, "refund accounting failed", err)
		s.metrics.ObserveSideEffectFailure("refund_accounting")
	}
	return nil
}

// orderIDFromSession resolves the order reference a checkout session carries,
// preferring metadata and falling back to the client reference id.
func orderIDFromSession(session *stripeapi.CheckoutSession) (uuid.UUID, error) {
	if id, ok := orderIDFromMetadata(session.Metadata); ok {
		return id, nil
	}
	if session.ClientReferenceID != "" {
		if id, err := uuid.Parse(session.ClientReferenceID); err == nil {
			return id, nil
		}
	}
	return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session carries no order id")
}

func orderIDFromMetadata(metadata map[string]string) (uuid.UUID, bool) {
	raw, ok := metadata[metadataOrderID]
	if !ok || raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
