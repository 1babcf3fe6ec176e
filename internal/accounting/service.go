package accounting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/printhaus/printhaus-backend/pkg/db"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/logger"
	"go.uber.org/multierr"
)

// Service books the accounting side effects of payment events. Every
// operation is idempotent per order: unique indexes on order_id turn replays
// into no-ops, and ConfirmPaid isolates each side effect so one failure never
// rolls back or blocks the others.
type Service interface {
	RecordIncome(ctx context.Context, orderID uuid.UUID, amountCents int) (*models.IncomeEntry, error)
	GenerateInvoice(ctx context.Context, orderID uuid.UUID, amountCents int) (*models.Invoice, error)
	RecordRefund(ctx context.Context, orderID, paymentID uuid.UUID, amountCents int, reason string) (*models.RefundEntry, error)
	// ConfirmPaid runs the post-confirmation side effects (income entry,
	// invoice) and returns the accumulated failures for the caller to log.
	// The order itself is already confirmed by the time this runs.
	ConfirmPaid(ctx context.Context, orderID uuid.UUID, amountCents int) error
	// SettleRefund books the refund entry and completes any resolution that
	// was waiting on it.
	SettleRefund(ctx context.Context, orderID, paymentID uuid.UUID, amountCents int, reason string) error
	// OpenAwaitingRefund files a resolution for money that arrived against an
	// order that cannot accept it. Idempotent: an existing open claim for the
	// order is reused.
	OpenAwaitingRefund(ctx context.Context, orderID uuid.UUID, note string) (*models.Resolution, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the accounting service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("accounting repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) RecordIncome(ctx context.Context, orderID uuid.UUID, amountCents int) (*models.IncomeEntry, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if amountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "income amount must be non-negative")
	}

	entry := &models.IncomeEntry{
		OrderID:     orderID,
		AmountCents: amountCents,
		Source:      "order",
		Description: fmt.Sprintf("payment for order %s", orderID),
	}
	if err := s.repo.CreateIncomeEntry(ctx, entry); err != nil {
		if db.IsUniqueViolation(err, "idx_income_entries_order_id") {
			return s.repo.FindIncomeEntryByOrder(ctx, orderID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record income entry")
	}
	return entry, nil
}

func (s *service) GenerateInvoice(ctx context.Context, orderID uuid.UUID, amountCents int) (*models.Invoice, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if amountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice amount must be non-negative")
	}

	issuedAt := s.now().UTC()
	invoice := &models.Invoice{
		OrderID:     orderID,
		Number:      invoiceNumber(orderID, issuedAt),
		AmountCents: amountCents,
		IssuedAt:    issuedAt,
	}
	if err := s.repo.CreateInvoice(ctx, invoice); err != nil {
		if db.IsUniqueViolation(err, "idx_invoices_order_id") {
			return s.repo.FindInvoiceByOrder(ctx, orderID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate invoice")
	}
	return invoice, nil
}

func (s *service) RecordRefund(ctx context.Context, orderID, paymentID uuid.UUID, amountCents int, reason string) (*models.RefundEntry, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if amountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be non-negative")
	}
	if strings.TrimSpace(reason) == "" {
		reason = "gateway refund"
	}

	entry := &models.RefundEntry{
		OrderID:     orderID,
		PaymentID:   paymentID,
		AmountCents: amountCents,
		Reason:      reason,
	}
	if err := s.repo.CreateRefundEntry(ctx, entry); err != nil {
		if db.IsUniqueViolation(err, "idx_refund_entries_order_id") {
			return s.repo.FindRefundEntryByOrder(ctx, orderID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund entry")
	}
	return entry, nil
}

func (s *service) ConfirmPaid(ctx context.Context, orderID uuid.UUID, amountCents int) error {
	var errs error

	if _, err := s.RecordIncome(ctx, orderID, amountCents); err != nil {
		s.logg.Error(ctx, "income entry failed", err)
		errs = multierr.Append(errs, fmt.Errorf("income entry: %w", err))
	}
	if _, err := s.GenerateInvoice(ctx, orderID, amountCents); err != nil {
		s.logg.Error(ctx, "invoice generation failed", err)
		errs = multierr.Append(errs, fmt.Errorf("invoice: %w", err))
	}

	return errs
}

func (s *service) SettleRefund(ctx context.Context, orderID, paymentID uuid.UUID, amountCents int, reason string) error {
	var errs error

	if _, err := s.RecordRefund(ctx, orderID, paymentID, amountCents, reason); err != nil {
		s.logg.Error(ctx, "refund entry failed", err)
		errs = multierr.Append(errs, fmt.Errorf("refund entry: %w", err))
	}

	resolution, err := s.repo.FindAwaitingRefundResolution(ctx, orderID)
	if err != nil {
		s.logg.Error(ctx, "resolution lookup failed", err)
		return multierr.Append(errs, fmt.Errorf("resolution lookup: %w", err))
	}
	if resolution == nil {
		return errs
	}

	now := s.now().UTC()
	resolution.Status = enums.ResolutionStatusCompleted
	resolution.CompletedAt = &now
	if err := s.repo.UpdateResolution(ctx, resolution); err != nil {
		s.logg.Error(ctx, "resolution completion failed", err)
		errs = multierr.Append(errs, fmt.Errorf("resolution completion: %w", err))
	}

	return errs
}

func (s *service) OpenAwaitingRefund(ctx context.Context, orderID uuid.UUID, note string) (*models.Resolution, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	existing, err := s.repo.FindAwaitingRefundResolution(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing resolution")
	}
	if existing != nil {
		return existing, nil
	}

	resolution := &models.Resolution{
		OrderID: orderID,
		Status:  enums.ResolutionStatusAwaitingRefund,
	}
	if strings.TrimSpace(note) != "" {
		resolution.Note = &note
	}
	if err := s.repo.CreateResolution(ctx, resolution); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open resolution")
	}
	return resolution, nil
}

// invoiceNumber derives a stable, human-readable invoice number from the
// order id. Deterministic per order so a replayed confirmation produces the
// same number instead of a unique-index clash on a second insert.
func invoiceNumber(orderID uuid.UUID, issuedAt time.Time) string {
	compact := strings.ToUpper(strings.ReplaceAll(orderID.String(), "-", ""))
	return fmt.Sprintf("PH-%d-%s", issuedAt.Year(), compact[:12])
}
