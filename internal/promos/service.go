package promos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RejectionReason is the typed reason a promo redemption was refused.
type RejectionReason string

const (
	ReasonNotFound             RejectionReason = "not_found"
	ReasonInactive             RejectionReason = "inactive"
	ReasonNotStarted           RejectionReason = "not_started"
	ReasonExpired              RejectionReason = "expired"
	ReasonBelowMinimum         RejectionReason = "below_minimum"
	ReasonExhausted            RejectionReason = "exhausted"
	ReasonCustomerLimitReached RejectionReason = "customer_limit_reached"
)

// RedemptionInput carries the identity and amounts of one redemption attempt.
type RedemptionInput struct {
	CustomerID     *uuid.UUID
	Email          *string
	OrderID        uuid.UUID
	DiscountCents  int
	CartTotalCents int
}

// Service validates promo codes and records redemptions inside the caller's
// transaction.
type Service interface {
	// Quote resolves a code and computes the discount it grants against the
	// given cart total. It does not consume budget.
	Quote(ctx context.Context, code string, cartTotalCents int) (int, error)
	// ValidateAndRecord re-validates the code and consumes one use, writing
	// the usage ledger row as part of tx. Any rejection carries a
	// RejectionReason in its details.
	ValidateAndRecord(ctx context.Context, tx *gorm.DB, code string, input RedemptionInput) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a promo service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promos repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Quote(ctx context.Context, code string, cartTotalCents int) (int, error) {
	promo, err := s.loadAndValidate(ctx, s.repo, code, cartTotalCents)
	if err != nil {
		return 0, err
	}
	return ComputeDiscount(promo, cartTotalCents), nil
}

func (s *service) ValidateAndRecord(ctx context.Context, tx *gorm.DB, code string, input RedemptionInput) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.DiscountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount amount must be positive")
	}

	repo := s.repo.WithTx(tx)

	promo, err := s.loadAndValidate(ctx, repo, code, input.CartTotalCents)
	if err != nil {
		return err
	}

	if promo.MaxUsesPerUser > 0 {
		count, err := repo.CountUsagesByCustomer(ctx, promo.ID, input.CustomerID, input.Email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count promo usages")
		}
		if count >= int64(promo.MaxUsesPerUser) {
			return rejection(ReasonCustomerLimitReached, "promo code usage limit reached for this customer")
		}
	}

	// The guarded increment is the authoritative budget check. A stale read
	// above cannot over-consume: the UPDATE condition re-checks under the
	// transaction's serialization.
	consumed, err := repo.ConsumeBudget(ctx, promo.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume promo budget")
	}
	if !consumed {
		return rejection(ReasonExhausted, "promo code has been fully redeemed")
	}

	usage := &models.PromoUsage{
		PromoID:       promo.ID,
		OrderID:       input.OrderID,
		CustomerID:    input.CustomerID,
		Email:         input.Email,
		DiscountCents: input.DiscountCents,
	}
	// The guarded insert enforces the per-customer limit the same way: the
	// count above only shapes the fast rejection.
	recorded, err := repo.RecordUsage(ctx, usage, promo.MaxUsesPerUser)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record promo usage")
	}
	if !recorded {
		return rejection(ReasonCustomerLimitReached, "promo code usage limit reached for this customer")
	}
	return nil
}

func (s *service) loadAndValidate(ctx context.Context, repo Repository, code string, cartTotalCents int) (*models.Promo, error) {
	if strings.TrimSpace(code) == "" {
		return nil, rejection(ReasonNotFound, "promo code required")
	}

	promo, err := repo.FindByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, rejection(ReasonNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo")
	}

	now := s.now()
	switch {
	case !promo.Active:
		return nil, rejection(ReasonInactive, "promo code is not active")
	case promo.StartsAt != nil && now.Before(*promo.StartsAt):
		return nil, rejection(ReasonNotStarted, "promo code is not valid yet")
	case promo.ExpiresAt != nil && now.After(*promo.ExpiresAt):
		return nil, rejection(ReasonExpired, "promo code has expired")
	case cartTotalCents < promo.MinOrderCents:
		return nil, rejection(ReasonBelowMinimum, "order total below promo minimum")
	case promo.MaxUses != nil && promo.CurrentUses >= *promo.MaxUses:
		return nil, rejection(ReasonExhausted, "promo code has been fully redeemed")
	}

	return promo, nil
}

// ComputeDiscount returns the discount in cents the promo grants against the
// subtotal. Percentage math goes through decimal so 15% of $19.99 rounds the
// same way everywhere.
func ComputeDiscount(promo *models.Promo, subtotalCents int) int {
	if promo == nil || subtotalCents <= 0 {
		return 0
	}

	var discount int
	switch promo.DiscountType {
	case enums.PromoDiscountTypePercentage:
		discount = int(decimal.NewFromInt(int64(subtotalCents)).
			Mul(decimal.NewFromInt(int64(promo.DiscountValue))).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart())
	case enums.PromoDiscountTypeFixed:
		discount = promo.DiscountValue
	}

	if discount > subtotalCents {
		discount = subtotalCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// ReasonOf extracts the typed rejection reason from an error, if present.
func ReasonOf(err error) (RejectionReason, bool) {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "", false
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return "", false
	}
	reason, ok := details["reason"].(RejectionReason)
	return reason, ok
}

func rejection(reason RejectionReason, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]any{"reason": reason})
}
