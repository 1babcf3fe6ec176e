package loyalty

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/printhaus/printhaus-backend/pkg/config"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service is the loyalty points ledger. Redemption runs inside the order
// creation transaction; awards run only after payment confirmation, covered
// by the webhook idempotency guard.
type Service interface {
	// Redeem debits points from the customer's balance as part of tx and
	// returns the discount in cents the redemption grants.
	Redeem(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, points int, orderID uuid.UUID) (int, error)
	// Award credits points proportional to the amount paid.
	Award(ctx context.Context, customerID, orderID uuid.UUID, amountPaidCents int) (*models.LoyaltyTransaction, error)
	Balance(ctx context.Context, customerID uuid.UUID) (int, error)
	// RedeemValueCents is the discount one point grants.
	RedeemValueCents() int
}

type service struct {
	repo Repository
	cfg  config.LoyaltyConfig
}

// NewService wires a loyalty service with the provided repository and rates.
func NewService(repo Repository, cfg config.LoyaltyConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	if cfg.AwardRate <= 0 {
		return nil, fmt.Errorf("loyalty award rate must be positive")
	}
	if cfg.RedeemValueCents <= 0 {
		return nil, fmt.Errorf("loyalty redeem value must be positive")
	}
	return &service{repo: repo, cfg: cfg}, nil
}

func (s *service) Redeem(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, points int, orderID uuid.UUID) (int, error) {
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if customerID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if orderID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if points <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "points to redeem must be positive")
	}

	repo := s.repo.WithTx(tx)

	balance, err := repo.SumPointsByCustomer(ctx, customerID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load points balance")
	}
	if points > balance {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "insufficient points balance").
			WithDetails(map[string]any{"balance": balance, "requested": points})
	}

	txn := &models.LoyaltyTransaction{
		CustomerID: customerID,
		OrderID:    orderID,
		Type:       enums.LoyaltyTransactionTypeRedeem,
		Points:     -points,
	}
	// The guarded insert is the authoritative balance check. The read above
	// only shapes the rejection payload; a stale read cannot drive the
	// ledger negative.
	debited, err := repo.DebitPoints(ctx, txn)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record points redemption")
	}
	if !debited {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "insufficient points balance").
			WithDetails(map[string]any{"requested": points})
	}

	return points * s.cfg.RedeemValueCents, nil
}

func (s *service) Award(ctx context.Context, customerID, orderID uuid.UUID, amountPaidCents int) (*models.LoyaltyTransaction, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if amountPaidCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount paid must be non-negative")
	}

	points := (amountPaidCents / 100) * s.cfg.AwardRate
	if points == 0 {
		return nil, nil
	}

	txn := &models.LoyaltyTransaction{
		CustomerID: customerID,
		OrderID:    orderID,
		Type:       enums.LoyaltyTransactionTypeAward,
		Points:     points,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record points award")
	}
	return txn, nil
}

func (s *service) RedeemValueCents() int {
	return s.cfg.RedeemValueCents
}

func (s *service) Balance(ctx context.Context, customerID uuid.UUID) (int, error) {
	if customerID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	balance, err := s.repo.SumPointsByCustomer(ctx, customerID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load points balance")
	}
	return balance, nil
}
