package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
)

// Service maintains win-back campaign state around checkouts. Both operations
// run post-commit and best-effort; callers log failures instead of
// propagating them.
type Service interface {
	// CancelPending cancels campaigns that have not been sent yet; a customer
	// who just ordered does not need a nudge.
	CancelPending(ctx context.Context, customerID uuid.UUID) error
	// CheckConversion marks the most recent sent campaign converted when an
	// order follows it.
	CheckConversion(ctx context.Context, customerID, orderID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires a recovery campaign service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("recovery repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CancelPending(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if err := s.repo.CancelPendingByCustomer(ctx, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel pending campaigns")
	}
	return nil
}

func (s *service) CheckConversion(ctx context.Context, customerID, orderID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	campaign, err := s.repo.FindLatestSentByCustomer(ctx, customerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sent campaign")
	}
	if campaign == nil {
		return nil
	}

	now := time.Now().UTC()
	campaign.Status = enums.RecoveryCampaignStatusConverted
	campaign.OrderID = &orderID
	campaign.ConvertedAt = &now
	if err := s.repo.Update(ctx, campaign); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark campaign converted")
	}
	return nil
}
