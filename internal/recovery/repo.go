package recovery

import (
	"context"

	"github.com/google/uuid"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository manages persistence for recovery campaigns.
type Repository interface {
	CancelPendingByCustomer(ctx context.Context, customerID uuid.UUID) error
	// FindLatestSentByCustomer returns the most recent sent campaign, or nil
	// when the customer has none.
	FindLatestSentByCustomer(ctx context.Context, customerID uuid.UUID) (*models.RecoveryCampaign, error)
	Update(ctx context.Context, campaign *models.RecoveryCampaign) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a recovery campaign repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CancelPendingByCustomer(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.RecoveryCampaign{}).
		Where("customer_id = ? AND status = ?", customerID, enums.RecoveryCampaignStatusPending).
		UpdateColumn("status", enums.RecoveryCampaignStatusCancelled).Error
}

func (r *repository) FindLatestSentByCustomer(ctx context.Context, customerID uuid.UUID) (*models.RecoveryCampaign, error) {
	var campaign models.RecoveryCampaign
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, enums.RecoveryCampaignStatusSent).
		Order("sent_at DESC").
		First(&campaign).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

func (r *repository) Update(ctx context.Context, campaign *models.RecoveryCampaign) error {
	return r.db.WithContext(ctx).Save(campaign).Error
}
