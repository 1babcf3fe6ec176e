package accounting

import (
	"context"

	"github.com/google/uuid"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository manages persistence for accounting artifacts. Income entries,
// invoices and refund entries are unique per order; Create* calls surface the
// unique violation so the service can treat replays as already-done.
type Repository interface {
	CreateIncomeEntry(ctx context.Context, entry *models.IncomeEntry) error
	FindIncomeEntryByOrder(ctx context.Context, orderID uuid.UUID) (*models.IncomeEntry, error)
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	FindInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
	CreateRefundEntry(ctx context.Context, entry *models.RefundEntry) error
	FindRefundEntryByOrder(ctx context.Context, orderID uuid.UUID) (*models.RefundEntry, error)
	CreateResolution(ctx context.Context, resolution *models.Resolution) error
	FindAwaitingRefundResolution(ctx context.Context, orderID uuid.UUID) (*models.Resolution, error)
	UpdateResolution(ctx context.Context, resolution *models.Resolution) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an accounting repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateIncomeEntry(ctx context.Context, entry *models.IncomeEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindIncomeEntryByOrder(ctx context.Context, orderID uuid.UUID) (*models.IncomeEntry, error) {
	var entry models.IncomeEntry
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) FindInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) CreateRefundEntry(ctx context.Context, entry *models.RefundEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindRefundEntryByOrder(ctx context.Context, orderID uuid.UUID) (*models.RefundEntry, error) {
	var entry models.RefundEntry
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) CreateResolution(ctx context.Context, resolution *models.Resolution) error {
	return r.db.WithContext(ctx).Create(resolution).Error
}

func (r *repository) FindAwaitingRefundResolution(ctx context.Context, orderID uuid.UUID) (*models.Resolution, error) {
	var resolution models.Resolution
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, enums.ResolutionStatusAwaitingRefund).
		Order("created_at ASC").
		First(&resolution).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &resolution, nil
}

func (r *repository) UpdateResolution(ctx context.Context, resolution *models.Resolution) error {
	return r.db.WithContext(ctx).Save(resolution).Error
}
