package promos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages persistence for promo definitions and their usage ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.Promo, error)
	// ConsumeBudget performs the guarded increment: one use is consumed only
	// if the budget still has room. Reports whether a use was consumed.
	ConsumeBudget(ctx context.Context, promoID uuid.UUID) (bool, error)
	CountUsagesByCustomer(ctx context.Context, promoID uuid.UUID, customerID *uuid.UUID, email *string) (int64, error)
	// RecordUsage writes the usage ledger row. When maxUsesPerUser is positive
	// and the row carries a customer identity, the insert is guarded on the
	// existing usage count. Reports whether the row was written.
	RecordUsage(ctx context.Context, usage *models.PromoUsage, maxUsesPerUser int) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a promos repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Promo, error) {
	var promo models.Promo
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// ConsumeBudget increments current_uses only while it is still below
// max_uses. The condition runs inside the UPDATE so two transactions cannot
// both pass the budget check after the other consumed the last use.
func (r *repository) ConsumeBudget(ctx context.Context, promoID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Promo{}).
		Where("id = ? AND (max_uses IS NULL OR current_uses < max_uses)", promoID).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CountUsagesByCustomer(ctx context.Context, promoID uuid.UUID, customerID *uuid.UUID, email *string) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PromoUsage{}).
		Where("promo_id = ?", promoID)

	switch {
	case customerID != nil:
		query = query.Where("customer_id = ?", *customerID)
	case email != nil:
		query = query.Where("email = ?", *email)
	default:
		return 0, nil
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// RecordUsage counts the customer's prior usages inside the INSERT itself,
// the same shape as ConsumeBudget, so two transactions cannot both pass the
// per-customer limit after reading the same count.
func (r *repository) RecordUsage(ctx context.Context, usage *models.PromoUsage, maxUsesPerUser int) (bool, error) {
	var identityCol string
	var identity any
	switch {
	case usage.CustomerID != nil:
		identityCol, identity = "customer_id", *usage.CustomerID
	case usage.Email != nil:
		identityCol, identity = "email", *usage.Email
	}
	if maxUsesPerUser <= 0 || identityCol == "" {
		return true, r.db.WithContext(ctx).Create(usage).Error
	}

	if usage.ID == uuid.Nil {
		usage.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).Exec(
		`INSERT INTO promo_usages (id, promo_id, order_id, customer_id, email, discount_cents, created_at)
SELECT ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP
WHERE (SELECT COUNT(*) FROM promo_usages WHERE promo_id = ? AND `+identityCol+` = ?) < ?`,
		usage.ID, usage.PromoID, usage.OrderID, usage.CustomerID, usage.Email, usage.DiscountCents,
		usage.PromoID, identity, maxUsesPerUser,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
