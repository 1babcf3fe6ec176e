package loyalty

import (
	"context"

	"github.com/google/uuid"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages persistence for the loyalty points ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.LoyaltyTransaction) error
	// DebitPoints writes the negative redeem row only while the customer's
	// summed balance still covers it. Reports whether the row was written.
	DebitPoints(ctx context.Context, txn *models.LoyaltyTransaction) (bool, error)
	SumPointsByCustomer(ctx context.Context, customerID uuid.UUID) (int, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.LoyaltyTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a loyalty repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.LoyaltyTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// DebitPoints re-sums the balance inside the INSERT itself so two
// transactions cannot both spend the same points after reading the same
// balance.
func (r *repository) DebitPoints(ctx context.Context, txn *models.LoyaltyTransaction) (bool, error) {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	res := r.db.WithContext(ctx).Exec(
		`INSERT INTO loyalty_transactions (id, customer_id, order_id, type, points, created_at)
SELECT ?, ?, ?, ?, ?, CURRENT_TIMESTAMP
WHERE (SELECT COALESCE(SUM(points), 0) FROM loyalty_transactions WHERE customer_id = ?) >= ?`,
		txn.ID, txn.CustomerID, txn.OrderID, txn.Type, txn.Points,
		txn.CustomerID, -txn.Points,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SumPointsByCustomer(ctx context.Context, customerID uuid.UUID) (int, error) {
	var balance *int
	err := r.db.WithContext(ctx).
		Model(&models.LoyaltyTransaction{}).
		Select("SUM(points)").
		Where("customer_id = ?", customerID).
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	if balance == nil {
		return 0, nil
	}
	return *balance, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.LoyaltyTransaction, error) {
	var txns []models.LoyaltyTransaction
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
