package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/printhaus/printhaus-backend/pkg/enums"
)

// LoyaltyTransaction is one append-only loyalty ledger row. Points are
// positive for awards and negative for redemptions; a customer's balance is
// the sum of their rows.
type LoyaltyTransaction struct {
	ID         uuid.UUID                    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID                    `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderID    uuid.UUID                    `gorm:"column:order_id;type:uuid;not null"`
	Type       enums.LoyaltyTransactionType `gorm:"column:type;type:text;not null"`
	Points     int                          `gorm:"column:points;not null"`
	CreatedAt  time.Time                    `gorm:"column:created_at;autoCreateTime"`
}
