package models

import (
	"time"

	"github.com/google/uuid"
)

// PromoUsage is the append-only ledger entry linking one redemption to one
// order. Rows are created in the same transaction as the consuming order and
// never mutated.
type PromoUsage struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PromoID       uuid.UUID  `gorm:"column:promo_id;type:uuid;not null;index"`
	OrderID       uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	CustomerID    *uuid.UUID `gorm:"column:customer_id;type:uuid"`
	Email         *string    `gorm:"column:email"`
	DiscountCents int        `gorm:"column:discount_cents;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}
