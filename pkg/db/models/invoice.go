package models

import (
	"time"

	"github.com/google/uuid"
)

// Invoice is the billing document generated after payment confirmation.
// Unique on order_id; rendering and delivery happen outside this core.
type Invoice struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_invoices_order_id"`
	Number      string    `gorm:"column:number;not null;uniqueIndex:idx_invoices_number"`
	AmountCents int       `gorm:"column:amount_cents;not null"`
	IssuedAt    time.Time `gorm:"column:issued_at;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
