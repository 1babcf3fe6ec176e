package models

import (
	"time"

	"github.com/google/uuid"
)

// RefundEntry records money returned to a customer against a payment.
type RefundEntry struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_refund_entries_order_id"`
	PaymentID   uuid.UUID `gorm:"column:payment_id;type:uuid;not null"`
	AmountCents int       `gorm:"column:amount_cents;not null"`
	Reason      string    `gorm:"column:reason;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
