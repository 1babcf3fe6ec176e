package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/printhaus/printhaus-backend/pkg/enums"
)

// Payment is the gateway-side record for an order. At most one row exists per
// order (unique on order_id, upsert semantics).
type Payment struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_payments_order_id"`
	AmountCents     int                 `gorm:"column:amount_cents;not null"`
	Currency        string              `gorm:"column:currency;type:text;not null;default:'usd'"`
	Method          string              `gorm:"column:method;type:text;not null;default:'card'"`
	Status          enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	StripePaymentID *string             `gorm:"column:stripe_payment_id"`
	FailureReason   *string             `gorm:"column:failure_reason"`
	GatewayResponse json.RawMessage     `gorm:"column:gateway_response;type:jsonb"`
	PaidAt          *time.Time          `gorm:"column:paid_at"`
	RefundedAt      *time.Time          `gorm:"column:refunded_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
