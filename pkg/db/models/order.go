package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/printhaus/printhaus-backend/pkg/enums"
	"github.com/printhaus/printhaus-backend/pkg/types"
)

// Order represents one customer purchase intent. Orders are never hard
// deleted; cancellation and refund are status transitions.
type Order struct {
	ID                  uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID          uuid.UUID               `gorm:"column:customer_id;type:uuid;not null"`
	Status              enums.OrderStatus       `gorm:"column:status;type:text;not null;default:'pending'"`
	Currency            string                  `gorm:"column:currency;type:text;not null;default:'usd'"`
	SubtotalCents       int                     `gorm:"column:subtotal_cents;not null"`
	DiscountCents       int                     `gorm:"column:discount_cents;not null;default:0"`
	PromoCode           *string                 `gorm:"column:promo_code"`
	PointsRedeemed      int                     `gorm:"column:points_redeemed;not null;default:0"`
	PointsDiscountCents int                     `gorm:"column:points_discount_cents;not null;default:0"`
	ShippingCents       int                     `gorm:"column:shipping_cents;not null;default:0"`
	TaxCents            int                     `gorm:"column:tax_cents;not null;default:0"`
	TotalCents          int                     `gorm:"column:total_cents;not null"`
	ShippingAddress     *types.Address          `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	CancelReason        *enums.OrderCancelReason `gorm:"column:cancel_reason;type:text"`
	CancelNote          *string                 `gorm:"column:cancel_note"`
	ShareToken          string                  `gorm:"column:share_token;not null"`
	Items               []OrderItem             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment             *Payment                `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CancelledAt         *time.Time              `gorm:"column:cancelled_at"`
	CreatedAt           time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
