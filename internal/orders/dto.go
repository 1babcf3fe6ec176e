package orders

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/types"
)

// CreateOrderItemInput is one cart line submitted at checkout.
type CreateOrderItemInput struct {
	ProductID      uuid.UUID  `json:"product_id" validate:"required"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	DesignID       *uuid.UUID `json:"design_id,omitempty"`
	Name           string     `json:"name" validate:"required"`
	Qty            int        `json:"qty" validate:"required,gt=0"`
	UnitPriceCents int        `json:"unit_price_cents" validate:"gte=0"`
}

// CreateOrderInput is the checkout payload. Amounts are integer cents.
type CreateOrderInput struct {
	CustomerID      uuid.UUID              `json:"customer_id" validate:"required"`
	Email           *string                `json:"email,omitempty" validate:"omitempty,email"`
	Items           []CreateOrderItemInput `json:"items" validate:"required,min=1,dive"`
	PromoCode       *string                `json:"promo_code,omitempty"`
	PointsToRedeem  int                    `json:"points_to_redeem" validate:"gte=0"`
	ShippingCents   int                    `json:"shipping_cents" validate:"gte=0"`
	TaxCents        int                    `json:"tax_cents" validate:"gte=0"`
	ShippingAddress *types.Address         `json:"shipping_address,omitempty"`
}

// SubtotalCents sums the line totals.
func (in CreateOrderInput) SubtotalCents() int {
	subtotal := 0
	for _, item := range in.Items {
		subtotal += item.Qty * item.UnitPriceCents
	}
	return subtotal
}

// ConfirmPaymentInput carries the confirmed-checkout facts from the gateway.
type ConfirmPaymentInput struct {
	OrderID         uuid.UUID
	StripePaymentID string
	AmountPaidCents int
	GatewayResponse json.RawMessage
}

// ItemModels converts the input lines into persistence rows for orderID.
func (in CreateOrderInput) ItemModels(orderID uuid.UUID) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(in.Items))
	for _, line := range in.Items {
		items = append(items, models.OrderItem{
			OrderID:        orderID,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			DesignID:       line.DesignID,
			Name:           line.Name,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
			TotalCents:     line.Qty * line.UnitPriceCents,
		})
	}
	return items
}
