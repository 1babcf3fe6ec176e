package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/printhaus/printhaus-backend/api/responses"
	"github.com/printhaus/printhaus-backend/api/validators"
	"github.com/printhaus/printhaus-backend/internal/orders"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/logger"
	"github.com/printhaus/printhaus-backend/pkg/types"
)

// CreateOrder handles storefront checkout submission.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// GetOrder returns the order projection by id.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// GetSharedOrder returns the order projection by its public share token.
func GetSharedOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		order, err := svc.GetByShareToken(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// ListCustomerOrders returns the customer's most recent orders.
func ListCustomerOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer id"))
			return
		}

		list, err := svc.ListByCustomer(r.Context(), customerID, 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]orderResponse, 0, len(list))
		for i := range list {
			payload = append(payload, newOrderResponse(&list[i]))
		}
		responses.WriteSuccess(w, payload)
	}
}

type createOrderRequest struct {
	CustomerID      uuid.UUID                `json:"customer_id" validate:"required"`
	Email           *string                  `json:"email,omitempty" validate:"omitempty,email"`
	Items           []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	PromoCode       *string                  `json:"promo_code,omitempty"`
	PointsToRedeem  int                      `json:"points_to_redeem" validate:"gte=0"`
	ShippingCents   int                      `json:"shipping_cents" validate:"gte=0"`
	TaxCents        int                      `json:"tax_cents" validate:"gte=0"`
	ShippingAddress *types.Address           `json:"shipping_address,omitempty"`
}

type createOrderItemRequest struct {
	ProductID      uuid.UUID  `json:"product_id" validate:"required"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	DesignID       *uuid.UUID `json:"design_id,omitempty"`
	Name           string     `json:"name" validate:"required"`
	Qty            int        `json:"qty" validate:"required,gt=0"`
	UnitPriceCents int        `json:"unit_price_cents" validate:"gte=0"`
}

func (req createOrderRequest) toInput() orders.CreateOrderInput {
	items := make([]orders.CreateOrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, orders.CreateOrderItemInput{
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			DesignID:       item.DesignID,
			Name:           item.Name,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return orders.CreateOrderInput{
		CustomerID:      req.CustomerID,
		Email:           req.Email,
		Items:           items,
		PromoCode:       req.PromoCode,
		PointsToRedeem:  req.PointsToRedeem,
		ShippingCents:   req.ShippingCents,
		TaxCents:        req.TaxCents,
		ShippingAddress: req.ShippingAddress,
	}
}

type orderResponse struct {
	OrderID             uuid.UUID           `json:"order_id"`
	CustomerID          uuid.UUID           `json:"customer_id"`
	Status              string              `json:"status"`
	Currency            string              `json:"currency"`
	SubtotalCents       int                 `json:"subtotal_cents"`
	DiscountCents       int                 `json:"discount_cents"`
	PromoCode           *string             `json:"promo_code,omitempty"`
	PointsRedeemed      int                 `json:"points_redeemed"`
	PointsDiscountCents int                 `json:"points_discount_cents"`
	ShippingCents       int                 `json:"shipping_cents"`
	TaxCents            int                 `json:"tax_cents"`
	TotalCents          int                 `json:"total_cents"`
	ShareToken          string              `json:"share_token"`
	CancelReason        *string             `json:"cancel_reason,omitempty"`
	Items               []orderItemResponse `json:"items"`
	Payment             *paymentResponse    `json:"payment,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	ItemID         uuid.UUID  `json:"item_id"`
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	DesignID       *uuid.UUID `json:"design_id,omitempty"`
	Name           string     `json:"name"`
	Qty            int        `json:"qty"`
	UnitPriceCents int        `json:"unit_price_cents"`
	TotalCents     int        `json:"total_cents"`
}

type paymentResponse struct {
	PaymentID     uuid.UUID  `json:"payment_id"`
	Status        string     `json:"status"`
	AmountCents   int        `json:"amount_cents"`
	Method        string     `json:"method"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	RefundedAt    *time.Time `json:"refunded_at,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		OrderID:             order.ID,
		CustomerID:          order.CustomerID,
		Status:              order.Status.String(),
		Currency:            order.Currency,
		SubtotalCents:       order.SubtotalCents,
		DiscountCents:       order.DiscountCents,
		PromoCode:           order.PromoCode,
		PointsRedeemed:      order.PointsRedeemed,
		PointsDiscountCents: order.PointsDiscountCents,
		ShippingCents:       order.ShippingCents,
		TaxCents:            order.TaxCents,
		TotalCents:          order.TotalCents,
		ShareToken:          order.ShareToken,
		Items:               make([]orderItemResponse, 0, len(order.Items)),
		CreatedAt:           order.CreatedAt,
	}
	if order.CancelReason != nil {
		reason := order.CancelReason.String()
		resp.CancelReason = &reason
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ItemID:         item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			DesignID:       item.DesignID,
			Name:           item.Name,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		})
	}
	if order.Payment != nil {
		resp.Payment = &paymentResponse{
			PaymentID:     order.Payment.ID,
			Status:        order.Payment.Status.String(),
			AmountCents:   order.Payment.AmountCents,
			Method:        order.Payment.Method,
			FailureReason: order.Payment.FailureReason,
			PaidAt:        order.Payment.PaidAt,
			RefundedAt:    order.Payment.RefundedAt,
		}
	}
	return resp
}
