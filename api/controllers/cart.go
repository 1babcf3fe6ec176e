package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/printhaus/printhaus-backend/api/responses"
	"github.com/printhaus/printhaus-backend/api/validators"
	"github.com/printhaus/printhaus-backend/internal/cart"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/logger"
)

// GetCart returns the customer's server-side cart.
func GetCart(repo *cart.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer id"))
			return
		}

		current, err := repo.Get(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart"))
			return
		}
		responses.WriteSuccess(w, current)
	}
}

// PutCart replaces the customer's server-side cart.
func PutCart(repo *cart.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer id"))
			return
		}

		var payload putCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		next := &cart.Cart{CustomerID: customerID, Items: payload.toItems()}
		if err := repo.Set(r.Context(), next); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart"))
			return
		}
		responses.WriteSuccess(w, next)
	}
}

type putCartRequest struct {
	Items []putCartItemRequest `json:"items" validate:"dive"`
}

type putCartItemRequest struct {
	ProductID      uuid.UUID  `json:"product_id" validate:"required"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	DesignID       *uuid.UUID `json:"design_id,omitempty"`
	Name           string     `json:"name" validate:"required"`
	Qty            int        `json:"qty" validate:"required,gt=0"`
	UnitPriceCents int        `json:"unit_price_cents" validate:"gte=0"`
}

func (req putCartRequest) toItems() []cart.Item {
	items := make([]cart.Item, 0, len(req.Items))
	for _, line := range req.Items {
		items = append(items, cart.Item{
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			DesignID:       line.DesignID,
			Name:           line.Name,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
		})
	}
	return items
}
