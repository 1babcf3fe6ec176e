package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/printhaus/printhaus-backend/api/responses"
	"github.com/printhaus/printhaus-backend/internal/loyalty"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
	"github.com/printhaus/printhaus-backend/pkg/logger"
)

// GetLoyaltyBalance returns the customer's current points balance.
func GetLoyaltyBalance(svc loyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}

		customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer id"))
			return
		}

		balance, err := svc.Balance(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"customer_id": customerID,
			"points":      balance,
		})
	}
}
