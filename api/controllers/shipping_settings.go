package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/orderchat/orderchat-backend/api/responses"
	"github.com/orderchat/orderchat-backend/api/validators"
	"github.com/orderchat/orderchat-backend/internal/shipping"
	"github.com/orderchat/orderchat-backend/pkg/db/models"
	"github.com/orderchat/orderchat-backend/pkg/logger"
)

// ShippingSettingsService is the slice of the shipping service the
// controllers consume.
type ShippingSettingsService interface {
	GetSettings(ctx context.Context) (*models.ShippingSetting, error)
	UpdateSettings(ctx context.Context, in shipping.UpdateSettingsInput) (*models.ShippingSetting, error)
}

// ShippingSettingsGet handles GET /api/v1/settings/shipping.
func ShippingSettingsGet(svc ShippingSettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		setting, err := svc.GetSettings(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, setting)
	}
}

type updateShippingSettingsRequest struct {
	FreeThreshold         *decimal.Decimal `json:"freeThreshold,omitempty"`
	Fee                   *decimal.Decimal `json:"fee,omitempty"`
	FreeQuantityThreshold *int             `json:"freeQuantityThreshold,omitempty"`
}

// ShippingSettingsUpdate handles PUT /api/v1/settings/shipping.
func ShippingSettingsUpdate(svc ShippingSettingsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req updateShippingSettingsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		setting, err := svc.UpdateSettings(ctx, shipping.UpdateSettingsInput{
			FreeThreshold:         req.FreeThreshold,
			Fee:                   req.Fee,
			FreeQuantityThreshold: req.FreeQuantityThreshold,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, setting)
	}
}
