package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/orderchat/orderchat-backend/api/middleware"
	"github.com/orderchat/orderchat-backend/api/responses"
	"github.com/orderchat/orderchat-backend/api/validators"
	"github.com/orderchat/orderchat-backend/internal/wms"
	"github.com/orderchat/orderchat-backend/pkg/logger"
)

// WarehouseService is the slice of the warehouse sync service the
// controllers consume.
type WarehouseService interface {
	SyncPickingStatus(ctx context.Context, in wms.SyncInput) (*wms.SyncResult, error)
	CachedPickingStatus(ctx context.Context, orderID uuid.UUID) (*wms.SyncResult, error)
}

type pickingStatusRequest struct {
	OrderID            string `json:"orderId" validate:"required,uuid"`
	PickingOrderNumber string `json:"pickingOrderNumber,omitempty"`
	AdminUsername      string `json:"adminUsername,omitempty"`
}

// WMSPickingStatusSync handles POST /api/v1/wms/picking-status.
func WMSPickingStatusSync(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req pickingStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		admin := req.AdminUsername
		if admin == "" {
			admin = middleware.AdminUsername(ctx)
		}

		result, err := svc.SyncPickingStatus(ctx, wms.SyncInput{
			OrderID:            uuid.MustParse(req.OrderID),
			PickingOrderNumber: req.PickingOrderNumber,
			AdminUsername:      admin,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// WMSPickingStatusCached handles GET /api/v1/wms/picking-status?orderId=.
func WMSPickingStatusCached(svc WarehouseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := validators.ParseQueryUUID(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.CachedPickingStatus(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
