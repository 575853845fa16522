package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orderchat/orderchat-backend/api/responses"
	"github.com/orderchat/orderchat-backend/api/validators"
	"github.com/orderchat/orderchat-backend/internal/aiorders"
	"github.com/orderchat/orderchat-backend/pkg/db/models"
	"github.com/orderchat/orderchat-backend/pkg/enums"
	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
	"github.com/orderchat/orderchat-backend/pkg/logger"
	"github.com/orderchat/orderchat-backend/pkg/pagination"
	"github.com/orderchat/orderchat-backend/pkg/types"
)

// AIOrderService is the slice of the draft-order service the controllers
// consume.
type AIOrderService interface {
	Create(ctx context.Context, in aiorders.CreateInput) (*models.AIOrder, error)
	Get(ctx context.Context, id uuid.UUID) (*models.AIOrder, error)
	List(ctx context.Context, in aiorders.ListInput) ([]models.AIOrder, pagination.Page, error)
	Patch(ctx context.Context, id uuid.UUID, in aiorders.PatchInput) (*models.AIOrder, error)
	Map(ctx context.Context, in aiorders.MapInput) (*models.AIOrder, error)
	Unmap(ctx context.Context, aiOrderID uuid.UUID) (*models.AIOrder, error)
}

type createAIOrderRequest struct {
	PSID        string                 `json:"psid" validate:"required"`
	Status      string                 `json:"status,omitempty"`
	AIResponse  string                 `json:"aiResponse"`
	UserMessage string                 `json:"userMessage"`
	Items       types.AIOrderItems     `json:"items,omitempty"`
	Pricing     *types.AIOrderPricing  `json:"pricing,omitempty"`
	Customer    *types.AIOrderCustomer `json:"customer,omitempty"`
}

// AIOrderCreate handles POST /api/v1/ai-orders.
func AIOrderCreate(svc AIOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createAIOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		in := aiorders.CreateInput{
			PSID:        req.PSID,
			Items:       req.Items,
			Pricing:     req.Pricing,
			Customer:    req.Customer,
			AIResponse:  req.AIResponse,
			UserMessage: req.UserMessage,
		}
		if req.Status != "" {
			status, err := enums.ParseAIOrderStatus(req.Status)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			in.Status = status
		}

		order, err := svc.Create(ctx, in)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// AIOrderList handles GET /api/v1/ai-orders.
func AIOrderList(svc AIOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<30)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, pageInfo, err := svc.List(ctx, aiorders.ListInput{
			PSID:   r.URL.Query().Get("psid"),
			Status: r.URL.Query().Get("status"),
			Page:   pagination.Params{Page: page, Limit: limit},
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"orders":     rows,
			"pagination": pageInfo,
		})
	}
}

// AIOrderDetail handles GET /api/v1/ai-orders/{aiOrderId}.
func AIOrderDetail(svc AIOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParsePathUUID(chi.URLParam(r, "aiOrderId"), "aiOrderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type patchAIOrderRequest struct {
	Status        *string                `json:"status,omitempty"`
	Items         *types.AIOrderItems    `json:"items,omitempty"`
	Pricing       *types.AIOrderPricing  `json:"pricing,omitempty"`
	Customer      *types.AIOrderCustomer `json:"customer,omitempty"`
	ErrorMessages *types.StringList      `json:"errorMessages,omitempty"`
	AIResponse    *string                `json:"aiResponse,omitempty"`
	UserMessage   *string                `json:"userMessage,omitempty"`
}

// AIOrderPatch handles PATCH /api/v1/ai-orders/{aiOrderId}.
func AIOrderPatch(svc AIOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParsePathUUID(chi.URLParam(r, "aiOrderId"), "aiOrderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req patchAIOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Patch(ctx, id, aiorders.PatchInput{
			Status:        req.Status,
			Items:         req.Items,
			Pricing:       req.Pricing,
			Customer:      req.Customer,
			ErrorMessages: req.ErrorMessages,
			AIResponse:    req.AIResponse,
			UserMessage:   req.UserMessage,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type mapAIOrderRequest struct {
	AIOrderID string `json:"aiOrderId" validate:"required,uuid"`
	OrderID   string `json:"orderId" validate:"required,uuid"`
	MappedBy  string `json:"mappedBy" validate:"required"`
}

// AIOrderMap handles POST /api/v1/ai-orders/map.
func AIOrderMap(svc AIOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req mapAIOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Map(ctx, aiorders.MapInput{
			AIOrderID: uuid.MustParse(req.AIOrderID),
			OrderID:   uuid.MustParse(req.OrderID),
			MappedBy:  req.MappedBy,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AIOrderUnmap handles DELETE /api/v1/ai-orders/map?aiOrderId=.
func AIOrderUnmap(svc AIOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseQueryUUID(r, "aiOrderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.Unmap(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
