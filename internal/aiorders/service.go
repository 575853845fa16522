package aiorders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orderchat/orderchat-backend/internal/orders"
	"github.com/orderchat/orderchat-backend/pkg/db/models"
	"github.com/orderchat/orderchat-backend/pkg/enums"
	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
	"github.com/orderchat/orderchat-backend/pkg/logger"
	"github.com/orderchat/orderchat-backend/pkg/pagination"
	"github.com/orderchat/orderchat-backend/pkg/types"
)

// Service owns the draft-order lifecycle: creation after extraction, staff
// corrections, and the map/unmap link to confirmed orders.
type Service struct {
	repo   Repository
	orders orders.Repository
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the draft-order service.
func NewService(repo Repository, orderRepo orders.Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ai order repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &Service{repo: repo, orders: orderRepo, logg: logg, now: time.Now}, nil
}

// CreateInput carries a freshly extracted draft order.
type CreateInput struct {
	PSID        string
	Status      enums.AIOrderStatus
	Items       types.AIOrderItems
	Pricing     *types.AIOrderPricing
	Customer    *types.AIOrderCustomer
	AIResponse  string
	UserMessage string
}

// Create persists a new draft order. Status defaults to draft and the
// pricing invariant is checked before the write.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.AIOrder, error) {
	psid := strings.TrimSpace(in.PSID)
	if psid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "psid is required")
	}

	status := in.Status
	if status == "" {
		status = enums.AIOrderStatusDraft
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", in.Status))
	}
	if err := in.Items.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid items")
	}

	var pricing types.AIOrderPricing
	if in.Pricing != nil {
		pricing = *in.Pricing
	}
	if err := pricing.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pricing")
	}

	order := &models.AIOrder{
		PSID:        psid,
		Status:      status,
		Items:       in.Items,
		Pricing:     pricing,
		Customer:    in.Customer,
		AIResponse:  in.AIResponse,
		UserMessage: in.UserMessage,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithPSID(ctx, psid), "ai order created")
	}
	return order, nil
}

// Get returns the draft order or a not-found error.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.AIOrder, error) {
	return s.repo.FindByID(ctx, id)
}

// ListInput narrows and pages the listing.
type ListInput struct {
	PSID   string
	Status string
	Page   pagination.Params
}

// List returns draft orders filtered by psid and/or status, newest first.
func (s *Service) List(ctx context.Context, in ListInput) ([]models.AIOrder, pagination.Page, error) {
	filter := ListFilter{PSID: strings.TrimSpace(in.PSID), Page: in.Page}
	if in.Status != "" {
		status, err := enums.ParseAIOrderStatus(in.Status)
		if err != nil {
			return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter.Status = status
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	return rows, pagination.Build(pagination.Normalize(in.Page), total), nil
}

// PatchInput is a sparse staff correction. Nil fields are left untouched;
// arbitrary combinations are allowed, including status overrides.
type PatchInput struct {
	Status        *string
	Items         *types.AIOrderItems
	Pricing       *types.AIOrderPricing
	Customer      *types.AIOrderCustomer
	ErrorMessages *types.StringList
	AIResponse    *string
	UserMessage   *string
}

// Patch applies the correction and re-checks the pricing invariant on the
// resulting row.
func (s *Service) Patch(ctx context.Context, id uuid.UUID, in PatchInput) (*models.AIOrder, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Status != nil {
		status, err := enums.ParseAIOrderStatus(*in.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		order.Status = status
	}
	if in.Items != nil {
		if err := in.Items.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid items")
		}
		order.Items = *in.Items
	}
	if in.Pricing != nil {
		order.Pricing = *in.Pricing
	}
	if in.Customer != nil {
		order.Customer = in.Customer
	}
	if in.ErrorMessages != nil {
		order.ErrorMessages = *in.ErrorMessages
	}
	if in.AIResponse != nil {
		order.AIResponse = *in.AIResponse
	}
	if in.UserMessage != nil {
		order.UserMessage = *in.UserMessage
	}

	if err := order.Pricing.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pricing")
	}
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// MapInput links a draft order to a confirmed order.
type MapInput struct {
	AIOrderID uuid.UUID
	OrderID   uuid.UUID
	MappedBy  string
}

// Map links the draft to the confirmed order, stamps the audit fields and
// completes the draft. Both entities must exist; a draft that is already
// completed with a live mapping is rejected and left untouched.
func (s *Service) Map(ctx context.Context, in MapInput) (*models.AIOrder, error) {
	if strings.TrimSpace(in.MappedBy) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mappedBy is required")
	}

	order, err := s.repo.FindByID(ctx, in.AIOrderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.orders.FindByID(ctx, in.OrderID); err != nil {
		return nil, err
	}
	if order.Status == enums.AIOrderStatusCompleted && order.MappedOrderID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "ai order is already mapped; unmap it first")
	}

	mappedAt := s.now().UTC()
	mappedBy := strings.TrimSpace(in.MappedBy)
	order.MappedOrderID = &in.OrderID
	order.MappedAt = &mappedAt
	order.MappedBy = &mappedBy
	order.Status = enums.AIOrderStatusCompleted
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithPSID(ctx, order.PSID), fmt.Sprintf("ai order mapped by %s", mappedBy))
	}
	return order, nil
}

// Unmap clears the mapping fields and returns the draft to its initial
// status.
func (s *Service) Unmap(ctx context.Context, aiOrderID uuid.UUID) (*models.AIOrder, error) {
	order, err := s.repo.FindByID(ctx, aiOrderID)
	if err != nil {
		return nil, err
	}

	order.MappedOrderID = nil
	order.MappedAt = nil
	order.MappedBy = nil
	order.Status = enums.AIOrderStatusDraft
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}
