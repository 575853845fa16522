package aiorders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderchat/orderchat-backend/pkg/db/models"
	"github.com/orderchat/orderchat-backend/pkg/enums"
	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
	"github.com/orderchat/orderchat-backend/pkg/pagination"
	"github.com/orderchat/orderchat-backend/pkg/types"
)

type fakeRepo struct {
	rows    map[uuid.UUID]*models.AIOrder
	updates int
}

func newFakeRepo(rows ...*models.AIOrder) *fakeRepo {
	repo := &fakeRepo{rows: map[uuid.UUID]*models.AIOrder{}}
	for _, row := range rows {
		repo.rows[row.ID] = row
	}
	return repo
}

func (f *fakeRepo) Create(ctx context.Context, order *models.AIOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	copied := *order
	f.rows[order.ID] = &copied
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.AIOrder, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ai order not found")
	}
	copied := *row
	return &copied, nil
}

func (f *fakeRepo) List(ctx context.Context, filter ListFilter) ([]models.AIOrder, int64, error) {
	var matched []models.AIOrder
	for _, row := range f.rows {
		if filter.PSID != "" && row.PSID != filter.PSID {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		matched = append(matched, *row)
	}
	return matched, int64(len(matched)), nil
}

func (f *fakeRepo) Update(ctx context.Context, order *models.AIOrder) error {
	if _, ok := f.rows[order.ID]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "ai order not found")
	}
	copied := *order
	f.rows[order.ID] = &copied
	f.updates++
	return nil
}

type fakeOrderRepo struct {
	rows map[uuid.UUID]*models.Order
}

func newFakeOrderRepo(rows ...*models.Order) *fakeOrderRepo {
	repo := &fakeOrderRepo{rows: map[uuid.UUID]*models.Order{}}
	for _, row := range rows {
		repo.rows[row.ID] = row
	}
	return repo
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return row, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	return false, nil
}

func (f *fakeOrderRepo) SetPickingOrderNumber(ctx context.Context, id uuid.UUID, pickingOrderNumber string) error {
	return nil
}

func newTestService(t *testing.T, repo *fakeRepo, orderRepo *fakeOrderRepo) *Service {
	t.Helper()
	svc, err := NewService(repo, orderRepo, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func validPricing() types.AIOrderPricing {
	return types.AIOrderPricing{
		Currency:    "THB",
		Subtotal:    decimal.NewFromInt(200),
		Discount:    decimal.NewFromInt(20),
		ShippingFee: decimal.NewFromInt(30),
		Total:       decimal.NewFromInt(210),
	}
}

func draftOrder() *models.AIOrder {
	return &models.AIOrder{
		ID:      uuid.New(),
		PSID:    "psid-1",
		Status:  enums.AIOrderStatusDraft,
		Items:   types.AIOrderItems{{Name: "Widget", Qty: 2}},
		Pricing: validPricing(),
	}
}

func TestService_CreateDefaultsToDraft(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, newFakeOrderRepo())

	pricing := validPricing()
	order, err := svc.Create(context.Background(), CreateInput{
		PSID:        "psid-1",
		Items:       types.AIOrderItems{{Name: "Widget", Qty: 1}},
		Pricing:     &pricing,
		AIResponse:  "sure",
		UserMessage: "one widget please",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.Status != enums.AIOrderStatusDraft {
		t.Fatalf("expected draft, got %s", order.Status)
	}
	if order.ID == uuid.Nil {
		t.Fatal("id must be assigned")
	}
}

func TestService_CreateHonorsCallerStatus(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeOrderRepo())
	order, err := svc.Create(context.Background(), CreateInput{
		PSID:   "psid-1",
		Status: enums.AIOrderStatusPendingConfirmation,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.Status != enums.AIOrderStatusPendingConfirmation {
		t.Fatalf("expected pending_confirmation, got %s", order.Status)
	}
}

func TestService_CreateRejectsBrokenPricing(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeOrderRepo())
	broken := validPricing()
	broken.Total = decimal.NewFromInt(999)
	_, err := svc.Create(context.Background(), CreateInput{PSID: "psid-1", Pricing: &broken})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_PatchKeepsPricingInvariant(t *testing.T) {
	order := draftOrder()
	repo := newFakeRepo(order)
	svc := newTestService(t, repo, newFakeOrderRepo())

	broken := validPricing()
	broken.Discount = decimal.NewFromInt(500)
	_, err := svc.Patch(context.Background(), order.ID, PatchInput{Pricing: &broken})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.updates != 0 {
		t.Fatal("invalid patch must not be persisted")
	}

	fixed := broken.Recalculate()
	updated, err := svc.Patch(context.Background(), order.ID, PatchInput{Pricing: &fixed})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !updated.Pricing.Total.Equal(fixed.Total) {
		t.Fatalf("pricing not applied: %+v", updated.Pricing)
	}
}

func TestService_PatchUnknownOrderIs404(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeOrderRepo())
	status := "canceled"
	_, err := svc.Patch(context.Background(), uuid.New(), PatchInput{Status: &status})
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestService_MapStampsAuditFields(t *testing.T) {
	draft := draftOrder()
	confirmed := &models.Order{ID: uuid.New(), OrderNumber: "ORD-1", Status: enums.OrderStatusConfirmed}
	svc := newTestService(t, newFakeRepo(draft), newFakeOrderRepo(confirmed))

	mapped, err := svc.Map(context.Background(), MapInput{AIOrderID: draft.ID, OrderID: confirmed.ID, MappedBy: "alice"})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if mapped.Status != enums.AIOrderStatusCompleted {
		t.Fatalf("expected completed, got %s", mapped.Status)
	}
	if mapped.MappedOrderID == nil || *mapped.MappedOrderID != confirmed.ID {
		t.Fatal("mapped order id not stamped")
	}
	if mapped.MappedAt == nil || mapped.MappedBy == nil || *mapped.MappedBy != "alice" {
		t.Fatal("audit fields not stamped")
	}
}

func TestService_MapMissingOrderLeavesDraftUntouched(t *testing.T) {
	draft := draftOrder()
	repo := newFakeRepo(draft)
	svc := newTestService(t, repo, newFakeOrderRepo())

	_, err := svc.Map(context.Background(), MapInput{AIOrderID: draft.ID, OrderID: uuid.New(), MappedBy: "alice"})
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
	stored := repo.rows[draft.ID]
	if stored.Status != enums.AIOrderStatusDraft || stored.MappedOrderID != nil || repo.updates != 0 {
		t.Fatal("draft must be completely unchanged after a failed map")
	}
}

func TestService_MapRejectsSecondMapWithoutUnmap(t *testing.T) {
	draft := draftOrder()
	first := &models.Order{ID: uuid.New(), OrderNumber: "ORD-1"}
	second := &models.Order{ID: uuid.New(), OrderNumber: "ORD-2"}
	svc := newTestService(t, newFakeRepo(draft), newFakeOrderRepo(first, second))
	ctx := context.Background()

	if _, err := svc.Map(ctx, MapInput{AIOrderID: draft.ID, OrderID: first.ID, MappedBy: "alice"}); err != nil {
		t.Fatalf("first map: %v", err)
	}
	_, err := svc.Map(ctx, MapInput{AIOrderID: draft.ID, OrderID: second.ID, MappedBy: "bob"})
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestService_UnmapThenMapCycle(t *testing.T) {
	draft := draftOrder()
	confirmed := &models.Order{ID: uuid.New(), OrderNumber: "ORD-1"}
	svc := newTestService(t, newFakeRepo(draft), newFakeOrderRepo(confirmed))
	ctx := context.Background()

	if _, err := svc.Map(ctx, MapInput{AIOrderID: draft.ID, OrderID: confirmed.ID, MappedBy: "alice"}); err != nil {
		t.Fatalf("map: %v", err)
	}

	unmapped, err := svc.Unmap(ctx, draft.ID)
	if err != nil {
		t.Fatalf("unmap: %v", err)
	}
	if unmapped.Status != enums.AIOrderStatusDraft || unmapped.MappedOrderID != nil || unmapped.MappedAt != nil || unmapped.MappedBy != nil {
		t.Fatalf("unmap must reset mapping fields: %+v", unmapped)
	}

	remapped, err := svc.Map(ctx, MapInput{AIOrderID: draft.ID, OrderID: confirmed.ID, MappedBy: "bob"})
	if err != nil {
		t.Fatalf("remap after unmap: %v", err)
	}
	if remapped.Status != enums.AIOrderStatusCompleted || remapped.MappedOrderID == nil {
		t.Fatalf("remap must complete the draft again: %+v", remapped)
	}
}

func TestService_UnmapUnknownOrderIs404(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), newFakeOrderRepo())
	_, err := svc.Unmap(context.Background(), uuid.New())
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestService_ListFiltersAndPages(t *testing.T) {
	first := draftOrder()
	second := draftOrder()
	second.PSID = "psid-2"
	second.Status = enums.AIOrderStatusCompleted
	svc := newTestService(t, newFakeRepo(first, second), newFakeOrderRepo())

	rows, page, err := svc.List(context.Background(), ListInput{PSID: "psid-1", Page: pagination.Params{Page: 1, Limit: 10}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].PSID != "psid-1" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if page.Total != 1 || page.Pages != 1 {
		t.Fatalf("unexpected pagination %+v", page)
	}

	if _, _, err := svc.List(context.Background(), ListInput{Status: "bogus"}); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad status, got %v", err)
	}
}
