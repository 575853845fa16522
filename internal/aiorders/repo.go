package aiorders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orderchat/orderchat-backend/pkg/db/models"
	"github.com/orderchat/orderchat-backend/pkg/enums"
	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
	"github.com/orderchat/orderchat-backend/pkg/pagination"
)

// ListFilter narrows the draft-order listing.
type ListFilter struct {
	PSID   string
	Status enums.AIOrderStatus
	Page   pagination.Params
}

// Repository persists draft orders. Rows are never hard-deleted.
type Repository interface {
	Create(ctx context.Context, order *models.AIOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AIOrder, error)
	List(ctx context.Context, filter ListFilter) ([]models.AIOrder, int64, error)
	Update(ctx context.Context, order *models.AIOrder) error
}

type repo struct {
	db *gorm.DB
}

// NewRepository builds the GORM-backed draft-order repository.
func NewRepository(db *gorm.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, order *models.AIOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindByID(ctx context.Context, id uuid.UUID) (*models.AIOrder, error) {
	var order models.AIOrder
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ai order not found")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) List(ctx context.Context, filter ListFilter) ([]models.AIOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AIOrder{})
	if filter.PSID != "" {
		query = query.Where("psid = ?", filter.PSID)
	}
	if filter.Status != "" {
		query = query.Where("order_status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params := pagination.Normalize(filter.Page)
	var rows []models.AIOrder
	err := query.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repo) Update(ctx context.Context, order *models.AIOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}
