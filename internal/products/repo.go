package products

import (
	"context"

	"gorm.io/gorm"

	"github.com/orderchat/orderchat-backend/pkg/db/models"
)

// Repository exposes the catalog reads the pipeline needs.
type Repository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Product, error)
}

type repo struct {
	db *gorm.DB
}

// NewRepository builds the GORM-backed product repository.
func NewRepository(db *gorm.DB) Repository {
	return &repo{db: db}
}

func (r *repo) FindByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
