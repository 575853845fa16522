package shipping

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orderchat/orderchat-backend/pkg/db/models"
)

const settingRowID = 1

// SettingsRepository persists the singleton fee policy.
type SettingsRepository interface {
	GetOrCreate(ctx context.Context) (*models.ShippingSetting, error)
	Update(ctx context.Context, setting *models.ShippingSetting) error
}

type settingsRepo struct {
	db *gorm.DB
}

// NewSettingsRepository builds the GORM-backed settings repository.
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db: db}
}

// GetOrCreate loads the singleton row, writing the defaults when absent.
func (r *settingsRepo) GetOrCreate(ctx context.Context) (*models.ShippingSetting, error) {
	var setting models.ShippingSetting
	err := r.db.WithContext(ctx).First(&setting, "id = ?", settingRowID).Error
	if err == nil {
		return &setting, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fallback := models.DefaultShippingSetting()
	// Another instance may create the row concurrently; on conflict keep theirs.
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(fallback).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).First(&setting, "id = ?", settingRowID).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingsRepo) Update(ctx context.Context, setting *models.ShippingSetting) error {
	setting.ID = settingRowID
	return r.db.WithContext(ctx).Save(setting).Error
}
