package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderchat/orderchat-backend/internal/products"
	"github.com/orderchat/orderchat-backend/internal/session"
	"github.com/orderchat/orderchat-backend/pkg/config"
	"github.com/orderchat/orderchat-backend/pkg/db/models"
	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
	"github.com/orderchat/orderchat-backend/pkg/logger"
)

const (
	settingsCacheKey   = "shipping-settings"
	productCachePrefix = "product"
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// Service answers fee quotes and owns the shipping settings surface. Both
// caches are advisory: a miss or a Redis failure falls through to the
// datastore, and stale reads are tolerated.
type Service struct {
	settings SettingsRepository
	products products.Repository
	cache    cacheStore
	logg     *logger.Logger
	cfg      config.ShippingCacheConfig
}

// NewService wires the calculator's data sources.
func NewService(settings SettingsRepository, catalog products.Repository, cache cacheStore, cfg config.ShippingCacheConfig, logg *logger.Logger) (*Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache store required")
	}
	return &Service{
		settings: settings,
		products: catalog,
		cache:    cache,
		logg:     logg,
		cfg:      cfg,
	}, nil
}

// Quote computes the delivery fee for a conversation cart.
func (s *Service) Quote(ctx context.Context, items []session.CartItem) (decimal.Decimal, error) {
	setting, err := s.GetSettings(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	catalog, err := s.loadProducts(ctx, items)
	if err != nil {
		return decimal.Zero, err
	}

	return Fee(items, setting, catalog), nil
}

// GetSettings returns the fee policy, serving the 5-minute cache when warm.
func (s *Service) GetSettings(ctx context.Context) (*models.ShippingSetting, error) {
	key := s.cache.CacheKey(settingsCacheKey)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var cached models.ShippingSetting
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached, nil
		}
	}

	setting, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping settings")
	}
	s.cacheJSON(ctx, key, setting, s.cfg.SettingsTTL)
	return setting, nil
}

// UpdateSettingsInput carries the partial PUT body; nil fields are left as-is.
type UpdateSettingsInput struct {
	FreeThreshold         *decimal.Decimal
	Fee                   *decimal.Decimal
	FreeQuantityThreshold *int
}

// UpdateSettings applies the patch and invalidates the settings cache.
func (s *Service) UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*models.ShippingSetting, error) {
	setting, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping settings")
	}

	if input.FreeThreshold != nil {
		if input.FreeThreshold.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "freeThreshold must be non-negative")
		}
		setting.FreeThreshold = *input.FreeThreshold
	}
	if input.Fee != nil {
		if input.Fee.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fee must be non-negative")
		}
		setting.Fee = *input.Fee
	}
	if input.FreeQuantityThreshold != nil {
		if *input.FreeQuantityThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "freeQuantityThreshold must be non-negative")
		}
		setting.FreeQuantityThreshold = *input.FreeQuantityThreshold
	}

	if err := s.settings.Update(ctx, setting); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist shipping settings")
	}

	if err := s.cache.Del(ctx, s.cache.CacheKey(settingsCacheKey)); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to invalidate shipping settings cache")
	}
	return setting, nil
}

// loadProducts resolves every referenced product, serving the 1-hour cache
// per id and fetching the remainder in one query.
func (s *Service) loadProducts(ctx context.Context, items []session.CartItem) (map[string]*models.Product, error) {
	catalog := map[string]*models.Product{}
	var missing []string

	for _, line := range items {
		if line.ProductID == "" {
			continue
		}
		if _, seen := catalog[line.ProductID]; seen {
			continue
		}
		key := s.cache.CacheKey(productCachePrefix, line.ProductID)
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var cached models.Product
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				catalog[line.ProductID] = &cached
				continue
			}
		}
		missing = append(missing, line.ProductID)
	}

	if len(missing) == 0 {
		return catalog, nil
	}

	rows, err := s.products.FindByIDs(ctx, missing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	for i := range rows {
		product := rows[i]
		id := product.ID.String()
		catalog[id] = &product
		s.cacheJSON(ctx, s.cache.CacheKey(productCachePrefix, id), &product, s.cfg.ProductTTL)
	}
	// Unknown ids simply fall back to the base fee in the calculator.
	return catalog, nil
}

func (s *Service) cacheJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, encoded, ttl); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "advisory cache write failed")
	}
}
