package wms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orderchat/orderchat-backend/internal/orders"
	"github.com/orderchat/orderchat-backend/pkg/enums"
	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
	"github.com/orderchat/orderchat-backend/pkg/logger"
)

const (
	pickingCachePrefix = "wms-picking"
	pickingCacheTTL    = 24 * time.Hour
)

// warehouseClient is the slice of Client the service consumes.
type warehouseClient interface {
	PickingStatus(ctx context.Context, pickingOrderNumber string) (*PickingResult, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

// Service synchronizes picking state from the warehouse into orders. The
// confirmed-to-ready advance here is the only externally-triggered order
// status mutation in the system.
type Service struct {
	client warehouseClient
	orders orders.Repository
	cache  cacheStore
	logg   *logger.Logger
}

// NewService wires the warehouse sync service.
func NewService(client warehouseClient, orderRepo orders.Repository, cache cacheStore, logg *logger.Logger) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("warehouse client required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache store required")
	}
	return &Service{client: client, orders: orderRepo, cache: cache, logg: logg}, nil
}

// SyncInput identifies the order and picking document to reconcile.
type SyncInput struct {
	OrderID            uuid.UUID
	PickingOrderNumber string
	AdminUsername      string
}

// SyncResult reports the resolved picking state and whether the linked
// order advanced as a consequence.
type SyncResult struct {
	PickingStatus      enums.PickingStatus `json:"pickingStatus"`
	OrderStatusUpdated bool                `json:"orderStatusUpdated"`
	CheckedAt          time.Time           `json:"checkedAt"`
}

// SyncPickingStatus queries the warehouse and, when picking completed while
// the order sits at confirmed, advances it to ready. Warehouse outages
// resolve to the error status instead of failing the request; the order is
// never touched in that case.
func (s *Service) SyncPickingStatus(ctx context.Context, in SyncInput) (*SyncResult, error) {
	order, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	pickingNumber := strings.TrimSpace(in.PickingOrderNumber)
	if pickingNumber == "" && order.PickingOrderNumber != nil {
		pickingNumber = *order.PickingOrderNumber
	}
	if pickingNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no picking order number")
	}
	if order.PickingOrderNumber == nil || *order.PickingOrderNumber != pickingNumber {
		if err := s.orders.SetPickingOrderNumber(ctx, order.ID, pickingNumber); err != nil {
			return nil, err
		}
	}

	result := &SyncResult{CheckedAt: time.Now().UTC()}
	picked, err := s.client.PickingStatus(ctx, pickingNumber)
	switch {
	case err == nil:
		result.PickingStatus = picked.Status
		result.CheckedAt = picked.CheckedAt
	case pkgerrors.As(err).Code() == pkgerrors.CodeNotFound:
		result.PickingStatus = enums.PickingStatusNotFound
	case pkgerrors.As(err).Code() == pkgerrors.CodeValidation:
		return nil, err
	default:
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("wms picking query failed: %v", err))
		}
		result.PickingStatus = enums.PickingStatusError
	}

	if result.PickingStatus == enums.PickingStatusCompleted && order.Status == enums.OrderStatusConfirmed {
		updated, err := s.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusConfirmed, enums.OrderStatusReady)
		if err != nil {
			return nil, err
		}
		result.OrderStatusUpdated = updated
		if updated && s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "order_number", order.OrderNumber), fmt.Sprintf("order advanced to ready by %s", in.AdminUsername))
		}
	}

	s.cacheResult(ctx, in.OrderID, result)
	return result, nil
}

// CachedPickingStatus returns the last-known sync result for the order, or
// not-found when nothing has been synced yet.
func (s *Service) CachedPickingStatus(ctx context.Context, orderID uuid.UUID) (*SyncResult, error) {
	raw, err := s.cache.Get(ctx, s.cache.CacheKey(pickingCachePrefix, orderID.String()))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no picking status recorded for order")
	}
	var cached SyncResult
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cached picking status")
	}
	return &cached, nil
}

func (s *Service) cacheResult(ctx context.Context, orderID uuid.UUID, result *SyncResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	key := s.cache.CacheKey(pickingCachePrefix, orderID.String())
	if err := s.cache.Set(ctx, key, data, pickingCacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to cache picking status")
	}
}
