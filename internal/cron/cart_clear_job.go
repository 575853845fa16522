package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/orderchat/orderchat-backend/pkg/logger"
)

// cartClearer is the slice of the session store the job consumes.
type cartClearer interface {
	ClearAllCarts(ctx context.Context) (int, error)
}

// CartClearJobParams configure the nightly cart clear.
type CartClearJobParams struct {
	Logger   *logger.Logger
	Sessions cartClearer
	Hour     int
	Now      func() time.Time
}

// NewCartClearJob builds the job that empties every abandoned cart once a
// day at the configured local hour. Clearing an already-empty cart is a
// no-op, so overlapping runs across instances are harmless.
func NewCartClearJob(params CartClearJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if params.Hour < 0 || params.Hour > 23 {
		return nil, fmt.Errorf("hour must be within 0-23")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &cartClearJob{
		logg:     params.Logger,
		sessions: params.Sessions,
		hour:     params.Hour,
		now:      now,
	}, nil
}

type cartClearJob struct {
	logg     *logger.Logger
	sessions cartClearer
	hour     int
	now      func() time.Time

	mu      sync.Mutex
	lastDay string
}

func (j *cartClearJob) Name() string { return "cart-clear" }

// Due fires once per local day, at the first tick inside the configured
// hour.
func (j *cartClearJob) Due(now time.Time) bool {
	if now.Hour() != j.hour {
		return false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return now.Format("2006-01-02") != j.lastDay
}

func (j *cartClearJob) Run(ctx context.Context) error {
	cleared, err := j.sessions.ClearAllCarts(ctx)
	if err != nil {
		return fmt.Errorf("clear carts: %w", err)
	}
	j.mu.Lock()
	j.lastDay = j.now().Format("2006-01-02")
	j.mu.Unlock()
	j.logg.Info(ctx, fmt.Sprintf("cleared %d carts", cleared))
	return nil
}
