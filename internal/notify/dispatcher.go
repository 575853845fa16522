package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
	"github.com/orderchat/orderchat-backend/pkg/logger"
)

// Dispatcher fans a notice out to every channel/recipient pair with
// all-settled semantics: each delivery runs to completion regardless of
// sibling failures, and the aggregate error is advisory only.
type Dispatcher struct {
	channels []Channel
	logg     *logger.Logger
}

// NewDispatcher wires the dispatcher over the configured channels.
func NewDispatcher(logg *logger.Logger, channels ...Channel) (*Dispatcher, error) {
	active := make([]Channel, 0, len(channels))
	for _, channel := range channels {
		if channel != nil {
			active = append(active, channel)
		}
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("at least one channel required")
	}
	return &Dispatcher{channels: active, logg: logg}, nil
}

// Dispatch delivers the notice to every recipient on every channel. The
// returned error aggregates individual failures; callers log it and move on,
// they never roll back the operation that triggered the notice.
func (d *Dispatcher) Dispatch(ctx context.Context, notice Notice) error {
	if notice.Text == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notice text is required")
	}
	if len(notice.Recipients) == 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, channel := range d.channels {
		for _, recipient := range notice.Recipients {
			wg.Add(1)
			go func(channel Channel, recipient Recipient) {
				defer wg.Done()
				err := channel.Send(ctx, recipient, notice)
				if err == nil || errors.Is(err, ErrNotAddressable) {
					return
				}
				if d.logg != nil {
					d.logg.Warn(ctx, fmt.Sprintf("%s delivery failed: %v", channel.Name(), err))
				}
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", channel.Name(), err))
				mu.Unlock()
			}(channel, recipient)
		}
	}
	wg.Wait()
	return errs
}
