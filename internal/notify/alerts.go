package notify

import (
	"context"
	"fmt"

	"github.com/orderchat/orderchat-backend/internal/flow"
	"github.com/orderchat/orderchat-backend/pkg/logger"
)

// TurnAlerter decorates a flow engine so that turn failures are surfaced to
// the configured operator recipients. Alert delivery is best effort and
// never changes the turn outcome.
type TurnAlerter struct {
	engine     flow.Engine
	dispatcher *Dispatcher
	recipients []Recipient
	logg       *logger.Logger
}

// NewTurnAlerter wraps the engine. With no recipients configured the
// wrapper is a pass-through.
func NewTurnAlerter(engine flow.Engine, dispatcher *Dispatcher, recipients []Recipient, logg *logger.Logger) (*TurnAlerter, error) {
	if engine == nil {
		return nil, fmt.Errorf("flow engine required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	return &TurnAlerter{engine: engine, dispatcher: dispatcher, recipients: recipients, logg: logg}, nil
}

func (a *TurnAlerter) HandleTurn(ctx context.Context, turn flow.Turn) (*flow.TurnResult, error) {
	result, err := a.engine.HandleTurn(ctx, turn)
	if err != nil && len(a.recipients) > 0 {
		notice := Notice{
			Kind:       KindAlert,
			Text:       fmt.Sprintf("order turn failed for %s: %v", turn.PSID, err),
			Recipients: a.recipients,
		}
		if derr := a.dispatcher.Dispatch(ctx, notice); derr != nil && a.logg != nil {
			a.logg.Warn(ctx, fmt.Sprintf("turn failure alert not fully delivered: %v", derr))
		}
	}
	return result, err
}
