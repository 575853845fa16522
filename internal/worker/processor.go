package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/orderchat/orderchat-backend/internal/flow"
	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
	"github.com/orderchat/orderchat-backend/pkg/logger"
)

// payloadVerifier re-checks the provider signature. The worker never trusts
// the gateway's verdict.
type payloadVerifier interface {
	Verify(payload []byte, header string) bool
}

type dedupGuard interface {
	CheckAndMark(ctx context.Context, messageID string) (bool, error)
	Delete(ctx context.Context, messageID string) error
}

// Processor verifies, flattens and dispatches webhook deliveries. Each
// flattened unit is handled independently: one failing turn never aborts
// its siblings, and duplicates of the same message id are dropped.
type Processor struct {
	verifier payloadVerifier
	engine   flow.Engine
	guard    dedupGuard
	logg     *logger.Logger
}

// NewProcessor wires the event processor.
func NewProcessor(verifier payloadVerifier, engine flow.Engine, guard dedupGuard, logg *logger.Logger) (*Processor, error) {
	if verifier == nil {
		return nil, fmt.Errorf("payload verifier required")
	}
	if engine == nil {
		return nil, fmt.Errorf("flow engine required")
	}
	if guard == nil {
		return nil, fmt.Errorf("dedup guard required")
	}
	return &Processor{verifier: verifier, engine: engine, guard: guard, logg: logg}, nil
}

// Result summarizes one processed delivery.
type Result struct {
	Received   int `json:"received"`
	Processed  int `json:"processed"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Process handles one raw delivery. A bad signature or malformed body is a
// request error; per-unit failures are settled individually and reported
// in the result, with the aggregate error advisory only.
func (p *Processor) Process(ctx context.Context, payload []byte, sigHeader string) (*Result, error) {
	if !p.verifier.Verify(payload, sigHeader) {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "invalid payload signature")
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event payload")
	}
	if event.Object != expectedObject {
		if p.logg != nil {
			p.logg.Info(ctx, fmt.Sprintf("ignoring %q delivery", event.Object))
		}
		return &Result{}, nil
	}

	units := event.flatten()
	result := &Result{Received: len(units)}
	if len(units) == 0 {
		return result, nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, unit := range units {
		wg.Add(1)
		go func(unit Messaging) {
			defer wg.Done()
			outcome, err := p.handleUnit(ctx, unit)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case unitProcessed:
				result.Processed++
			case unitDuplicate:
				result.Duplicates++
			case unitSkipped:
				result.Skipped++
			case unitFailed:
				result.Failed++
				errs = multierr.Append(errs, err)
			}
		}(unit)
	}
	wg.Wait()
	return result, errs
}

type unitOutcome int

const (
	unitProcessed unitOutcome = iota
	unitDuplicate
	unitSkipped
	unitFailed
)

func (p *Processor) handleUnit(ctx context.Context, unit Messaging) (unitOutcome, error) {
	turn, ok := toTurn(unit)
	if !ok {
		// Delivery receipts, read events and similar carry no dispatchable
		// content.
		return unitSkipped, nil
	}
	ctx = p.withTurnFields(ctx, turn)

	if turn.MessageID != "" {
		seen, err := p.guard.CheckAndMark(ctx, turn.MessageID)
		if err != nil {
			// Redis trouble must not drop the turn; process it anyway.
			if p.logg != nil {
				p.logg.Warn(ctx, fmt.Sprintf("dedup check failed: %v", err))
			}
		} else if seen {
			if p.logg != nil {
				p.logg.Info(ctx, "duplicate delivery dropped")
			}
			return unitDuplicate, nil
		}
	}

	if _, err := p.engine.HandleTurn(ctx, turn); err != nil {
		if turn.MessageID != "" {
			_ = p.guard.Delete(ctx, turn.MessageID)
		}
		if p.logg != nil {
			p.logg.Error(ctx, "turn handling failed", err)
		}
		return unitFailed, fmt.Errorf("psid %s: %w", turn.PSID, err)
	}
	return unitProcessed, nil
}

func (p *Processor) withTurnFields(ctx context.Context, turn flow.Turn) context.Context {
	if p.logg == nil {
		return ctx
	}
	ctx = p.logg.WithPSID(ctx, turn.PSID)
	if turn.MessageID != "" {
		ctx = p.logg.WithEventID(ctx, turn.MessageID)
	}
	return ctx
}

// toTurn maps a messaging unit onto a dialogue turn. Postbacks route their
// payload as text; units without content are skipped.
func toTurn(unit Messaging) (flow.Turn, bool) {
	turn := flow.Turn{
		PSID:      unit.Sender.ID,
		Timestamp: time.UnixMilli(unit.Timestamp).UTC(),
	}
	switch {
	case unit.Message != nil && unit.Message.Text != "":
		turn.MessageID = unit.Message.MID
		turn.Text = unit.Message.Text
	case unit.Postback != nil && unit.Postback.Payload != "":
		turn.MessageID = "pb-" + unit.Sender.ID + "-" + strconv.FormatInt(unit.Timestamp, 10)
		turn.Text = unit.Postback.Payload
	default:
		return flow.Turn{}, false
	}
	if turn.PSID == "" {
		return flow.Turn{}, false
	}
	return turn, true
}
