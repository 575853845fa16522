package flow

import (
	"context"
	"time"
)

// Turn is a single inbound chat message routed to the dialogue engine.
type Turn struct {
	PSID      string    `json:"psid"`
	MessageID string    `json:"messageId,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnResult is what the dialogue engine decided for one turn. The reply is
// pushed back to the user by the engine itself; the pipeline only observes
// the outcome.
type TurnResult struct {
	ReplyText string `json:"replyText,omitempty"`
	AIOrderID string `json:"aiOrderId,omitempty"`
}

// Engine owns per-turn dialogue logic. The event processor hands each
// flattened message to it and isolates its failures from sibling events.
type Engine interface {
	HandleTurn(ctx context.Context, turn Turn) (*TurnResult, error)
}
