package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/orderchat/orderchat-backend/internal/flow"
)

type stubEngine struct {
	result *flow.TurnResult
	err    error
	turns  int
}

func (s *stubEngine) HandleTurn(ctx context.Context, turn flow.Turn) (*flow.TurnResult, error) {
	s.turns++
	return s.result, s.err
}

func TestTurnAlerterPagesOnFailure(t *testing.T) {
	sms := &recordingChannel{name: "sms"}
	dispatcher, _ := NewDispatcher(nil, sms)
	engine := &stubEngine{err: errors.New("extraction timed out")}

	alerter, err := NewTurnAlerter(engine, dispatcher, []Recipient{{PhoneNumber: "+6680000001"}}, nil)
	if err != nil {
		t.Fatalf("new alerter: %v", err)
	}

	_, err = alerter.HandleTurn(context.Background(), flow.Turn{PSID: "psid-1", Text: "hi"})
	if err == nil {
		t.Fatal("expected engine error to propagate")
	}
	if sms.count() != 1 {
		t.Fatalf("alert sends = %d, want 1", sms.count())
	}
}

func TestTurnAlerterSilentOnSuccess(t *testing.T) {
	sms := &recordingChannel{name: "sms"}
	dispatcher, _ := NewDispatcher(nil, sms)
	engine := &stubEngine{result: &flow.TurnResult{ReplyText: "added to cart"}}

	alerter, _ := NewTurnAlerter(engine, dispatcher, []Recipient{{PhoneNumber: "+6680000001"}}, nil)

	result, err := alerter.HandleTurn(context.Background(), flow.Turn{PSID: "psid-1", Text: "2 boxes"})
	if err != nil {
		t.Fatalf("handle turn: %v", err)
	}
	if result.ReplyText != "added to cart" {
		t.Fatalf("reply = %q, want engine reply passed through", result.ReplyText)
	}
	if sms.count() != 0 {
		t.Fatalf("alert sends = %d, want none on success", sms.count())
	}
}

func TestTurnAlerterNoRecipientsIsPassThrough(t *testing.T) {
	sms := &recordingChannel{name: "sms"}
	dispatcher, _ := NewDispatcher(nil, sms)
	engine := &stubEngine{err: errors.New("boom")}

	alerter, _ := NewTurnAlerter(engine, dispatcher, nil, nil)

	if _, err := alerter.HandleTurn(context.Background(), flow.Turn{PSID: "psid-1"}); err == nil {
		t.Fatal("expected engine error to propagate")
	}
	if sms.count() != 0 {
		t.Fatalf("alert sends = %d, want none without recipients", sms.count())
	}
}
