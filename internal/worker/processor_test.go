package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/orderchat/orderchat-backend/internal/flow"
	"github.com/orderchat/orderchat-backend/internal/signature"
	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
)

type fakeEngine struct {
	mu     sync.Mutex
	turns  []flow.Turn
	failOn string
}

func (f *fakeEngine) HandleTurn(ctx context.Context, turn flow.Turn) (*flow.TurnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && turn.PSID == f.failOn {
		return nil, errors.New("engine exploded")
	}
	f.turns = append(f.turns, turn)
	return &flow.TurnResult{ReplyText: "ok"}, nil
}

func (f *fakeEngine) handled() []flow.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]flow.Turn(nil), f.turns...)
}

type fakeGuard struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeGuard() *fakeGuard { return &fakeGuard{seen: map[string]bool{}} }

func (f *fakeGuard) CheckAndMark(ctx context.Context, messageID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen[messageID] {
		return true, nil
	}
	f.seen[messageID] = true
	return false, nil
}

func (f *fakeGuard) Delete(ctx context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, messageID)
	return nil
}

const testSecret = "worker-secret"

func signedPayload(t *testing.T, event Event) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload, signature.NewVerifier(testSecret).Sign(payload)
}

func textUnit(psid, mid, text string) Messaging {
	return Messaging{
		Sender:    Participant{ID: psid},
		Timestamp: 1700000000000,
		Message:   &Message{MID: mid, Text: text},
	}
}

func newTestProcessor(t *testing.T, engine *fakeEngine, guard *fakeGuard) *Processor {
	t.Helper()
	proc, err := NewProcessor(signature.NewVerifier(testSecret), engine, guard, nil)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	return proc
}

func TestProcessor_FlattensEntriesAndDispatchesAll(t *testing.T) {
	engine := &fakeEngine{}
	proc := newTestProcessor(t, engine, newFakeGuard())

	payload, sig := signedPayload(t, Event{
		Object: "page",
		Entry: []Entry{
			{ID: "p1", Messaging: []Messaging{textUnit("u1", "m1", "hi"), textUnit("u2", "m2", "hello")}},
			{ID: "p2", Messaging: []Messaging{textUnit("u3", "m3", "hey")}},
		},
	})
	result, err := proc.Process(context.Background(), payload, sig)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Received != 3 || result.Processed != 3 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(engine.handled()) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(engine.handled()))
	}
}

func TestProcessor_RejectsBadSignature(t *testing.T) {
	proc := newTestProcessor(t, &fakeEngine{}, newFakeGuard())
	payload, _ := signedPayload(t, Event{Object: "page"})

	_, err := proc.Process(context.Background(), payload, "sha256=deadbeef")
	if pkgerrors.As(err).Code() != pkgerrors.CodeSignature {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestProcessor_IgnoresForeignObjects(t *testing.T) {
	engine := &fakeEngine{}
	proc := newTestProcessor(t, engine, newFakeGuard())

	payload, sig := signedPayload(t, Event{
		Object: "instagram",
		Entry:  []Entry{{Messaging: []Messaging{textUnit("u1", "m1", "hi")}}},
	})
	result, err := proc.Process(context.Background(), payload, sig)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Received != 0 || len(engine.handled()) != 0 {
		t.Fatal("foreign deliveries must be ignored entirely")
	}
}

func TestProcessor_OneFailureNeverAbortsSiblings(t *testing.T) {
	engine := &fakeEngine{failOn: "u2"}
	guard := newFakeGuard()
	proc := newTestProcessor(t, engine, guard)

	payload, sig := signedPayload(t, Event{
		Object: "page",
		Entry: []Entry{{Messaging: []Messaging{
			textUnit("u1", "m1", "hi"),
			textUnit("u2", "m2", "boom"),
			textUnit("u3", "m3", "hey"),
		}}},
	})
	result, err := proc.Process(context.Background(), payload, sig)
	if err == nil {
		t.Fatal("expected aggregate error")
	}
	if result.Processed != 2 || result.Failed != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if guard.seen["m2"] {
		t.Fatal("failed turn must release its dedup mark")
	}
}

func TestProcessor_DropsDuplicateDeliveries(t *testing.T) {
	engine := &fakeEngine{}
	proc := newTestProcessor(t, engine, newFakeGuard())
	ctx := context.Background()

	payload, sig := signedPayload(t, Event{
		Object: "page",
		Entry:  []Entry{{Messaging: []Messaging{textUnit("u1", "m1", "hi")}}},
	})
	if _, err := proc.Process(ctx, payload, sig); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	result, err := proc.Process(ctx, payload, sig)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if result.Duplicates != 1 || result.Processed != 0 {
		t.Fatalf("redelivery must be dropped, got %+v", result)
	}
	if len(engine.handled()) != 1 {
		t.Fatalf("expected a single handled turn, got %d", len(engine.handled()))
	}
}

func TestProcessor_DedupOutageDoesNotDropTurns(t *testing.T) {
	engine := &fakeEngine{}
	guard := newFakeGuard()
	guard.err = errors.New("redis down")
	proc := newTestProcessor(t, engine, guard)

	payload, sig := signedPayload(t, Event{
		Object: "page",
		Entry:  []Entry{{Messaging: []Messaging{textUnit("u1", "m1", "hi")}}},
	})
	result, err := proc.Process(context.Background(), payload, sig)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("turn must still be processed, got %+v", result)
	}
}

func TestProcessor_SkipsContentlessUnits(t *testing.T) {
	engine := &fakeEngine{}
	proc := newTestProcessor(t, engine, newFakeGuard())

	payload, sig := signedPayload(t, Event{
		Object: "page",
		Entry:  []Entry{{Messaging: []Messaging{{Sender: Participant{ID: "u1"}}}}},
	})
	result, err := proc.Process(context.Background(), payload, sig)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Skipped != 1 || result.Processed != 0 {
		t.Fatalf("contentless unit must be skipped, got %+v", result)
	}
}

func TestProcessor_RoutesPostbackPayloadAsText(t *testing.T) {
	engine := &fakeEngine{}
	proc := newTestProcessor(t, engine, newFakeGuard())

	payload, sig := signedPayload(t, Event{
		Object: "page",
		Entry: []Entry{{Messaging: []Messaging{{
			Sender:    Participant{ID: "u1"},
			Timestamp: 1700000000000,
			Postback:  &Postback{Title: "Confirm", Payload: "CONFIRM_ORDER"},
		}}}},
	})
	result, err := proc.Process(context.Background(), payload, sig)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	turns := engine.handled()
	if len(turns) != 1 || turns[0].Text != "CONFIRM_ORDER" {
		t.Fatalf("postback payload must route as text, got %+v", turns)
	}
}
