package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/multierr"
)

type recordingChannel struct {
	name string
	err  error
	slow time.Duration

	mu    sync.Mutex
	sends []Recipient
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Send(ctx context.Context, recipient Recipient, notice Notice) error {
	if c.slow > 0 {
		time.Sleep(c.slow)
	}
	c.mu.Lock()
	c.sends = append(c.sends, recipient)
	c.mu.Unlock()
	return c.err
}

func (c *recordingChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sends)
}

func TestDispatcher_DeliversToEveryChannelAndRecipient(t *testing.T) {
	sms := &recordingChannel{name: "sms"}
	line := &recordingChannel{name: "line"}
	dispatcher, err := NewDispatcher(nil, sms, line)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	notice := Notice{
		Kind: KindAlert,
		Text: "order ready",
		Recipients: []Recipient{
			{PhoneNumber: "+66800000001", LineUserID: "U1"},
			{PhoneNumber: "+66800000002", LineUserID: "U2"},
		},
	}
	if err := dispatcher.Dispatch(context.Background(), notice); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if sms.count() != 2 || line.count() != 2 {
		t.Fatalf("expected 2 sends per channel, got sms=%d line=%d", sms.count(), line.count())
	}
}

func TestDispatcher_FailureNeverBlocksSiblings(t *testing.T) {
	failing := &recordingChannel{name: "sms", err: errors.New("gateway down")}
	healthy := &recordingChannel{name: "line"}
	dispatcher, _ := NewDispatcher(nil, failing, healthy)

	notice := Notice{
		Kind:       KindOTP,
		Text:       "123456",
		Recipients: []Recipient{{PhoneNumber: "+66800000001"}, {PhoneNumber: "+66800000002"}},
	}
	err := dispatcher.Dispatch(context.Background(), notice)
	if err == nil {
		t.Fatal("expected aggregate error")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 collected failures, got %d", got)
	}
	if healthy.count() != 2 {
		t.Fatalf("healthy channel must still deliver, got %d sends", healthy.count())
	}
}

func TestDispatcher_SkipsUnaddressableRecipients(t *testing.T) {
	sms := &recordingChannel{name: "sms", err: ErrNotAddressable}
	dispatcher, _ := NewDispatcher(nil, sms)

	notice := Notice{Kind: KindAlert, Text: "hi", Recipients: []Recipient{{LineUserID: "U1"}}}
	if err := dispatcher.Dispatch(context.Background(), notice); err != nil {
		t.Fatalf("unaddressable recipients must not count as failures: %v", err)
	}
}

func TestDispatcher_NoRecipientsIsNoop(t *testing.T) {
	sms := &recordingChannel{name: "sms"}
	dispatcher, _ := NewDispatcher(nil, sms)
	if err := dispatcher.Dispatch(context.Background(), Notice{Kind: KindAlert, Text: "hi"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if sms.count() != 0 {
		t.Fatal("nothing should be sent without recipients")
	}
}

func TestSMSChannel_SendsGatewayRequest(t *testing.T) {
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("X-Api-Key")
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel, err := NewSMSChannel(server.URL, "key-1", "ORDERCHAT")
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	err = channel.Send(context.Background(), Recipient{PhoneNumber: "+66800000001"}, Notice{Text: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if seenAuth != "key-1" {
		t.Fatalf("missing api key header, got %q", seenAuth)
	}
}

func TestSMSChannel_PhonelessRecipientIsSkipped(t *testing.T) {
	channel, _ := NewSMSChannel("http://sms.local", "", "ORDERCHAT")
	err := channel.Send(context.Background(), Recipient{LineUserID: "U1"}, Notice{Text: "hello"})
	if !errors.Is(err, ErrNotAddressable) {
		t.Fatalf("expected ErrNotAddressable, got %v", err)
	}
}

func TestLineChannel_SendsPushRequest(t *testing.T) {
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel, err := NewLineChannel(server.URL, "token-1")
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	err = channel.Send(context.Background(), Recipient{LineUserID: "U1"}, Notice{Text: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if seenAuth != "Bearer token-1" {
		t.Fatalf("missing bearer token, got %q", seenAuth)
	}
}
