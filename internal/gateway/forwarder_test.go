package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/orderchat/orderchat-backend/internal/signature"
)

func TestForwarder_DeliversRawBodyAndSignature(t *testing.T) {
	type delivery struct {
		body []byte
		sig  string
		path string
	}
	received := make(chan delivery, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- delivery{body: body, sig: r.Header.Get(signature.Header), path: r.URL.Path}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	forwarder, err := NewForwarder(server.URL, time.Second, nil)
	if err != nil {
		t.Fatalf("new forwarder: %v", err)
	}

	payload := []byte(`{"object":"page"}`)
	forwarder.Forward(payload, "sha256=abc")

	select {
	case got := <-received:
		if string(got.body) != string(payload) {
			t.Fatalf("body altered in transit: %s", got.body)
		}
		if got.sig != "sha256=abc" {
			t.Fatalf("signature header lost: %q", got.sig)
		}
		if got.path != "/worker/events" {
			t.Fatalf("unexpected path %s", got.path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never arrived")
	}
}

func TestForwarder_CallerNeverBlocksOnWorkerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	forwarder, err := NewForwarder(server.URL, time.Second, nil)
	if err != nil {
		t.Fatalf("new forwarder: %v", err)
	}

	start := time.Now()
	forwarder.Forward([]byte(`{}`), "sha256=abc")
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("forward blocked the caller for %s", elapsed)
	}
}
