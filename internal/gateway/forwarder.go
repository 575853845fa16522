package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/orderchat/orderchat-backend/internal/signature"
	"github.com/orderchat/orderchat-backend/pkg/logger"
)

const defaultForwardTimeout = 10 * time.Second

var errWorkerURLRequired = errors.New("worker url is required")

// Forwarder relays verified deliveries to the worker without awaiting the
// outcome. The provider expects a fast 200 regardless of downstream state;
// forward failures are logged, never surfaced.
type Forwarder struct {
	httpClient *http.Client
	workerURL  string
	timeout    time.Duration
	logg       *logger.Logger
}

// Option configures optional forwarder behavior.
type Option func(*Forwarder)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Forwarder) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// NewForwarder builds the worker forwarder.
func NewForwarder(workerURL string, timeout time.Duration, logg *logger.Logger, opts ...Option) (*Forwarder, error) {
	trimmed := strings.TrimSpace(workerURL)
	if trimmed == "" {
		return nil, errWorkerURLRequired
	}
	if timeout <= 0 {
		timeout = defaultForwardTimeout
	}

	forwarder := &Forwarder{
		workerURL:  strings.TrimRight(trimmed, "/"),
		timeout:    timeout,
		logg:       logg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(forwarder)
		}
	}
	return forwarder, nil
}

// Forward ships the raw body and original signature header to the worker in
// the background and returns immediately.
func (f *Forwarder) Forward(body []byte, sigHeader string) {
	payload := append([]byte(nil), body...)
	go f.deliver(payload, sigHeader)
}

func (f *Forwarder) deliver(payload []byte, sigHeader string) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.workerURL+"/worker/events", bytes.NewReader(payload))
	if err != nil {
		f.warn(ctx, fmt.Sprintf("build forward request: %v", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signature.Header, sigHeader)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.warn(ctx, fmt.Sprintf("forward to worker failed: %v", err))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		f.warn(ctx, fmt.Sprintf("worker rejected delivery: status %d", resp.StatusCode))
	}
}

func (f *Forwarder) warn(ctx context.Context, msg string) {
	if f.logg != nil {
		f.logg.Warn(ctx, msg)
	}
}
