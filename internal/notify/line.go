package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
)

const lineBodyReadLimit int64 = 1024

var errLineTokenRequired = errors.New("line channel token is required")

// LineChannel delivers notices through the LINE Messaging API push endpoint.
type LineChannel struct {
	httpClient   *http.Client
	pushURL      string
	channelToken string
}

// LineOption configures optional channel behavior.
type LineOption func(*LineChannel)

// WithLineHTTPClient overrides the default HTTP client.
func WithLineHTTPClient(client *http.Client) LineOption {
	return func(c *LineChannel) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLinePushURL overrides the push endpoint, mainly for tests.
func WithLinePushURL(pushURL string) LineOption {
	return func(c *LineChannel) {
		trimmed := strings.TrimSpace(pushURL)
		if trimmed != "" {
			c.pushURL = trimmed
		}
	}
}

// NewLineChannel builds the LINE push channel.
func NewLineChannel(pushURL, channelToken string, opts ...LineOption) (*LineChannel, error) {
	trimmedToken := strings.TrimSpace(channelToken)
	if trimmedToken == "" {
		return nil, errLineTokenRequired
	}

	channel := &LineChannel{
		pushURL:      strings.TrimSpace(pushURL),
		channelToken: trimmedToken,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(channel)
		}
	}
	if channel.pushURL == "" {
		return nil, fmt.Errorf("line push url is required")
	}
	return channel, nil
}

// Name implements Channel.
func (c *LineChannel) Name() string { return "line" }

type linePushRequest struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Send implements Channel.
func (c *LineChannel) Send(ctx context.Context, recipient Recipient, notice Notice) error {
	if strings.TrimSpace(recipient.LineUserID) == "" {
		return ErrNotAddressable
	}

	payload, err := json.Marshal(linePushRequest{
		To:       recipient.LineUserID,
		Messages: []lineMessage{{Type: "text", Text: notice.Text}},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal line payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pushURL, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build line request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.channelToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute line request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, lineBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "line push failed")
	}
	return nil
}
