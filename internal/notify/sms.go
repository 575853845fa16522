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

const smsBodyReadLimit int64 = 1024

var errSMSBaseURLRequired = errors.New("sms base url is required")

// SMSChannel delivers notices through the SMS gateway's REST API.
type SMSChannel struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	sender     string
}

// SMSOption configures optional channel behavior.
type SMSOption func(*SMSChannel)

// WithSMSHTTPClient overrides the default HTTP client.
func WithSMSHTTPClient(client *http.Client) SMSOption {
	return func(c *SMSChannel) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewSMSChannel builds the SMS gateway channel.
func NewSMSChannel(baseURL, apiKey, sender string, opts ...SMSOption) (*SMSChannel, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errSMSBaseURLRequired
	}

	channel := &SMSChannel{
		baseURL:    strings.TrimRight(trimmed, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		sender:     strings.TrimSpace(sender),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(channel)
		}
	}
	return channel, nil
}

// Name implements Channel.
func (c *SMSChannel) Name() string { return "sms" }

// Send implements Channel.
func (c *SMSChannel) Send(ctx context.Context, recipient Recipient, notice Notice) error {
	if strings.TrimSpace(recipient.PhoneNumber) == "" {
		return ErrNotAddressable
	}

	payload, err := json.Marshal(map[string]string{
		"to":      recipient.PhoneNumber,
		"from":    c.sender,
		"message": notice.Text,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal sms payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build sms request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute sms request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, smsBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "sms request failed")
	}
	return nil
}
