package wms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/orderchat/orderchat-backend/pkg/enums"
	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
)

const (
	defaultTimeout             = 10 * time.Second
	defaultMaxRetries          = 3
	defaultRetryDelay          = time.Second
	responseBodyReadLimit int64 = 1024
)

var errBaseURLRequired = errors.New("wms base url is required")

// Client queries the external warehouse system for picking completion and
// stock on hand. Transient failures (network errors, 5xx, 429) are retried
// with a fixed delay; terminal responses are returned as-is.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxRetries int
	retryDelay time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the retry attempt count and delay.
func WithRetryPolicy(maxRetries int, delay time.Duration) Option {
	return func(c *Client) {
		if maxRetries > 0 {
			c.maxRetries = maxRetries
		}
		c.retryDelay = delay
	}
}

// NewClient builds the warehouse client for the given base URL.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return client, nil
}

// PickingResult is the normalized picking state for one picking order.
type PickingResult struct {
	Status             enums.PickingStatus
	PickingOrderNumber string
	CheckedAt          time.Time
}

// StockResult is the normalized stock-on-hand answer for one product lot.
type StockResult struct {
	Status    enums.StockStatus
	ProductID string
	Lot       string
	Bin       string
	Quantity  int
}

// PickingStatus queries whether the given picking order has been fully picked.
func (c *Client) PickingStatus(ctx context.Context, pickingOrderNumber string) (*PickingResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wms client not configured")
	}
	trimmed := strings.TrimSpace(pickingOrderNumber)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "picking order number is required")
	}

	endpoint := fmt.Sprintf("%s/picking/%s", c.baseURL, url.PathEscape(trimmed))
	var apiResp struct {
		Code string `json:"code"`
	}
	if err := c.getJSON(ctx, endpoint, &apiResp); err != nil {
		return nil, err
	}

	return &PickingResult{
		Status:             mapPickingCode(apiResp.Code),
		PickingOrderNumber: trimmed,
		CheckedAt:          time.Now().UTC(),
	}, nil
}

// StockOnHand queries the available quantity for a product, optionally
// narrowed to a lot and bin.
func (c *Client) StockOnHand(ctx context.Context, productID, lot, bin string) (*StockResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wms client not configured")
	}
	trimmedID := strings.TrimSpace(productID)
	if trimmedID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	query := url.Values{}
	if lot != "" {
		query.Set("lot", lot)
	}
	if bin != "" {
		query.Set("bin", bin)
	}
	endpoint := fmt.Sprintf("%s/stock/%s", c.baseURL, url.PathEscape(trimmedID))
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var apiResp struct {
		Code     string `json:"code"`
		Lot      string `json:"lot"`
		Bin      string `json:"bin"`
		Quantity int    `json:"qty"`
	}
	if err := c.getJSON(ctx, endpoint, &apiResp); err != nil {
		return nil, err
	}

	return &StockResult{
		Status:    mapStockCode(apiResp.Code, apiResp.Quantity),
		ProductID: trimmedID,
		Lot:       apiResp.Lot,
		Bin:       apiResp.Bin,
		Quantity:  apiResp.Quantity,
	}, nil
}

// getJSON executes the request with the retry policy and decodes the body
// into out. Only transient failures are retried; 404 and other terminal
// statuses go straight back to the caller.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "wms request canceled")
			case <-time.After(c.retryDelay):
			}
		}

		retryable, err := c.doOnce(ctx, endpoint, out)
		if err == nil {
			return nil
		}
		if !retryable {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, endpoint string, out any) (retryable bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build wms request")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return true, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute wms request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return false, pkgerrors.New(pkgerrors.CodeNotFound, "wms record not found")
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return true, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "wms request failed")
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "wms request rejected")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode wms response")
	}
	return false, nil
}

// mapPickingCode translates the warehouse's terse picking codes.
func mapPickingCode(code string) enums.PickingStatus {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "C", "COMPLETED":
		return enums.PickingStatusCompleted
	case "I", "P", "INCOMPLETE":
		return enums.PickingStatusIncomplete
	case "NF", "NOT_FOUND":
		return enums.PickingStatusNotFound
	default:
		return enums.PickingStatusError
	}
}

// mapStockCode translates the warehouse's terse stock codes.
func mapStockCode(code string, qty int) enums.StockStatus {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "A", "AVAILABLE":
		if qty <= 0 {
			return enums.StockStatusOutOfStock
		}
		return enums.StockStatusAvailable
	case "OOS", "OUT_OF_STOCK":
		return enums.StockStatusOutOfStock
	case "NF", "NOT_FOUND":
		return enums.StockStatusNotFound
	default:
		return enums.StockStatusError
	}
}
