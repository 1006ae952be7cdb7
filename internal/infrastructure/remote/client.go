package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/erp/syncbridge/internal/domain/bridge"
)

// maxResponseSize is the maximum allowed response size from the cloud API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Client implements the RemoteOrderSource port against the cloud order API
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a cloud API client with the given configuration
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.Named("remote"),
	}, nil
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// FetchPending returns one finite batch of pending orders from the cloud API
func (c *Client) FetchPending(ctx context.Context) ([]bridge.Order, error) {
	endpoint := fmt.Sprintf("/api/v1/orders/pending?page_size=%d", c.config.PageSize)

	body, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp pendingOrdersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", bridge.ErrRemoteInvalidResponse, err)
	}

	orders := make([]bridge.Order, 0, len(resp.Orders))
	for i := range resp.Orders {
		orders = append(orders, resp.Orders[i].toDomainOrder())
	}

	c.logger.Debug("fetched pending orders",
		zap.Int("count", len(orders)),
		zap.Bool("has_more", resp.HasMore))

	return orders, nil
}

// UpdateStatus reports a status transition for an order to the cloud API
func (c *Client) UpdateStatus(ctx context.Context, update bridge.StatusUpdate) error {
	if update.OrderID == "" {
		return fmt.Errorf("%w: order id is required", bridge.ErrRemoteRequestRejected)
	}

	payload := statusUpdatePayload{
		Status:       update.Status.String(),
		DocumentRef:  update.DocumentRef,
		ErrorMessage: update.ErrorMessage,
	}

	endpoint := "/api/v1/orders/" + url.PathEscape(update.OrderID) + "/status"
	_, err := c.doRequest(ctx, http.MethodPost, endpoint, payload)
	return err
}

// HealthCheck returns true if the cloud API is reachable
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		c.logger.Debug("health check failed", zap.Error(err))
		return false
	}
	return true
}

// ---------------------------------------------------------------------------
// Catalog Mirror Operations
// ---------------------------------------------------------------------------

// PushProducts upserts a page of catalog entries into the cloud mirror
func (c *Client) PushProducts(ctx context.Context, products []bridge.Product) (*bridge.SyncResult, error) {
	req := productPushRequest{Items: make([]productPayload, 0, len(products))}
	for _, p := range products {
		req.Items = append(req.Items, toProductPayload(p))
	}

	body, err := c.doRequest(ctx, http.MethodPut, "/api/v1/products", req)
	if err != nil {
		return nil, err
	}
	return parsePushResult(body, len(products))
}

// PushCustomers upserts a page of customer records into the cloud mirror
func (c *Client) PushCustomers(ctx context.Context, customers []bridge.Customer) (*bridge.SyncResult, error) {
	req := customerPushRequest{Items: make([]customerPayload, 0, len(customers))}
	for _, cust := range customers {
		req.Items = append(req.Items, toCustomerPayload(cust))
	}

	body, err := c.doRequest(ctx, http.MethodPut, "/api/v1/customers", req)
	if err != nil {
		return nil, err
	}
	return parsePushResult(body, len(customers))
}

// parsePushResult converts a push endpoint response into a SyncResult
func parsePushResult(body []byte, total int) (*bridge.SyncResult, error) {
	var resp pushResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", bridge.ErrRemoteInvalidResponse, err)
	}

	result := &bridge.SyncResult{
		TotalCount:   total,
		SuccessCount: resp.AcceptedCount,
		FailedCount:  len(resp.RejectedItems),
		FailedItems:  make([]bridge.SyncFailure, 0, len(resp.RejectedItems)),
		SyncedAt:     time.Now(),
	}
	for _, item := range resp.RejectedItems {
		result.FailedItems = append(result.FailedItems, bridge.SyncFailure{
			ItemID:       item.Code,
			ErrorMessage: item.ErrorMessage,
		})
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs one HTTP request against the cloud API and maps
// transport and status failures onto the domain error taxonomy.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("remote: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("remote: failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Context cancellation must surface as-is so callers can tell
		// an aborted run from a flaky network.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", bridge.ErrRemoteTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", bridge.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", bridge.ErrRemoteInvalidResponse, err)
	}

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("%w: HTTP %d %s", err, resp.StatusCode, endpoint)
	}

	return body, nil
}

// classifyStatus maps an HTTP status code onto a domain error sentinel.
// 5xx and 429 are transient, 4xx are permanent rejections.
func classifyStatus(code int) error {
	switch {
	case code < 400:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return bridge.ErrRemoteAuthFailed
	case code == http.StatusTooManyRequests:
		return bridge.ErrRemoteRateLimited
	case code >= 500:
		return bridge.ErrRemoteUnavailable
	default:
		return bridge.ErrRemoteRequestRejected
	}
}

// Ensure Client implements the RemoteOrderSource interface
var _ bridge.RemoteOrderSource = (*Client)(nil)
