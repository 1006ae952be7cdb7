package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/erp/syncbridge/internal/domain/bridge"
	"github.com/erp/syncbridge/internal/infrastructure/config"
)

// maxProxyResponseSize is the maximum allowed response size from the proxy (10MB)
const maxProxyResponseSize = 10 * 1024 * 1024

// HTTPGateway implements the ErpGateway port against the on-premise
// proxy service. Used when the bridge runs outside the ERP network and
// cannot reach the database directly.
type HTTPGateway struct {
	cfg        *config.ErpProxyConfig
	httpClient *http.Client
	logger     *zap.Logger
	connected  atomic.Bool
}

// NewHTTPGateway creates a proxy-backed gateway
func NewHTTPGateway(cfg *config.ErpProxyConfig, log *zap.Logger) *HTTPGateway {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPGateway{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.Named("erp.http"),
	}
}

// ---------------------------------------------------------------------------
// Wire Types
// ---------------------------------------------------------------------------

// createDocumentRequest is the request body of POST /api/v1/documents
type createDocumentRequest struct {
	SourceOrderID string             `json:"source_order_id"`
	CustomerRef   string             `json:"customer_ref,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	Currency      string             `json:"currency"`
	Lines         []documentLineBody `json:"lines"`
}

// documentLineBody is one line of a document creation request
type documentLineBody struct {
	ProductCode string `json:"product_code"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	VatRate     string `json:"vat_rate"`
	Discount    string `json:"discount"`
	Notes       string `json:"notes,omitempty"`
}

// createDocumentResponse is the proxy's document creation response
type createDocumentResponse struct {
	DocumentID     string `json:"document_id"`
	DocumentNumber string `json:"document_number"`
}

// productBody mirrors ProductModel over the wire
type productBody struct {
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         string    `json:"price"`
	VatRate       string    `json:"vat_rate"`
	StockQuantity string    `json:"stock_quantity"`
	IsActive      bool      `json:"is_active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// customerBody mirrors CustomerModel over the wire
type customerBody struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Balance   string    `json:"balance"`
	IsActive  bool      `json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ---------------------------------------------------------------------------
// Connection Management
// ---------------------------------------------------------------------------

// Connect verifies the proxy is reachable. The proxy is stateless, so
// "connected" only records a successful ping.
func (g *HTTPGateway) Connect(ctx context.Context) error {
	if _, err := g.doRequest(ctx, http.MethodGet, "/api/v1/ping", nil); err != nil {
		return err
	}
	g.connected.Store(true)
	g.logger.Info("connected to ERP proxy", zap.String("base_url", g.cfg.BaseURL))
	return nil
}

// Disconnect marks the gateway as disconnected
func (g *HTTPGateway) Disconnect() error {
	g.connected.Store(false)
	return nil
}

// IsConnected reports whether the proxy is currently reachable
func (g *HTTPGateway) IsConnected(ctx context.Context) bool {
	if !g.connected.Load() {
		return false
	}
	_, err := g.doRequest(ctx, http.MethodGet, "/api/v1/ping", nil)
	return err == nil
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// CreateDocument asks the proxy to create one ERP sales document
func (g *HTTPGateway) CreateDocument(ctx context.Context, order *bridge.Order) (*bridge.DocumentResult, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if !g.connected.Load() {
		return nil, bridge.ErrErpNotConnected
	}

	req := createDocumentRequest{
		SourceOrderID: order.ID,
		CustomerRef:   order.CustomerRef,
		Notes:         order.Notes,
		Currency:      order.Currency,
		Lines:         make([]documentLineBody, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		req.Lines = append(req.Lines, documentLineBody{
			ProductCode: line.ProductCode,
			ProductName: line.ProductName,
			Quantity:    line.Quantity.String(),
			UnitPrice:   line.UnitPrice.String(),
			VatRate:     line.VatRate.String(),
			Discount:    line.Discount.String(),
			Notes:       line.Notes,
		})
	}

	body, err := g.doRequest(ctx, http.MethodPost, "/api/v1/documents", req)
	if err != nil {
		return nil, err
	}

	var resp createDocumentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", bridge.ErrErpUnavailable, err)
	}
	if resp.DocumentNumber == "" {
		return nil, fmt.Errorf("%w: proxy returned no document number", bridge.ErrErpUnavailable)
	}

	g.logger.Info("created sales document via proxy",
		zap.String("order_id", order.ID),
		zap.String("document_number", resp.DocumentNumber))

	return bridge.SuccessResult(resp.DocumentID, resp.DocumentNumber), nil
}

// FetchProducts reads the product catalog through the proxy
func (g *HTTPGateway) FetchProducts(ctx context.Context) ([]bridge.Product, error) {
	if !g.connected.Load() {
		return nil, bridge.ErrErpNotConnected
	}

	body, err := g.doRequest(ctx, http.MethodGet, "/api/v1/products", nil)
	if err != nil {
		return nil, err
	}

	var items []productBody
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", bridge.ErrErpUnavailable, err)
	}

	products := make([]bridge.Product, 0, len(items))
	for _, item := range items {
		products = append(products, bridge.Product{
			Code:          item.Code,
			Name:          item.Name,
			Description:   item.Description,
			Price:         parseDecimal(item.Price),
			VatRate:       parseDecimal(item.VatRate),
			StockQuantity: parseDecimal(item.StockQuantity),
			IsActive:      item.IsActive,
			UpdatedAt:     item.UpdatedAt,
		})
	}
	return products, nil
}

// FetchCustomers reads the customer master data through the proxy
func (g *HTTPGateway) FetchCustomers(ctx context.Context) ([]bridge.Customer, error) {
	if !g.connected.Load() {
		return nil, bridge.ErrErpNotConnected
	}

	body, err := g.doRequest(ctx, http.MethodGet, "/api/v1/customers", nil)
	if err != nil {
		return nil, err
	}

	var items []customerBody
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", bridge.ErrErpUnavailable, err)
	}

	customers := make([]bridge.Customer, 0, len(items))
	for _, item := range items {
		customers = append(customers, bridge.Customer{
			Code:      item.Code,
			Name:      item.Name,
			TaxID:     item.TaxID,
			Email:     item.Email,
			Phone:     item.Phone,
			Address:   item.Address,
			Balance:   parseDecimal(item.Balance),
			IsActive:  item.IsActive,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return customers, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs one HTTP request against the proxy and maps
// transport and status failures onto the domain error taxonomy.
func (g *HTTPGateway) doRequest(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("erp: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.cfg.BaseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("erp: failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", g.cfg.APIKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", bridge.ErrErpTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", bridge.ErrErpUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", bridge.ErrErpUnavailable, err)
	}

	switch {
	case resp.StatusCode < 400:
		return body, nil
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: HTTP 400 %s", bridge.ErrErpInvalidRequest, endpoint)
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusConflict:
		return nil, fmt.Errorf("%w: HTTP %d %s", bridge.ErrErpRejected, resp.StatusCode, endpoint)
	default:
		return nil, fmt.Errorf("%w: HTTP %d %s", bridge.ErrErpUnavailable, resp.StatusCode, endpoint)
	}
}

// Ensure HTTPGateway implements the ErpGateway interface
var _ bridge.ErpGateway = (*HTTPGateway)(nil)
