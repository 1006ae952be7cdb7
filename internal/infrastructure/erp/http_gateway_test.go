package erp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/syncbridge/internal/domain/bridge"
	"github.com/erp/syncbridge/internal/infrastructure/config"
)

func newTestProxy(t *testing.T, handler http.HandlerFunc) *HTTPGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewHTTPGateway(&config.ErpProxyConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}, nil)
}

func TestHTTPGateway_ConnectAndPing(t *testing.T) {
	var pings int
	gateway := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/ping", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		pings++
		w.WriteHeader(http.StatusOK)
	})

	ctx := context.Background()
	assert.False(t, gateway.IsConnected(ctx))

	require.NoError(t, gateway.Connect(ctx))
	assert.True(t, gateway.IsConnected(ctx))
	assert.Equal(t, 2, pings)

	require.NoError(t, gateway.Disconnect())
	assert.False(t, gateway.IsConnected(ctx))
}

func TestHTTPGateway_Connect_ProxyDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	gateway := NewHTTPGateway(&config.ErpProxyConfig{BaseURL: server.URL}, nil)
	err := gateway.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, bridge.ErrErpUnavailable)
	assert.True(t, bridge.IsRetryableError(err))
}

func TestHTTPGateway_CreateDocument(t *testing.T) {
	gateway := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/ping" {
			w.WriteHeader(http.StatusOK)
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/documents", r.URL.Path)

		var req createDocumentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ORD-1001", req.SourceOrderID)
		require.Len(t, req.Lines, 1)
		assert.Equal(t, "2", req.Lines[0].Quantity)

		_ = json.NewEncoder(w).Encode(createDocumentResponse{
			DocumentID:     "314",
			DocumentNumber: "SD-2026-000314",
		})
	})

	ctx := context.Background()
	require.NoError(t, gateway.Connect(ctx))

	result, err := gateway.CreateDocument(ctx, testOrder())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "314", result.DocumentID)
	assert.Equal(t, "SD-2026-000314", result.DocumentNumber)
}

func TestHTTPGateway_CreateDocument_NotConnected(t *testing.T) {
	gateway := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := gateway.CreateDocument(context.Background(), testOrder())
	assert.ErrorIs(t, err, bridge.ErrErpNotConnected)
}

func TestHTTPGateway_StatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantErr   error
		retryable bool
	}{
		{"server error is transient", http.StatusInternalServerError, bridge.ErrErpUnavailable, true},
		{"bad request is permanent", http.StatusBadRequest, bridge.ErrErpInvalidRequest, false},
		{"unprocessable is permanent", http.StatusUnprocessableEntity, bridge.ErrErpRejected, false},
		{"conflict is permanent", http.StatusConflict, bridge.ErrErpRejected, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/v1/ping" {
					w.WriteHeader(http.StatusOK)
					return
				}
				w.WriteHeader(tt.status)
			})

			ctx := context.Background()
			require.NoError(t, gateway.Connect(ctx))

			_, err := gateway.CreateDocument(ctx, testOrder())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.retryable, bridge.IsRetryableError(err))
		})
	}
}

func TestHTTPGateway_FetchProducts(t *testing.T) {
	gateway := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/ping" {
			w.WriteHeader(http.StatusOK)
			return
		}
		assert.Equal(t, "/api/v1/products", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]productBody{
			{Code: "SKU-1", Name: "Widget", Price: "10.50", VatRate: "21", StockQuantity: "3", IsActive: true},
		})
	})

	ctx := context.Background()
	require.NoError(t, gateway.Connect(ctx))

	products, err := gateway.FetchProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "SKU-1", products[0].Code)
	assert.Equal(t, "10.5", products[0].Price.String())
}

func TestHTTPGateway_FetchCustomers(t *testing.T) {
	gateway := newTestProxy(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/ping" {
			w.WriteHeader(http.StatusOK)
			return
		}
		assert.Equal(t, "/api/v1/customers", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]customerBody{
			{Code: "CUST-1", Name: "Acme GmbH", Balance: "-250", IsActive: true},
		})
	})

	ctx := context.Background()
	require.NoError(t, gateway.Connect(ctx))

	customers, err := gateway.FetchCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Acme GmbH", customers[0].Name)
	assert.Equal(t, "-250", customers[0].Balance.String())
}

func TestNewGateway(t *testing.T) {
	t.Run("sql mode", func(t *testing.T) {
		gw, err := NewGateway(&config.ErpConfig{Mode: ModeSQL}, nil, nil)
		require.NoError(t, err)
		assert.IsType(t, (*SQLGateway)(nil), gw)
	})

	t.Run("http mode", func(t *testing.T) {
		gw, err := NewGateway(&config.ErpConfig{
			Mode:  ModeHTTP,
			Proxy: config.ErpProxyConfig{BaseURL: "http://erp-proxy.local"},
		}, nil, nil)
		require.NoError(t, err)
		assert.IsType(t, (*HTTPGateway)(nil), gw)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := NewGateway(&config.ErpConfig{Mode: "grpc"}, nil, nil)
		assert.ErrorIs(t, err, ErrUnknownMode)
	})
}
