package bridge

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// RemoteOrderSource Port Interface
// ---------------------------------------------------------------------------

// StatusUpdate carries one order status transition reported to the cloud API
type StatusUpdate struct {
	// OrderID is the order identity on the cloud API
	OrderID string
	// Status is the new bridge-side status
	Status OrderStatus
	// DocumentRef is the ERP document number (set for COMPLETED)
	DocumentRef string
	// ErrorMessage is a human-readable failure description (set for FAILED)
	ErrorMessage string
}

// RemoteOrderSource defines the port interface for the cloud order API.
// Concrete implementations live in the infrastructure layer.
type RemoteOrderSource interface {
	// FetchPending returns one finite batch of pending orders
	FetchPending(ctx context.Context) ([]Order, error)

	// UpdateStatus reports a status transition for an order. Best-effort:
	// the caller's local state decision stands even if the update fails.
	UpdateStatus(ctx context.Context, update StatusUpdate) error

	// HealthCheck returns true if the cloud API is reachable
	HealthCheck(ctx context.Context) bool

	// PushProducts upserts a page of catalog entries into the cloud mirror
	PushProducts(ctx context.Context, products []Product) (*SyncResult, error)

	// PushCustomers upserts a page of customer records into the cloud mirror
	PushCustomers(ctx context.Context, customers []Customer) (*SyncResult, error)
}

// ---------------------------------------------------------------------------
// ErpGateway Port Interface
// ---------------------------------------------------------------------------

// ErpGateway defines the port interface for the on-premise ERP backend.
// CreateDocument is a single attempt; retrying is the caller's
// responsibility, never the gateway's.
type ErpGateway interface {
	// Connect establishes the ERP connection
	Connect(ctx context.Context) error

	// Disconnect releases the ERP connection
	Disconnect() error

	// IsConnected reports whether the ERP connection is currently usable
	IsConnected(ctx context.Context) bool

	// CreateDocument creates one ERP sales document for the order
	CreateDocument(ctx context.Context, order *Order) (*DocumentResult, error)

	// FetchProducts reads the product catalog from the ERP
	FetchProducts(ctx context.Context) ([]Product, error)

	// FetchCustomers reads the customer master data from the ERP
	FetchCustomers(ctx context.Context) ([]Customer, error)
}

// ---------------------------------------------------------------------------
// ProcessedOrderStore Port Interface
// ---------------------------------------------------------------------------

// ProcessedOrderStore records orders that already reached a terminal state,
// so a re-fetched order is not driven through the lifecycle again. Final
// idempotency remains keyed by order id in the downstream system; this
// store only smooths the at-least-once delivery across restarts.
type ProcessedOrderStore interface {
	// MarkProcessed records a terminal order id with a TTL. Returns true
	// if the id was newly recorded, false if it was already present.
	MarkProcessed(ctx context.Context, orderID string, ttl time.Duration) (bool, error)

	// IsProcessed returns true if the order id was already recorded
	IsProcessed(ctx context.Context, orderID string) (bool, error)

	// Close releases store resources
	Close() error
}
