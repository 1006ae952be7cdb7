package orders

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/syncbridge/internal/domain/bridge"
	"github.com/erp/syncbridge/internal/infrastructure/cache"
	"github.com/erp/syncbridge/internal/infrastructure/retry"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockRemote struct {
	updates     []bridge.StatusUpdate
	updateErr   error
	updateCalls atomic.Int32
}

func (m *mockRemote) FetchPending(ctx context.Context) ([]bridge.Order, error) {
	return nil, nil
}

func (m *mockRemote) UpdateStatus(ctx context.Context, update bridge.StatusUpdate) error {
	m.updateCalls.Add(1)
	m.updates = append(m.updates, update)
	return m.updateErr
}

func (m *mockRemote) HealthCheck(ctx context.Context) bool { return true }

func (m *mockRemote) PushProducts(ctx context.Context, products []bridge.Product) (*bridge.SyncResult, error) {
	return &bridge.SyncResult{}, nil
}

func (m *mockRemote) PushCustomers(ctx context.Context, customers []bridge.Customer) (*bridge.SyncResult, error) {
	return &bridge.SyncResult{}, nil
}

// updatesFor returns the status updates reported for one order id
func (m *mockRemote) updatesFor(orderID string) []bridge.StatusUpdate {
	var out []bridge.StatusUpdate
	for _, u := range m.updates {
		if u.OrderID == orderID {
			out = append(out, u)
		}
	}
	return out
}

type mockGateway struct {
	createFunc  func(ctx context.Context, order *bridge.Order) (*bridge.DocumentResult, error)
	createCalls atomic.Int32
}

func (m *mockGateway) Connect(ctx context.Context) error    { return nil }
func (m *mockGateway) Disconnect() error                    { return nil }
func (m *mockGateway) IsConnected(ctx context.Context) bool { return true }

func (m *mockGateway) CreateDocument(ctx context.Context, order *bridge.Order) (*bridge.DocumentResult, error) {
	m.createCalls.Add(1)
	if m.createFunc != nil {
		return m.createFunc(ctx, order)
	}
	return bridge.SuccessResult("1", "SD-2026-000001"), nil
}

func (m *mockGateway) FetchProducts(ctx context.Context) ([]bridge.Product, error) {
	return nil, nil
}

func (m *mockGateway) FetchCustomers(ctx context.Context) ([]bridge.Customer, error) {
	return nil, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestProcessor(t *testing.T, remote *mockRemote, gateway *mockGateway) *Processor {
	t.Helper()

	policy, err := retry.NewPolicy(retry.Config{
		MaxAttempts:     3,
		BackoffSchedule: []time.Duration{time.Millisecond, 2 * time.Millisecond},
	}, nil)
	require.NoError(t, err)

	store := cache.NewInMemoryProcessedStore()
	t.Cleanup(func() { _ = store.Close() })

	return NewProcessor(remote, gateway, policy, store, time.Hour, nil)
}

func pendingOrder(id string) bridge.Order {
	return bridge.Order{
		ID:       id,
		Status:   bridge.OrderStatusPending,
		Currency: "EUR",
		Lines: []bridge.OrderLine{
			{
				ProductCode: "SKU-1",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.NewFromInt(10),
			},
		},
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestProcessor_ProcessBatch_AllSucceed(t *testing.T) {
	remote := &mockRemote{}
	gateway := &mockGateway{}
	processor := newTestProcessor(t, remote, gateway)

	batch := []bridge.Order{pendingOrder("ORD-1"), pendingOrder("ORD-2")}
	summary, err := processor.ProcessBatch(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Completed)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, int32(2), gateway.createCalls.Load())

	// One PROCESSING and one COMPLETED update per order
	for _, id := range []string{"ORD-1", "ORD-2"} {
		updates := remote.updatesFor(id)
		require.Len(t, updates, 2)
		assert.Equal(t, bridge.OrderStatusProcessing, updates[0].Status)
		assert.Equal(t, bridge.OrderStatusCompleted, updates[1].Status)
		assert.Equal(t, "SD-2026-000001", updates[1].DocumentRef)
	}
}

func TestProcessor_TransientFailureThenSuccess(t *testing.T) {
	remote := &mockRemote{}
	gateway := &mockGateway{}
	gateway.createFunc = func(ctx context.Context, order *bridge.Order) (*bridge.DocumentResult, error) {
		if gateway.createCalls.Load() == 1 {
			return nil, bridge.ErrErpTimeout
		}
		return bridge.SuccessResult("7", "SD-2026-000007"), nil
	}
	processor := newTestProcessor(t, remote, gateway)

	summary, err := processor.ProcessBatch(context.Background(), []bridge.Order{pendingOrder("ORD-1")})
	require.NoError(t, err)

	// First attempt times out, second succeeds: exactly two calls
	assert.Equal(t, int32(2), gateway.createCalls.Load())
	assert.Equal(t, 1, summary.Completed)

	updates := remote.updatesFor("ORD-1")
	require.Len(t, updates, 2)
	assert.Equal(t, bridge.OrderStatusCompleted, updates[1].Status)
	assert.Equal(t, "SD-2026-000007", updates[1].DocumentRef)
}

func TestProcessor_FatalFailureNotRetried(t *testing.T) {
	remote := &mockRemote{}
	gateway := &mockGateway{}
	gateway.createFunc = func(ctx context.Context, order *bridge.Order) (*bridge.DocumentResult, error) {
		return nil, bridge.ErrOrderLineInvalidQuantity
	}
	processor := newTestProcessor(t, remote, gateway)

	summary, err := processor.ProcessBatch(context.Background(), []bridge.Order{pendingOrder("ORD-1")})
	require.NoError(t, err)

	// Validation failures are permanent: exactly one call, no retries
	assert.Equal(t, int32(1), gateway.createCalls.Load())
	assert.Equal(t, 1, summary.Failed)

	updates := remote.updatesFor("ORD-1")
	require.Len(t, updates, 2)
	assert.Equal(t, bridge.OrderStatusFailed, updates[1].Status)
	assert.NotEmpty(t, updates[1].ErrorMessage)
}

func TestProcessor_RetriesExhausted(t *testing.T) {
	remote := &mockRemote{}
	gateway := &mockGateway{}
	gateway.createFunc = func(ctx context.Context, order *bridge.Order) (*bridge.DocumentResult, error) {
		return nil, bridge.ErrErpUnavailable
	}
	processor := newTestProcessor(t, remote, gateway)

	summary, err := processor.ProcessBatch(context.Background(), []bridge.Order{pendingOrder("ORD-1")})
	require.NoError(t, err)

	assert.Equal(t, int32(3), gateway.createCalls.Load())
	assert.Equal(t, 1, summary.Failed)
}

func TestProcessor_OneFailureDoesNotAffectOthers(t *testing.T) {
	remote := &mockRemote{}
	gateway := &mockGateway{}
	gateway.createFunc = func(ctx context.Context, order *bridge.Order) (*bridge.DocumentResult, error) {
		if order.ID == "ORD-BAD" {
			return nil, bridge.ErrErpRejected
		}
		return bridge.SuccessResult("1", "SD-2026-000001"), nil
	}
	processor := newTestProcessor(t, remote, gateway)

	batch := []bridge.Order{pendingOrder("ORD-1"), pendingOrder("ORD-BAD"), pendingOrder("ORD-2")}
	summary, err := processor.ProcessBatch(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, 1, summary.Failed)
}

func TestProcessor_DuplicateInBatchSkipped(t *testing.T) {
	remote := &mockRemote{}
	gateway := &mockGateway{}
	processor := newTestProcessor(t, remote, gateway)

	batch := []bridge.Order{pendingOrder("ORD-1"), pendingOrder("ORD-1")}
	summary, err := processor.ProcessBatch(context.Background(), batch)
	require.NoError(t, err)

	// The second occurrence must not reach the gateway
	assert.Equal(t, int32(1), gateway.createCalls.Load())
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 1, summary.Skipped)
}

func TestProcessor_ProcessedOrderSkippedAcrossBatches(t *testing.T) {
	remote := &mockRemote{}
	gateway := &mockGateway{}
	processor := newTestProcessor(t, remote, gateway)
	ctx := context.Background()

	_, err := processor.ProcessBatch(ctx, []bridge.Order{pendingOrder("ORD-1")})
	require.NoError(t, err)

	// Re-fetched in the next batch: skipped via the dedup store
	summary, err := processor.ProcessBatch(ctx, []bridge.Order{pendingOrder("ORD-1")})
	require.NoError(t, err)
	assert.Equal(t, int32(1), gateway.createCalls.Load())
	assert.Equal(t, 1, summary.Skipped)
}

func TestProcessor_StatusUpdateFailureDoesNotEscalate(t *testing.T) {
	remote := &mockRemote{updateErr: bridge.ErrRemoteUnavailable}
	gateway := &mockGateway{}
	processor := newTestProcessor(t, remote, gateway)

	summary, err := processor.ProcessBatch(context.Background(), []bridge.Order{pendingOrder("ORD-1")})
	require.NoError(t, err)

	// The local terminal decision stands even though no update got through
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, int32(2), remote.updateCalls.Load())
}

func TestProcessor_CancellationStopsBatch(t *testing.T) {
	remote := &mockRemote{}
	gateway := &mockGateway{}

	ctx, cancel := context.WithCancel(context.Background())
	gateway.createFunc = func(ctx context.Context, order *bridge.Order) (*bridge.DocumentResult, error) {
		if order.ID == "ORD-2" {
			// Cancel while the second order is mid-attempt; it must be
			// left without a terminal decision.
			cancel()
			return nil, ctx.Err()
		}
		return bridge.SuccessResult("1", "SD-2026-000001"), nil
	}
	processor := newTestProcessor(t, remote, gateway)

	batch := []bridge.Order{pendingOrder("ORD-1"), pendingOrder("ORD-2"), pendingOrder("ORD-3")}
	summary, err := processor.ProcessBatch(ctx, batch)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 1, summary.Completed)
	assert.Zero(t, summary.Failed)

	// ORD-2 got no terminal update, ORD-3 was never touched
	for _, u := range remote.updatesFor("ORD-2") {
		assert.False(t, u.Status.IsTerminal())
	}
	assert.Empty(t, remote.updatesFor("ORD-3"))
	assert.Equal(t, int32(2), gateway.createCalls.Load())
}

func TestProcessor_PanicContained(t *testing.T) {
	remote := &mockRemote{}
	gateway := &mockGateway{}
	gateway.createFunc = func(ctx context.Context, order *bridge.Order) (*bridge.DocumentResult, error) {
		if order.ID == "ORD-BOOM" {
			panic("broken invariant")
		}
		return bridge.SuccessResult("1", "SD-2026-000001"), nil
	}
	processor := newTestProcessor(t, remote, gateway)

	batch := []bridge.Order{pendingOrder("ORD-BOOM"), pendingOrder("ORD-1")}
	summary, err := processor.ProcessBatch(context.Background(), batch)
	require.NoError(t, err)

	// The panicking order fails, the rest of the batch continues
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Completed)

	updates := remote.updatesFor("ORD-BOOM")
	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.Equal(t, bridge.OrderStatusFailed, last.Status)
	assert.Contains(t, last.ErrorMessage, "internal error")
}
