package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/syncbridge/internal/application/orders"
	"github.com/erp/syncbridge/internal/domain/bridge"
	"github.com/erp/syncbridge/internal/infrastructure/logger"
	"github.com/erp/syncbridge/internal/infrastructure/scheduler"
)

// ErrInvalidPollInterval indicates a non-positive poll interval
var ErrInvalidPollInterval = errors.New("orchestrator: poll interval must be positive")

// OrderProcessor drives one batch of orders through the lifecycle
type OrderProcessor interface {
	ProcessBatch(ctx context.Context, batch []bridge.Order) (*orders.BatchSummary, error)
}

// CatalogSyncer mirrors ERP master data into the cloud API
type CatalogSyncer interface {
	SyncProducts(ctx context.Context) (*bridge.SyncResult, error)
	SyncCustomers(ctx context.Context) (*bridge.SyncResult, error)
}

// Config holds the orchestrator's loop settings
type Config struct {
	PollInterval      time.Duration
	OrdersEnabled     bool
	ProductsInterval  time.Duration
	ProductsEnabled   bool
	CustomersInterval time.Duration
	CustomersEnabled  bool
}

// Orchestrator owns the bridge's main loop: every poll interval it
// verifies the ERP connection, processes pending orders when both sides
// are healthy, and runs whichever periodic catalog tasks have come due.
// A failure inside one tick never escapes the tick.
type Orchestrator struct {
	cfg       Config
	remote    bridge.RemoteOrderSource
	gateway   bridge.ErpGateway
	processor OrderProcessor
	sched     *scheduler.TaskScheduler
	logger    *zap.Logger
}

// New creates an orchestrator and registers the periodic catalog tasks
func New(
	cfg Config,
	remote bridge.RemoteOrderSource,
	gateway bridge.ErpGateway,
	processor OrderProcessor,
	catalog CatalogSyncer,
	log *zap.Logger,
) (*Orchestrator, error) {
	if cfg.PollInterval <= 0 {
		return nil, ErrInvalidPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("orchestrator")

	sched := scheduler.NewTaskScheduler(log)
	if err := sched.Register(scheduler.Task{
		Name:     "sync_products",
		Interval: cfg.ProductsInterval,
		Enabled:  cfg.ProductsEnabled,
		Run: func(ctx context.Context) error {
			_, err := catalog.SyncProducts(ctx)
			return err
		},
	}); err != nil {
		return nil, err
	}
	if err := sched.Register(scheduler.Task{
		Name:     "sync_customers",
		Interval: cfg.CustomersInterval,
		Enabled:  cfg.CustomersEnabled,
		Run: func(ctx context.Context) error {
			_, err := catalog.SyncCustomers(ctx)
			return err
		},
	}); err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:       cfg,
		remote:    remote,
		gateway:   gateway,
		processor: processor,
		sched:     sched,
		logger:    log,
	}, nil
}

// Run executes the main loop until the context is cancelled. The ERP
// connection is opportunistic: a failed connect is logged and retried
// on later ticks instead of aborting.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.gateway.Connect(ctx); err != nil {
		o.logger.Warn("initial ERP connect failed, will retry", zap.Error(err))
	}
	defer func() {
		if err := o.gateway.Disconnect(); err != nil {
			o.logger.Warn("ERP disconnect failed", zap.Error(err))
		}
	}()

	o.logger.Info("bridge loop started",
		zap.Duration("poll_interval", o.cfg.PollInterval),
		zap.Bool("orders_enabled", o.cfg.OrdersEnabled))

	for {
		if err := ctx.Err(); err != nil {
			o.logger.Info("bridge loop stopping")
			return err
		}

		o.tick(ctx)

		if err := o.sleep(ctx); err != nil {
			o.logger.Info("bridge loop stopping")
			return err
		}
	}
}

// tick runs one iteration of the loop. Panics are contained here so a
// broken tick only costs one cycle.
func (o *Orchestrator) tick(parent context.Context) {
	runID := uuid.NewString()
	ctx, log := logger.WithRunID(parent, o.logger, runID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("tick panicked", zap.Any("panic", r))
		}
	}()

	if !o.ensureConnected(ctx, log) {
		log.Warn("ERP unreachable, skipping tick")
		return
	}

	if o.cfg.OrdersEnabled {
		o.processOrders(ctx, log)
	}

	o.sched.RunDue(ctx)
}

// ensureConnected reconnects the ERP gateway when the connection was lost
func (o *Orchestrator) ensureConnected(ctx context.Context, log *zap.Logger) bool {
	if o.gateway.IsConnected(ctx) {
		return true
	}
	log.Info("ERP connection lost, reconnecting")
	if err := o.gateway.Connect(ctx); err != nil {
		log.Warn("ERP reconnect failed", zap.Error(err))
		return false
	}
	return true
}

// processOrders fetches and processes one batch of pending orders. The
// fetch is health-gated: an unhealthy cloud API skips the batch instead
// of producing spurious failures.
func (o *Orchestrator) processOrders(ctx context.Context, log *zap.Logger) {
	if !o.remote.HealthCheck(ctx) {
		log.Warn("cloud API unhealthy, skipping order fetch")
		return
	}

	batch, err := o.remote.FetchPending(ctx)
	if err != nil {
		log.Warn("order fetch failed", zap.Error(err))
		return
	}
	if len(batch) == 0 {
		return
	}

	summary, err := o.processor.ProcessBatch(ctx, batch)
	if summary == nil {
		summary = &orders.BatchSummary{}
	}
	if err != nil {
		log.Warn("batch interrupted",
			zap.Int("completed", summary.Completed),
			zap.Int("failed", summary.Failed),
			zap.Error(err))
		return
	}
	log.Info("batch processed",
		zap.Int("total", summary.Total),
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped))
}

// sleep waits one poll interval, returning early when ctx is cancelled
func (o *Orchestrator) sleep(ctx context.Context) error {
	timer := time.NewTimer(o.cfg.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
