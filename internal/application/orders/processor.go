package orders

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erp/syncbridge/internal/domain/bridge"
	"github.com/erp/syncbridge/internal/infrastructure/logger"
	"github.com/erp/syncbridge/internal/infrastructure/retry"
)

// Processor drives fetched orders through their bridge lifecycle:
// PENDING -> PROCESSING -> COMPLETED | FAILED. Orders are processed
// strictly sequentially; every order reaches exactly one terminal
// decision, and each transition is reported to the cloud API once,
// best-effort.
type Processor struct {
	remote    bridge.RemoteOrderSource
	gateway   bridge.ErpGateway
	policy    *retry.Policy
	processed bridge.ProcessedOrderStore
	dedupTTL  time.Duration
	logger    *zap.Logger
}

// NewProcessor creates an order processor
func NewProcessor(
	remote bridge.RemoteOrderSource,
	gateway bridge.ErpGateway,
	policy *retry.Policy,
	processed bridge.ProcessedOrderStore,
	dedupTTL time.Duration,
	log *zap.Logger,
) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		remote:    remote,
		gateway:   gateway,
		policy:    policy,
		processed: processed,
		dedupTTL:  dedupTTL,
		logger:    log.Named("orders"),
	}
}

// BatchSummary summarizes one batch run
type BatchSummary struct {
	// Total is the number of orders in the batch
	Total int
	// Completed is the number of orders that produced an ERP document
	Completed int
	// Failed is the number of orders that failed permanently
	Failed int
	// Skipped is the number of orders skipped as already processed
	Skipped int
}

// ProcessBatch processes one batch of pending orders sequentially.
// A cancelled context stops the batch between orders (or mid-backoff
// inside an order); the order being cancelled and all remaining orders
// are left untouched for the next run. One order's failure never
// affects the others.
func (p *Processor) ProcessBatch(ctx context.Context, batch []bridge.Order) (*BatchSummary, error) {
	summary := &BatchSummary{Total: len(batch)}
	seen := make(map[string]struct{}, len(batch))

	for i := range batch {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		order := batch[i]

		// An order that already reached a terminal state in this batch
		// must not be driven through the lifecycle again.
		if _, dup := seen[order.ID]; dup {
			summary.Skipped++
			continue
		}

		if done, err := p.processed.IsProcessed(ctx, order.ID); err != nil {
			// Dedup store trouble degrades to reprocessing; document
			// creation itself stays idempotent on the ERP side.
			p.logger.Warn("processed-order lookup failed",
				zap.String("order_id", order.ID),
				zap.Error(err))
		} else if done {
			p.logger.Debug("skipping already processed order", zap.String("order_id", order.ID))
			summary.Skipped++
			continue
		}

		status, err := p.processOne(ctx, &order)
		if err != nil {
			// Cancellation: the order never reached a terminal state.
			return summary, err
		}

		seen[order.ID] = struct{}{}
		switch status {
		case bridge.OrderStatusCompleted:
			summary.Completed++
		case bridge.OrderStatusFailed:
			summary.Failed++
		}

		if _, err := p.processed.MarkProcessed(ctx, order.ID, p.dedupTTL); err != nil {
			p.logger.Warn("failed to record processed order",
				zap.String("order_id", order.ID),
				zap.Error(err))
		}
	}

	return summary, nil
}

// processOne drives a single order to its terminal status. The returned
// error is non-nil only for cancellation, in which case the order was
// left untouched.
func (p *Processor) processOne(ctx context.Context, order *bridge.Order) (status bridge.OrderStatus, err error) {
	ctx, log := logger.WithOrderID(ctx, p.logger, order.ID)

	// A panic while processing one order must not take down the batch
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing order", zap.Any("panic", r))
			order.Status = bridge.OrderStatusFailed
			p.reportStatus(ctx, bridge.StatusUpdate{
				OrderID:      order.ID,
				Status:       bridge.OrderStatusFailed,
				ErrorMessage: fmt.Sprintf("internal error: %v", r),
			})
			status, err = bridge.OrderStatusFailed, nil
		}
	}()

	order.Status = bridge.OrderStatusProcessing
	p.reportStatus(ctx, bridge.StatusUpdate{
		OrderID: order.ID,
		Status:  bridge.OrderStatusProcessing,
	})

	result, err := p.policy.Execute(ctx, "create_document", func(ctx context.Context) (*bridge.DocumentResult, error) {
		return p.gateway.CreateDocument(ctx, order)
	})
	if err != nil {
		return "", err
	}

	if result.Success {
		order.Status = bridge.OrderStatusCompleted
		order.DocumentID = result.DocumentNumber
		log.Info("order completed",
			zap.String("document_number", result.DocumentNumber))
		p.reportStatus(ctx, bridge.StatusUpdate{
			OrderID:     order.ID,
			Status:      bridge.OrderStatusCompleted,
			DocumentRef: result.DocumentNumber,
		})
		return bridge.OrderStatusCompleted, nil
	}

	order.Status = bridge.OrderStatusFailed
	log.Warn("order failed permanently",
		zap.String("error_message", result.ErrorMessage))
	p.reportStatus(ctx, bridge.StatusUpdate{
		OrderID:      order.ID,
		Status:       bridge.OrderStatusFailed,
		ErrorMessage: result.ErrorMessage,
	})
	return bridge.OrderStatusFailed, nil
}

// reportStatus sends one status update to the cloud API. Best-effort:
// the local lifecycle decision stands even when the update fails.
func (p *Processor) reportStatus(ctx context.Context, update bridge.StatusUpdate) {
	if err := p.remote.UpdateStatus(ctx, update); err != nil {
		p.logger.Warn("status update failed",
			zap.String("order_id", update.OrderID),
			zap.String("status", update.Status.String()),
			zap.Error(err))
	}
}
