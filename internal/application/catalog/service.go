package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/erp/syncbridge/internal/domain/bridge"
)

// Service mirrors ERP master data (products, customers) into the cloud
// API. Each sync run reads the full data set from the ERP and pushes it
// page by page; the cloud side upserts by code.
type Service struct {
	remote   bridge.RemoteOrderSource
	gateway  bridge.ErpGateway
	pageSize int
	logger   *zap.Logger
}

// NewService creates a catalog mirror service
func NewService(remote bridge.RemoteOrderSource, gateway bridge.ErpGateway, pageSize int, log *zap.Logger) *Service {
	if pageSize <= 0 {
		pageSize = 100
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		remote:   remote,
		gateway:  gateway,
		pageSize: pageSize,
		logger:   log.Named("catalog"),
	}
}

// SyncProducts mirrors the ERP product catalog into the cloud API
func (s *Service) SyncProducts(ctx context.Context) (*bridge.SyncResult, error) {
	products, err := s.gateway.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}

	result := &bridge.SyncResult{
		TotalCount:  len(products),
		FailedItems: make([]bridge.SyncFailure, 0),
	}

	for start := 0; start < len(products); start += s.pageSize {
		end := start + s.pageSize
		if end > len(products) {
			end = len(products)
		}

		pageResult, err := s.remote.PushProducts(ctx, products[start:end])
		if err != nil {
			return nil, err
		}
		result.SuccessCount += pageResult.SuccessCount
		result.FailedCount += pageResult.FailedCount
		result.FailedItems = append(result.FailedItems, pageResult.FailedItems...)
	}

	result.SyncedAt = time.Now()
	s.logger.Info("product sync finished",
		zap.Int("total", result.TotalCount),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailedCount))
	return result, nil
}

// SyncCustomers mirrors the ERP customer master data into the cloud API
func (s *Service) SyncCustomers(ctx context.Context) (*bridge.SyncResult, error) {
	customers, err := s.gateway.FetchCustomers(ctx)
	if err != nil {
		return nil, err
	}

	result := &bridge.SyncResult{
		TotalCount:  len(customers),
		FailedItems: make([]bridge.SyncFailure, 0),
	}

	for start := 0; start < len(customers); start += s.pageSize {
		end := start + s.pageSize
		if end > len(customers) {
			end = len(customers)
		}

		pageResult, err := s.remote.PushCustomers(ctx, customers[start:end])
		if err != nil {
			return nil, err
		}
		result.SuccessCount += pageResult.SuccessCount
		result.FailedCount += pageResult.FailedCount
		result.FailedItems = append(result.FailedItems, pageResult.FailedItems...)
	}

	result.SyncedAt = time.Now()
	s.logger.Info("customer sync finished",
		zap.Int("total", result.TotalCount),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailedCount))
	return result, nil
}
