package cache

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/syncbridge/internal/domain/bridge"
)

// Supported processed-store backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ErrUnknownBackend is returned for an unrecognized store backend
var ErrUnknownBackend = errors.New("cache: unknown processed-store backend")

// NewProcessedStore creates the processed-order store for the configured
// backend. The in-memory store is the default; Redis is used when the
// processed-order memory must survive bridge restarts.
func NewProcessedStore(backend string, redisCfg RedisConfig, logger *zap.Logger) (bridge.ProcessedOrderStore, error) {
	switch backend {
	case BackendMemory, "":
		logger.Info("Using in-memory processed-order store")
		return NewInMemoryProcessedStore(), nil
	case BackendRedis:
		store, err := NewRedisProcessedStore(redisCfg)
		if err != nil {
			return nil, fmt.Errorf("cache: redis processed-order store: %w", err)
		}
		logger.Info("Using Redis processed-order store",
			zap.String("host", redisCfg.Host),
			zap.Int("port", redisCfg.Port),
		)
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}
