package erp

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/erp/syncbridge/internal/domain/bridge"
	"github.com/erp/syncbridge/internal/infrastructure/config"
)

// Gateway modes
const (
	ModeSQL  = "sql"
	ModeHTTP = "http"
)

// ErrUnknownMode indicates an unsupported gateway mode
var ErrUnknownMode = errors.New("erp: unknown gateway mode")

// NewGateway creates the ErpGateway implementation selected by the
// configured mode.
func NewGateway(cfg *config.ErpConfig, log *zap.Logger, gormLog gormlogger.Interface) (bridge.ErpGateway, error) {
	switch cfg.Mode {
	case ModeSQL:
		return NewSQLGateway(&cfg.Database, log, gormLog), nil
	case ModeHTTP:
		return NewHTTPGateway(&cfg.Proxy, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
}

// parseDecimal parses a decimal string, returning zero on failure.
// Proxy responses use string-encoded decimals to avoid float rounding.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
