package erp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/erp/syncbridge/internal/domain/bridge"
	"github.com/erp/syncbridge/internal/infrastructure/config"
)

// SQLGateway implements the ErpGateway port against the ERP database
// directly. It is the default gateway for deployments where the bridge
// runs inside the ERP network.
type SQLGateway struct {
	cfg        *config.ErpDatabaseConfig
	logger     *zap.Logger
	gormLogger gormlogger.Interface

	mu sync.RWMutex
	db *gorm.DB
}

// NewSQLGateway creates a SQL gateway. The database connection is not
// established until Connect is called.
func NewSQLGateway(cfg *config.ErpDatabaseConfig, log *zap.Logger, gormLog gormlogger.Interface) *SQLGateway {
	if log == nil {
		log = zap.NewNop()
	}
	if gormLog == nil {
		gormLog = gormlogger.Default.LogMode(gormlogger.Silent)
	}
	return &SQLGateway{
		cfg:        cfg,
		logger:     log.Named("erp.sql"),
		gormLogger: gormLog,
	}
}

// NewSQLGatewayWithDB creates a SQL gateway over an existing connection.
// Used in tests with an in-memory database.
func NewSQLGatewayWithDB(db *gorm.DB, log *zap.Logger) *SQLGateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLGateway{
		db:     db,
		logger: log.Named("erp.sql"),
	}
}

// ---------------------------------------------------------------------------
// Connection Management
// ---------------------------------------------------------------------------

// Connect establishes the ERP database connection
func (g *SQLGateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db != nil {
		return nil
	}
	if g.cfg == nil {
		return fmt.Errorf("%w: no database configuration", bridge.ErrErpNotConnected)
	}

	db, err := gorm.Open(postgres.Open(g.cfg.DSN()), &gorm.Config{
		Logger:                 g.gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", bridge.ErrErpUnavailable, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", bridge.ErrErpUnavailable, err)
	}

	sqlDB.SetMaxOpenConns(g.cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(g.cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(g.cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(g.cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("%w: %v", bridge.ErrErpUnavailable, err)
	}

	g.db = db
	g.logger.Info("connected to ERP database",
		zap.String("host", g.cfg.Host),
		zap.Int("port", g.cfg.Port),
		zap.String("dbname", g.cfg.DBName))
	return nil
}

// Disconnect releases the ERP database connection
func (g *SQLGateway) Disconnect() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	g.db = nil
	if err != nil {
		return fmt.Errorf("erp: failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// IsConnected reports whether the ERP database is currently reachable
func (g *SQLGateway) IsConnected(ctx context.Context) bool {
	g.mu.RLock()
	db := g.db
	g.mu.RUnlock()

	if db == nil {
		return false
	}
	sqlDB, err := db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}

// handle returns the active connection or ErrErpNotConnected
func (g *SQLGateway) handle() (*gorm.DB, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.db == nil {
		return nil, bridge.ErrErpNotConnected
	}
	return g.db, nil
}

// ---------------------------------------------------------------------------
// Document Creation
// ---------------------------------------------------------------------------

// CreateDocument creates one ERP sales document for the order. A single
// attempt: transient failures surface to the caller for retry. The
// source order id carries a unique index, so an order that already has
// a document returns the existing reference instead of a duplicate.
func (g *SQLGateway) CreateDocument(ctx context.Context, order *bridge.Order) (*bridge.DocumentResult, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	db, err := g.handle()
	if err != nil {
		return nil, err
	}

	// Idempotency guard: a completed order re-fetched after a restart
	// must not produce a second document.
	if existing, err := g.findBySourceOrder(ctx, db, order.ID); err != nil {
		return nil, err
	} else if existing != nil {
		g.logger.Info("document already exists for order",
			zap.String("order_id", order.ID),
			zap.String("document_number", existing.DocumentNumber))
		return bridge.SuccessResult(fmt.Sprintf("%d", existing.ID), existing.DocumentNumber), nil
	}

	doc := SalesDocumentModel{
		SourceOrderID: order.ID,
		CustomerRef:   order.CustomerRef,
		Notes:         order.Notes,
		TotalNet:      order.TotalNet,
		TotalGross:    order.TotalGross,
		Currency:      order.Currency,
		CreatedAt:     time.Now(),
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Number is derived from the generated id, so insert the header
		// with a placeholder first.
		doc.DocumentNumber = "PENDING-" + order.ID
		if err := tx.Create(&doc).Error; err != nil {
			return err
		}

		doc.DocumentNumber = fmt.Sprintf("SD-%d-%06d", doc.CreatedAt.Year(), doc.ID)
		if err := tx.Model(&SalesDocumentModel{}).
			Where("id = ?", doc.ID).
			Update("document_number", doc.DocumentNumber).Error; err != nil {
			return err
		}

		for i, line := range order.Lines {
			lineModel := SalesDocumentLineModel{
				DocumentID:  doc.ID,
				LineNo:      i + 1,
				ProductCode: line.ProductCode,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				VatRate:     line.VatRate,
				Discount:    line.Discount,
				Notes:       line.Notes,
			}
			if err := tx.Create(&lineModel).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race against another writer; the document exists.
			if existing, lookupErr := g.findBySourceOrder(ctx, db, order.ID); lookupErr == nil && existing != nil {
				return bridge.SuccessResult(fmt.Sprintf("%d", existing.ID), existing.DocumentNumber), nil
			}
			return nil, fmt.Errorf("%w: duplicate document for order %s", bridge.ErrErpRejected, order.ID)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", bridge.ErrErpUnavailable, err)
	}

	g.logger.Info("created sales document",
		zap.String("order_id", order.ID),
		zap.String("document_number", doc.DocumentNumber),
		zap.Int("line_count", len(order.Lines)))

	return bridge.SuccessResult(fmt.Sprintf("%d", doc.ID), doc.DocumentNumber), nil
}

// findBySourceOrder looks up an existing document for the order id
func (g *SQLGateway) findBySourceOrder(ctx context.Context, db *gorm.DB, orderID string) (*SalesDocumentModel, error) {
	var doc SalesDocumentModel
	err := db.WithContext(ctx).Where("source_order_id = ?", orderID).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", bridge.ErrErpUnavailable, err)
	}
	return &doc, nil
}

// ---------------------------------------------------------------------------
// Master Data Reads
// ---------------------------------------------------------------------------

// FetchProducts reads the product catalog from the ERP
func (g *SQLGateway) FetchProducts(ctx context.Context) ([]bridge.Product, error) {
	db, err := g.handle()
	if err != nil {
		return nil, err
	}

	var models []ProductModel
	if err := db.WithContext(ctx).Order("code").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", bridge.ErrErpUnavailable, err)
	}

	products := make([]bridge.Product, 0, len(models))
	for i := range models {
		products = append(products, models[i].ToDomain())
	}
	return products, nil
}

// FetchCustomers reads the customer master data from the ERP
func (g *SQLGateway) FetchCustomers(ctx context.Context) ([]bridge.Customer, error) {
	db, err := g.handle()
	if err != nil {
		return nil, err
	}

	var models []CustomerModel
	if err := db.WithContext(ctx).Order("code").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", bridge.ErrErpUnavailable, err)
	}

	customers := make([]bridge.Customer, 0, len(models))
	for i := range models {
		customers = append(customers, models[i].ToDomain())
	}
	return customers, nil
}

// Ensure SQLGateway implements the ErpGateway interface
var _ bridge.ErpGateway = (*SQLGateway)(nil)
