package bridge

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Catalog Mirror Types
// ---------------------------------------------------------------------------

// Product represents a catalog entry read from the ERP and mirrored to the
// cloud API.
type Product struct {
	// Code is the product code shared across both systems
	Code string
	// Name is the product display name
	Name string
	// Description is the product description (optional)
	Description string
	// Price is the current selling price
	Price decimal.Decimal
	// VatRate is the VAT percentage for the product
	VatRate decimal.Decimal
	// StockQuantity is the available stock at read time
	StockQuantity decimal.Decimal
	// IsActive indicates the product can still be ordered
	IsActive bool
	// UpdatedAt is the last modification time in the ERP
	UpdatedAt time.Time
}

// Customer represents a customer record read from the ERP and mirrored to
// the cloud API.
type Customer struct {
	// Code is the customer code shared across both systems
	Code string
	// Name is the customer name
	Name string
	// TaxID is the customer tax identifier (optional)
	TaxID string
	// Email is the contact email (optional)
	Email string
	// Phone is the contact phone (optional)
	Phone string
	// Address is the billing address (optional)
	Address string
	// Balance is the customer open balance in the ERP
	Balance decimal.Decimal
	// IsActive indicates the customer can still place orders
	IsActive bool
	// UpdatedAt is the last modification time in the ERP
	UpdatedAt time.Time
}

// ---------------------------------------------------------------------------
// SyncResult
// ---------------------------------------------------------------------------

// SyncResult summarizes one catalog/customer mirror run
type SyncResult struct {
	// TotalCount is the number of records read from the ERP
	TotalCount int
	// SuccessCount is the number of records pushed successfully
	SuccessCount int
	// FailedCount is the number of records that failed to push
	FailedCount int
	// FailedItems contains details about failed records
	FailedItems []SyncFailure
	// SyncedAt is when the run finished
	SyncedAt time.Time
}

// SyncFailure represents a single failed mirror record
type SyncFailure struct {
	// ItemID is the code of the failed record
	ItemID string
	// ErrorMessage is the error description
	ErrorMessage string
}
