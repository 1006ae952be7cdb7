package bridge

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// OrderStatus represents the lifecycle status of a bridged order
// ---------------------------------------------------------------------------

// OrderStatus represents the lifecycle status of a bridged order
type OrderStatus string

const (
	// OrderStatusPending indicates the order has been fetched and awaits processing
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusProcessing indicates ERP document creation is underway
	OrderStatusProcessing OrderStatus = "PROCESSING"
	// OrderStatusCompleted indicates an ERP document was created for the order
	OrderStatusCompleted OrderStatus = "COMPLETED"
	// OrderStatusFailed indicates document creation failed permanently
	OrderStatusFailed OrderStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition leaves this status
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusFailed
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// Order represents a pending order fetched from the cloud order API.
// Apart from Status and the document reference attached on success, an
// order is immutable once fetched.
type Order struct {
	// ID is the order identity on the cloud API
	ID string
	// Status is the current bridge-side lifecycle status
	Status OrderStatus
	// CustomerRef is the customer reference on the cloud API (optional)
	CustomerRef string
	// Lines contains the ordered line items
	Lines []OrderLine
	// Notes is free-text attached to the order
	Notes string
	// TotalNet is the order net total
	TotalNet decimal.Decimal
	// TotalGross is the order gross total
	TotalGross decimal.Decimal
	// Currency is the order currency code
	Currency string
	// CreatedAt is when the order was created on the cloud API
	CreatedAt time.Time
	// DocumentID is the ERP document reference, set on completion
	DocumentID string
}

// OrderLine represents a single line item of an order. Lines have no
// lifecycle of their own; they are owned by their Order.
type OrderLine struct {
	// ProductCode is the product reference shared with the ERP
	ProductCode string
	// ProductName is the display name at order time
	ProductName string
	// Quantity is the ordered quantity, must be positive
	Quantity decimal.Decimal
	// UnitPrice is the net price per unit
	UnitPrice decimal.Decimal
	// VatRate is the VAT percentage applied to the line (optional)
	VatRate decimal.Decimal
	// Discount is the line discount percentage (optional)
	Discount decimal.Decimal
	// Notes is free-text attached to the line (optional)
	Notes string
}

// Validate checks the basic invariants of an order before it is handed
// to the ERP gateway.
func (o *Order) Validate() error {
	if o.ID == "" {
		return ErrOrderMissingID
	}
	if len(o.Lines) == 0 {
		return ErrOrderNoLines
	}
	for i := range o.Lines {
		if o.Lines[i].ProductCode == "" {
			return ErrOrderLineMissingProduct
		}
		if !o.Lines[i].Quantity.IsPositive() {
			return ErrOrderLineInvalidQuantity
		}
		if o.Lines[i].UnitPrice.IsNegative() {
			return ErrOrderLineInvalidPrice
		}
	}
	return nil
}

// Order validation errors
var (
	ErrOrderMissingID           = errors.New("bridge: order is missing an id")
	ErrOrderNoLines             = errors.New("bridge: order has no lines")
	ErrOrderLineMissingProduct  = errors.New("bridge: order line is missing a product code")
	ErrOrderLineInvalidQuantity = errors.New("bridge: order line quantity must be positive")
	ErrOrderLineInvalidPrice    = errors.New("bridge: order line price cannot be negative")
)

// ---------------------------------------------------------------------------
// DocumentResult
// ---------------------------------------------------------------------------

// DocumentResult is the outcome of one ERP document creation attempt.
// It is produced and consumed within the processing of a single order.
type DocumentResult struct {
	// Success indicates the document was created
	Success bool
	// DocumentID is the ERP-internal document id (on success)
	DocumentID string
	// DocumentNumber is the human-readable document number (on success)
	DocumentNumber string
	// ErrorMessage describes the failure (on failure)
	ErrorMessage string
}

// SuccessResult builds a successful DocumentResult
func SuccessResult(documentID, documentNumber string) *DocumentResult {
	return &DocumentResult{
		Success:        true,
		DocumentID:     documentID,
		DocumentNumber: documentNumber,
	}
}

// FailureResult builds a failed DocumentResult
func FailureResult(message string) *DocumentResult {
	return &DocumentResult{
		Success:      false,
		ErrorMessage: message,
	}
}
