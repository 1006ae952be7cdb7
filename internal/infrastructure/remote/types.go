package remote

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/syncbridge/internal/domain/bridge"
)

// ---------------------------------------------------------------------------
// Wire Types
// ---------------------------------------------------------------------------

// pendingOrdersResponse is the response body of GET /api/v1/orders/pending
type pendingOrdersResponse struct {
	Orders     []orderPayload `json:"orders"`
	TotalCount int            `json:"total_count"`
	HasMore    bool           `json:"has_more"`
}

// orderPayload is one order as the cloud API serializes it
type orderPayload struct {
	ID          string             `json:"id"`
	CustomerRef string             `json:"customer_ref,omitempty"`
	Lines       []orderLinePayload `json:"lines"`
	Notes       string             `json:"notes,omitempty"`
	TotalNet    decimal.Decimal    `json:"total_net"`
	TotalGross  decimal.Decimal    `json:"total_gross"`
	Currency    string             `json:"currency"`
	CreatedAt   time.Time          `json:"created_at"`
}

// orderLinePayload is one order line as the cloud API serializes it
type orderLinePayload struct {
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VatRate     decimal.Decimal `json:"vat_rate"`
	Discount    decimal.Decimal `json:"discount"`
	Notes       string          `json:"notes,omitempty"`
}

// statusUpdatePayload is the request body of POST /api/v1/orders/{id}/status
type statusUpdatePayload struct {
	Status       string `json:"status"`
	DocumentRef  string `json:"document_ref,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// productPayload is one catalog entry as pushed to the cloud mirror
type productPayload struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	VatRate       decimal.Decimal `json:"vat_rate"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// customerPayload is one customer record as pushed to the cloud mirror
type customerPayload struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	TaxID     string          `json:"tax_id,omitempty"`
	Email     string          `json:"email,omitempty"`
	Phone     string          `json:"phone,omitempty"`
	Address   string          `json:"address,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	IsActive  bool            `json:"is_active"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// productPushRequest is the request body of PUT /api/v1/products
type productPushRequest struct {
	Items []productPayload `json:"items"`
}

// customerPushRequest is the request body of PUT /api/v1/customers
type customerPushRequest struct {
	Items []customerPayload `json:"items"`
}

// pushResponse is the response body of the catalog push endpoints
type pushResponse struct {
	AcceptedCount int               `json:"accepted_count"`
	RejectedItems []rejectedPayload `json:"rejected_items,omitempty"`
}

// rejectedPayload describes one record the cloud API refused to upsert
type rejectedPayload struct {
	Code         string `json:"code"`
	ErrorMessage string `json:"error_message"`
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

// toDomainOrder converts a wire order into the domain representation.
// Every fetched order starts its bridge lifecycle as PENDING.
func (p *orderPayload) toDomainOrder() bridge.Order {
	order := bridge.Order{
		ID:          p.ID,
		Status:      bridge.OrderStatusPending,
		CustomerRef: p.CustomerRef,
		Notes:       p.Notes,
		TotalNet:    p.TotalNet,
		TotalGross:  p.TotalGross,
		Currency:    p.Currency,
		CreatedAt:   p.CreatedAt,
		Lines:       make([]bridge.OrderLine, 0, len(p.Lines)),
	}
	for _, line := range p.Lines {
		order.Lines = append(order.Lines, bridge.OrderLine{
			ProductCode: line.ProductCode,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			VatRate:     line.VatRate,
			Discount:    line.Discount,
			Notes:       line.Notes,
		})
	}
	return order
}

// toProductPayload converts a domain product into its wire representation
func toProductPayload(p bridge.Product) productPayload {
	return productPayload{
		Code:          p.Code,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		VatRate:       p.VatRate,
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		UpdatedAt:     p.UpdatedAt,
	}
}

// toCustomerPayload converts a domain customer into its wire representation
func toCustomerPayload(c bridge.Customer) customerPayload {
	return customerPayload{
		Code:      c.Code,
		Name:      c.Name,
		TaxID:     c.TaxID,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Balance:   c.Balance,
		IsActive:  c.IsActive,
		UpdatedAt: c.UpdatedAt,
	}
}
