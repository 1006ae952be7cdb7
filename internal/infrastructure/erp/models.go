package erp

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/syncbridge/internal/domain/bridge"
)

// ---------------------------------------------------------------------------
// Persistence Models
// ---------------------------------------------------------------------------
// These models mirror the ERP's own schema. The bridge writes sales
// documents and reads catalog/customer master data; it never owns or
// migrates these tables in production.

// SalesDocumentModel is one ERP sales document header
type SalesDocumentModel struct {
	ID             uint                     `gorm:"primaryKey;autoIncrement"`
	DocumentNumber string                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	SourceOrderID  string                   `gorm:"type:varchar(100);not null;uniqueIndex"`
	CustomerRef    string                   `gorm:"type:varchar(100)"`
	Notes          string                   `gorm:"type:text"`
	TotalNet       decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	TotalGross     decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Currency       string                   `gorm:"type:varchar(3);not null"`
	CreatedAt      time.Time                `gorm:"not null"`
	Lines          []SalesDocumentLineModel `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SalesDocumentModel) TableName() string {
	return "sales_documents"
}

// SalesDocumentLineModel is one line of an ERP sales document
type SalesDocumentLineModel struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	DocumentID  uint            `gorm:"not null;index"`
	LineNo      int             `gorm:"not null"`
	ProductCode string          `gorm:"type:varchar(50);not null"`
	ProductName string          `gorm:"type:varchar(200)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	VatRate     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Discount    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Notes       string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SalesDocumentLineModel) TableName() string {
	return "sales_document_lines"
}

// ProductModel is one ERP catalog entry
type ProductModel struct {
	Code          string          `gorm:"type:varchar(50);primaryKey"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	VatRate       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	StockQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive      bool            `gorm:"not null;default:true"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() bridge.Product {
	return bridge.Product{
		Code:          m.Code,
		Name:          m.Name,
		Description:   m.Description,
		Price:         m.Price,
		VatRate:       m.VatRate,
		StockQuantity: m.StockQuantity,
		IsActive:      m.IsActive,
		UpdatedAt:     m.UpdatedAt,
	}
}

// CustomerModel is one ERP customer master record
type CustomerModel struct {
	Code      string          `gorm:"type:varchar(50);primaryKey"`
	Name      string          `gorm:"type:varchar(200);not null"`
	TaxID     string          `gorm:"type:varchar(50)"`
	Email     string          `gorm:"type:varchar(200)"`
	Phone     string          `gorm:"type:varchar(50)"`
	Address   string          `gorm:"type:varchar(500)"`
	Balance   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive  bool            `gorm:"not null;default:true"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() bridge.Customer {
	return bridge.Customer{
		Code:      m.Code,
		Name:      m.Name,
		TaxID:     m.TaxID,
		Email:     m.Email,
		Phone:     m.Phone,
		Address:   m.Address,
		Balance:   m.Balance,
		IsActive:  m.IsActive,
		UpdatedAt: m.UpdatedAt,
	}
}
