package documents

import (
	"context"

	"github.com/domeo/domeo-backend/pkg/db/models"
	"github.com/domeo/domeo-backend/pkg/enums"
	"github.com/domeo/domeo-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the document tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateQuote(ctx context.Context, quote *models.Quote) error
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateSupplierOrder(ctx context.Context, order *models.SupplierOrder) error

	FindQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	FindInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error)

	ListOrdersByClient(ctx context.Context, clientID string, after *pagination.Cursor, limit int) ([]models.Order, error)
	FindOrdersByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Order, error)
	OrdersBySession(ctx context.Context, clientID, cartSessionID string, total, epsilon decimal.Decimal) ([]models.Order, error)
	OrdersByTotal(ctx context.Context, clientID string, total, epsilon decimal.Decimal, limit int) ([]models.Order, error)
	CountDocuments(ctx context.Context, kind enums.DocumentKind) (int64, error)

	// UpdateStatus moves id from one status to another and fails with
	// CONFLICT when the stored status is no longer from.
	UpdateStatus(ctx context.Context, kind enums.DocumentKind, id uuid.UUID, from, to string) error
	UpdateOrderInvoiceStatus(ctx context.Context, orderID uuid.UUID, status enums.InvoiceStatus) error
	LinkOrderInvoice(ctx context.Context, orderID, invoiceID uuid.UUID, status enums.InvoiceStatus) error
	UpdateOrderDetails(ctx context.Context, orderID uuid.UUID, updates map[string]any) error

	CreateHistory(ctx context.Context, entry *models.StatusHistory) error
	ListHistory(ctx context.Context, kind enums.DocumentKind, id uuid.UUID) ([]models.StatusHistory, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
