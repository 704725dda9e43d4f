package documents

import (
	"context"
	"errors"
	"time"

	"github.com/domeo/domeo-backend/pkg/db/models"
	"github.com/domeo/domeo-backend/pkg/enums"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a documents repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateQuote(ctx context.Context, quote *models.Quote) error {
	if quote.ID == uuid.Nil {
		quote.ID = uuid.New()
	}
	return pkgerrors.FromDB(r.db.WithContext(ctx).Create(quote).Error, "create quote")
}

func (r *repository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	return pkgerrors.FromDB(r.db.WithContext(ctx).Create(invoice).Error, "create invoice")
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return pkgerrors.FromDB(r.db.WithContext(ctx).Create(order).Error, "create order")
}

func (r *repository) CreateSupplierOrder(ctx context.Context, order *models.SupplierOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return pkgerrors.FromDB(r.db.WithContext(ctx).Create(order).Error, "create supplier order")
}

func (r *repository) FindQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&quote).Error; err != nil {
		return nil, notFoundOr(err, enums.DocumentKindQuote, id)
	}
	return &quote, nil
}

func (r *repository) FindInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&invoice).Error; err != nil {
		return nil, notFoundOr(err, enums.DocumentKindInvoice, id)
	}
	return &invoice, nil
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, notFoundOr(err, enums.DocumentKindOrder, id)
	}
	return &order, nil
}

func (r *repository) FindSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error) {
	var order models.SupplierOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, notFoundOr(err, enums.DocumentKindSupplierOrder, id)
	}
	return &order, nil
}

// ListOrdersByClient returns the client's orders newest first, starting
// after the given cursor.
func (r *repository) ListOrdersByClient(ctx context.Context, clientID string, after *pagination.Cursor, limit int) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Order("id DESC")
	if after != nil {
		at := after.CreatedAt.Local()
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", at, at, after.ID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

func (r *repository) FindOrdersByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders for invoice")
	}
	return orders, nil
}

func (r *repository) OrdersBySession(ctx context.Context, clientID, cartSessionID string, total, epsilon decimal.Decimal) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND cart_session_id = ?", clientID, cartSessionID).
		Where("total_amount BETWEEN ? AND ?", total.Sub(epsilon), total.Add(epsilon)).
		Order("created_at DESC").
		Limit(1).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) OrdersByTotal(ctx context.Context, clientID string, total, epsilon decimal.Decimal, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Where("total_amount BETWEEN ? AND ?", total.Sub(epsilon), total.Add(epsilon)).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) CountDocuments(ctx context.Context, kind enums.DocumentKind) (int64, error) {
	model, err := modelFor(kind)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count documents")
	}
	return count, nil
}

func (r *repository) UpdateStatus(ctx context.Context, kind enums.DocumentKind, id uuid.UUID, from, to string) error {
	model, err := modelFor(kind)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update status")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var exists int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&exists).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update status")
	}
	if exists == 0 {
		return notFound(kind, id)
	}
	return pkgerrors.Newf(pkgerrors.CodeConflict, "%s status changed while the transition was in flight", kind).
		WithDetails(map[string]any{"expected_status": from, "requested_status": to})
}

func (r *repository) UpdateOrderInvoiceStatus(ctx context.Context, orderID uuid.UUID, status enums.InvoiceStatus) error {
	return r.UpdateOrderDetails(ctx, orderID, map[string]any{"invoice_status": status})
}

func (r *repository) LinkOrderInvoice(ctx context.Context, orderID, invoiceID uuid.UUID, status enums.InvoiceStatus) error {
	return r.UpdateOrderDetails(ctx, orderID, map[string]any{
		"invoice_id":     invoiceID,
		"invoice_status": status,
	})
}

func (r *repository) UpdateOrderDetails(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update order")
	}
	if res.RowsAffected == 0 {
		return notFound(enums.DocumentKindOrder, orderID)
	}
	return nil
}

func (r *repository) CreateHistory(ctx context.Context, entry *models.StatusHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record status history")
	}
	return nil
}

func (r *repository) ListHistory(ctx context.Context, kind enums.DocumentKind, id uuid.UUID) ([]models.StatusHistory, error) {
	var entries []models.StatusHistory
	err := r.db.WithContext(ctx).
		Where("document_kind = ? AND document_id = ?", kind, id).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status history")
	}
	return entries, nil
}

func modelFor(kind enums.DocumentKind) (any, error) {
	switch kind {
	case enums.DocumentKindQuote:
		return &models.Quote{}, nil
	case enums.DocumentKindInvoice:
		return &models.Invoice{}, nil
	case enums.DocumentKindOrder:
		return &models.Order{}, nil
	case enums.DocumentKindSupplierOrder:
		return &models.SupplierOrder{}, nil
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown document kind %q", kind)
	}
}

func notFoundOr(err error, kind enums.DocumentKind, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(kind, id)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+kind.String())
}

func notFound(kind enums.DocumentKind, id uuid.UUID) error {
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "%s not found", kind).
		WithDetails(map[string]any{"document_kind": kind.String(), "id": id.String()})
}
