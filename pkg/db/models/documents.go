package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/domeo/domeo-backend/pkg/enums"
	"github.com/domeo/domeo-backend/pkg/types"
)

// Quote is a priced offer generated from a cart.
type Quote struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Number      string            `gorm:"column:number;not null;uniqueIndex" json:"number"`
	ClientID    string            `gorm:"column:client_id;not null;index" json:"client_id"`
	CartData    types.CartLines   `gorm:"column:cart_data;type:jsonb;not null" json:"cart_data"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:numeric(14,2);not null" json:"total_amount"`
	Status      enums.QuoteStatus `gorm:"column:status;not null;default:'DRAFT'" json:"status"`
	CreatedBy   string            `gorm:"column:created_by" json:"created_by"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Invoice is the billing document whose status drives linked orders.
type Invoice struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Number      string              `gorm:"column:number;not null;uniqueIndex" json:"number"`
	ClientID    string              `gorm:"column:client_id;not null;index" json:"client_id"`
	QuoteID     *uuid.UUID          `gorm:"column:quote_id;type:uuid" json:"quote_id"`
	CartData    types.CartLines     `gorm:"column:cart_data;type:jsonb;not null" json:"cart_data"`
	TotalAmount decimal.Decimal     `gorm:"column:total_amount;type:numeric(14,2);not null" json:"total_amount"`
	Status      enums.InvoiceStatus `gorm:"column:status;not null;default:'DRAFT'" json:"status"`
	CreatedBy   string              `gorm:"column:created_by" json:"created_by"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Order is the fulfilment document. InvoiceStatus mirrors the linked
// invoice and is written only by status propagation.
type Order struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Number         string               `gorm:"column:number;not null;uniqueIndex" json:"number"`
	ClientID       string               `gorm:"column:client_id;not null;index:idx_orders_client_created,priority:1" json:"client_id"`
	CartSessionID  *string              `gorm:"column:cart_session_id;index" json:"cart_session_id"`
	InvoiceID      *uuid.UUID           `gorm:"column:invoice_id;type:uuid;index" json:"invoice_id"`
	InvoiceStatus  *enums.InvoiceStatus `gorm:"column:invoice_status" json:"invoice_status"`
	CartData       types.CartLines      `gorm:"column:cart_data;type:jsonb;not null" json:"cart_data"`
	TotalAmount    decimal.Decimal      `gorm:"column:total_amount;type:numeric(14,2);not null" json:"total_amount"`
	Status         enums.OrderStatus    `gorm:"column:status;not null;default:'NEW_PLANNED'" json:"status"`
	ProjectFileURL *string              `gorm:"column:project_file_url" json:"project_file_url"`
	DoorDimensions types.DoorDimensions `gorm:"column:door_dimensions;type:jsonb" json:"door_dimensions"`
	CreatedBy      string               `gorm:"column:created_by" json:"created_by"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime;index:idx_orders_client_created,priority:2" json:"created_at"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// SupplierOrder is the factory-side order placed for a client order.
type SupplierOrder struct {
	ID           uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Number       string                    `gorm:"column:number;not null;uniqueIndex" json:"number"`
	OrderID      uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	SupplierName string                    `gorm:"column:supplier_name;not null" json:"supplier_name"`
	Status       enums.SupplierOrderStatus `gorm:"column:status;not null;default:'PENDING'" json:"status"`
	Notes        *string                   `gorm:"column:notes" json:"notes"`
	CreatedBy    string                    `gorm:"column:created_by" json:"created_by"`
	CreatedAt    time.Time                 `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                 `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// StatusHistory is one status write on any document kind.
type StatusHistory struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	DocumentKind enums.DocumentKind     `gorm:"column:document_kind;not null;index:idx_status_history_document,priority:1" json:"document_kind"`
	DocumentID   uuid.UUID              `gorm:"column:document_id;type:uuid;not null;index:idx_status_history_document,priority:2" json:"document_id"`
	FromStatus   string                 `gorm:"column:from_status;not null" json:"from_status"`
	ToStatus     string                 `gorm:"column:to_status;not null" json:"to_status"`
	Origin       enums.TransitionOrigin `gorm:"column:origin;not null" json:"origin"`
	ActorID      string                 `gorm:"column:actor_id" json:"actor_id"`
	ActorRole    string                 `gorm:"column:actor_role" json:"actor_role"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (StatusHistory) TableName() string {
	return "document_status_history"
}
