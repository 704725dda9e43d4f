package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Handle is a catalog handle priced directly from this table.
type Handle struct {
	ID        string          `gorm:"column:id;primaryKey" json:"id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null" json:"price"`
	SKU       string          `gorm:"column:sku" json:"sku"`
	Active    bool            `gorm:"column:active;not null" json:"active"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
