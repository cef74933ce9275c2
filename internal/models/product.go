package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductDraft      ProductStatus = "draft"
	ProductActive     ProductStatus = "active"
	ProductArchived   ProductStatus = "archived"
	ProductOutOfStock ProductStatus = "out_of_stock"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductDraft, ProductActive, ProductArchived, ProductOutOfStock:
		return true
	}
	return false
}

// Product is a store-owned inventory unit. A nil StockQuantity means unlimited stock.
type Product struct {
	ID             uuid.UUID       `gorm:"primaryKey"                     json:"id"`
	StoreID        uuid.UUID       `gorm:"index;not null"                 json:"store_id"`
	Name           string          `gorm:"size:255;not null"              json:"name"`
	Description    string          `gorm:"type:text"                      json:"description"`
	Price          decimal.Decimal `gorm:"type:decimal(14,2);not null"    json:"price"`
	StockQuantity  *int            `                                      json:"stock_quantity"`
	TrackInventory bool            `gorm:"not null"                       json:"track_inventory"`
	Status         ProductStatus   `gorm:"size:20;not null;index"         json:"status"`
	CreatedAt      time.Time       `                                      json:"created_at"`
	UpdatedAt      time.Time       `                                      json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Product) TableName() string {
	return "products"
}

// Limited reports whether purchases are bounded by StockQuantity.
func (p *Product) Limited() bool {
	return p.TrackInventory && p.StockQuantity != nil
}

func (p *Product) HasStockFor(qty int) bool {
	if !p.Limited() {
		return true
	}
	return *p.StockQuantity >= qty
}

func (p *Product) Purchasable() bool {
	return p.Status == ProductActive
}
