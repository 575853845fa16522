package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductUnit is a sellable unit of a product (e.g. piece, box) with its own
// price and optional shipping-fee override.
type ProductUnit struct {
	Label       string           `json:"label"`
	Price       decimal.Decimal  `json:"price"`
	ShippingFee *decimal.Decimal `json:"shipping_fee,omitempty"`
}

// ProductUnits stores the unit list inside a JSONB column.
type ProductUnits []ProductUnit

// Product is the catalog entry consulted by the shipping calculator for
// per-product and per-unit fee overrides.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU         string           `gorm:"column:sku;not null;uniqueIndex" json:"sku"`
	Name        string           `gorm:"column:name;not null" json:"name"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	ShippingFee *decimal.Decimal `gorm:"column:shipping_fee;type:numeric(12,2)" json:"shipping_fee,omitempty"`
	Units       ProductUnits     `gorm:"column:units;type:jsonb;serializer:json" json:"units,omitempty"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table used by GORM.
func (Product) TableName() string { return "products" }

// UnitByLabel returns the matching unit, if any.
func (p *Product) UnitByLabel(label string) *ProductUnit {
	if p == nil || label == "" {
		return nil
	}
	for i := range p.Units {
		if p.Units[i].Label == label {
			return &p.Units[i]
		}
	}
	return nil
}
