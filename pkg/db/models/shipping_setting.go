package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Default shipping settings used when the singleton row is absent.
var (
	DefaultFreeThreshold         = decimal.NewFromInt(1000)
	DefaultShippingFee           = decimal.NewFromInt(50)
	DefaultFreeQuantityThreshold = 10
	DefaultMaxShippingFee        = decimal.NewFromInt(100)
)

// ShippingSetting is the singleton fee policy consulted by the calculator.
// It is auto-created with defaults on first read.
type ShippingSetting struct {
	ID                    int             `gorm:"column:id;primaryKey" json:"-"`
	FreeThreshold         decimal.Decimal `gorm:"column:free_threshold;type:numeric(12,2);not null" json:"freeThreshold"`
	Fee                   decimal.Decimal `gorm:"column:fee;type:numeric(12,2);not null" json:"fee"`
	FreeQuantityThreshold int             `gorm:"column:free_quantity_threshold;not null" json:"freeQuantityThreshold"`
	MaxFee                decimal.Decimal `gorm:"column:max_fee;type:numeric(12,2);not null" json:"maxFee"`
	CreatedAt             time.Time       `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName pins the table used by GORM.
func (ShippingSetting) TableName() string { return "shipping_settings" }

// DefaultShippingSetting returns the row written when none exists yet.
func DefaultShippingSetting() *ShippingSetting {
	return &ShippingSetting{
		ID:                    1,
		FreeThreshold:         DefaultFreeThreshold,
		Fee:                   DefaultShippingFee,
		FreeQuantityThreshold: DefaultFreeQuantityThreshold,
		MaxFee:                DefaultMaxShippingFee,
	}
}
