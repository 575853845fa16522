package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderchat/orderchat-backend/pkg/enums"
)

// Order is the confirmed order owned by the back-office. The pipeline only
// references it by id from AIOrder.MappedOrderID; the warehouse sync client
// is the single externally-triggered writer of its status.
type Order struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber        string            `gorm:"column:order_number;not null;uniqueIndex" json:"order_number"`
	Status             enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending';index" json:"status"`
	PickingOrderNumber *string           `gorm:"column:picking_order_number" json:"picking_order_number,omitempty"`
	Total              decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null;default:0" json:"total"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table used by GORM.
func (Order) TableName() string { return "orders" }
