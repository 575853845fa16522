package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/orderchat/orderchat-backend/pkg/enums"
	"github.com/orderchat/orderchat-backend/pkg/types"
)

// AIOrder is a speculative order extracted from a chat turn. It is never
// hard-deleted; staff corrections and map/unmap mutate it in place.
type AIOrder struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PSID          string                 `gorm:"column:psid;not null;index" json:"psid"`
	Status        enums.AIOrderStatus    `gorm:"column:order_status;type:text;not null;default:'draft';index" json:"order_status"`
	Items         types.AIOrderItems     `gorm:"column:items;type:jsonb;serializer:json" json:"items"`
	Pricing       types.AIOrderPricing   `gorm:"column:pricing;type:jsonb;serializer:json" json:"pricing"`
	Customer      *types.AIOrderCustomer `gorm:"column:customer;type:jsonb;serializer:json" json:"customer,omitempty"`
	ErrorMessages types.StringList       `gorm:"column:error_messages;type:jsonb;serializer:json" json:"error_messages,omitempty"`
	AIResponse    string                 `gorm:"column:ai_response" json:"ai_response"`
	UserMessage   string                 `gorm:"column:user_message" json:"user_message"`
	MappedOrderID *uuid.UUID             `gorm:"column:mapped_order_id;type:uuid" json:"mapped_order_id,omitempty"`
	MappedAt      *time.Time             `gorm:"column:mapped_at" json:"mapped_at,omitempty"`
	MappedBy      *string                `gorm:"column:mapped_by" json:"mapped_by,omitempty"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table used by GORM.
func (AIOrder) TableName() string { return "ai_orders" }
