package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AIOrderVariant captures the option fields the extraction engine pulls out
// of a chat turn.
type AIOrderVariant struct {
	Color string `json:"color,omitempty"`
	Size  string `json:"size,omitempty"`
}

// AIOrderItem is a single extracted order line.
type AIOrderItem struct {
	SKU     string          `json:"sku,omitempty"`
	Name    string          `json:"name"`
	Qty     int             `json:"qty"`
	Variant *AIOrderVariant `json:"variant,omitempty"`
	Note    string          `json:"note,omitempty"`
}

// AIOrderItems stores the extracted lines inside a JSONB column.
type AIOrderItems []AIOrderItem

// Validate checks the per-line quantity floor.
func (items AIOrderItems) Validate() error {
	for i, item := range items {
		if item.Name == "" {
			return fmt.Errorf("item %d: name is required", i)
		}
		if item.Qty < 1 {
			return fmt.Errorf("item %d: qty must be at least 1", i)
		}
	}
	return nil
}

// AIOrderPricing is the monetary snapshot carried on every draft order.
type AIOrderPricing struct {
	Currency    string          `json:"currency"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
}

// Validate enforces total == subtotal - discount + shipping_fee with all
// four components non-negative.
func (p AIOrderPricing) Validate() error {
	for name, v := range map[string]decimal.Decimal{
		"subtotal":     p.Subtotal,
		"discount":     p.Discount,
		"shipping_fee": p.ShippingFee,
		"total":        p.Total,
	} {
		if v.IsNegative() {
			return fmt.Errorf("pricing %s must be non-negative", name)
		}
	}
	expected := p.Subtotal.Sub(p.Discount).Add(p.ShippingFee)
	if !p.Total.Equal(expected) {
		return fmt.Errorf("pricing total %s does not equal subtotal - discount + shipping_fee (%s)", p.Total, expected)
	}
	return nil
}

// Recalculate returns a copy with total derived from the components.
func (p AIOrderPricing) Recalculate() AIOrderPricing {
	p.Total = p.Subtotal.Sub(p.Discount).Add(p.ShippingFee)
	return p
}

// AIOrderCustomer is the contact block collected during the conversation.
type AIOrderCustomer struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// StringList stores a plain string slice inside a JSONB column.
type StringList []string
