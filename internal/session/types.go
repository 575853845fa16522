package session

import (
	"time"

	"github.com/shopspring/decimal"
)

// TTL is the inactivity window after which a conversation session expires.
const TTL = 3 * 24 * time.Hour

// CartItem is a single line in the conversation cart. Lines are merged by
// the (ProductID, UnitLabel, SelectedOptions) identity.
type CartItem struct {
	ProductID       string            `json:"product_id"`
	Name            string            `json:"name"`
	Price           decimal.Decimal   `json:"price"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selected_options,omitempty"`
	UnitLabel       string            `json:"unit_label,omitempty"`
	UnitPrice       *decimal.Decimal  `json:"unit_price,omitempty"`
}

// SameIdentity reports whether two lines describe the same sellable thing
// and should merge instead of appending.
func (c CartItem) SameIdentity(other CartItem) bool {
	if c.ProductID != other.ProductID || c.UnitLabel != other.UnitLabel {
		return false
	}
	if len(c.SelectedOptions) != len(other.SelectedOptions) {
		return false
	}
	for k, v := range c.SelectedOptions {
		if other.SelectedOptions[k] != v {
			return false
		}
	}
	return true
}

// EffectivePrice returns the unit-level price when one is present.
func (c CartItem) EffectivePrice() decimal.Decimal {
	if c.UnitPrice != nil {
		return *c.UnitPrice
	}
	return c.Price
}

// Session is the per-PSID conversation state. One document per PSID.
type Session struct {
	PSID      string         `json:"psid"`
	Step      string         `json:"step"`
	Cart      []CartItem     `json:"cart"`
	TempData  map[string]any `json:"temp_data,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}
