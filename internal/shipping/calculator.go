package shipping

import (
	"github.com/shopspring/decimal"

	"github.com/orderchat/orderchat-backend/internal/session"
	"github.com/orderchat/orderchat-backend/pkg/db/models"
)

// Fee computes the delivery fee for a cart. It is a pure function of the
// cart, the fee policy and the catalog overrides passed in by the caller.
//
// Either free-shipping trigger alone suffices: cart amount at or above the
// free threshold, or total quantity at or above the quantity threshold.
// Otherwise each line resolves a candidate fee (unit override, then product
// override, then the base fee) and the order is charged once at the rate of
// the costliest line, clamped to [0, maxFee].
func Fee(items []session.CartItem, setting *models.ShippingSetting, products map[string]*models.Product) decimal.Decimal {
	if len(items) == 0 || setting == nil {
		return decimal.Zero
	}

	amount := decimal.Zero
	quantity := 0
	for _, line := range items {
		amount = amount.Add(line.EffectivePrice().Mul(decimal.NewFromInt(int64(line.Quantity))))
		quantity += line.Quantity
	}

	if amount.GreaterThanOrEqual(setting.FreeThreshold) || quantity >= setting.FreeQuantityThreshold {
		return decimal.Zero
	}

	fee := decimal.Zero
	for _, line := range items {
		candidate := lineCandidate(line, products[line.ProductID], setting)
		if candidate.GreaterThan(fee) {
			fee = candidate
		}
	}

	if fee.IsNegative() {
		return decimal.Zero
	}
	if fee.GreaterThan(setting.MaxFee) {
		return setting.MaxFee
	}
	return fee
}

// lineCandidate resolves the fee a single line would charge, most specific
// override first.
func lineCandidate(line session.CartItem, product *models.Product, setting *models.ShippingSetting) decimal.Decimal {
	if product != nil {
		if unit := product.UnitByLabel(line.UnitLabel); unit != nil && unit.ShippingFee != nil {
			return *unit.ShippingFee
		}
		if product.ShippingFee != nil {
			return *product.ShippingFee
		}
	}
	return setting.Fee
}
