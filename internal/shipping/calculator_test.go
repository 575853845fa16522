package shipping

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderchat/orderchat-backend/internal/session"
	"github.com/orderchat/orderchat-backend/pkg/db/models"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func testSetting(fee, freeThreshold int64, freeQty int) *models.ShippingSetting {
	return &models.ShippingSetting{
		Fee:                   dec(fee),
		FreeThreshold:         dec(freeThreshold),
		FreeQuantityThreshold: freeQty,
		MaxFee:                dec(100),
	}
}

func TestFee_UnitOverrideWins(t *testing.T) {
	productID := uuid.New()
	cart := []session.CartItem{{
		ProductID: productID.String(),
		Price:     dec(100),
		Quantity:  2,
		UnitLabel: "box",
	}}
	catalog := map[string]*models.Product{
		productID.String(): {
			ID:          productID,
			ShippingFee: decPtr(70),
			Units:       models.ProductUnits{{Label: "box", Price: dec(100), ShippingFee: decPtr(30)}},
		},
	}

	fee := Fee(cart, testSetting(50, 500, 10), catalog)
	if !fee.Equal(dec(30)) {
		t.Fatalf("expected unit override fee 30, got %s", fee)
	}
}

func TestFee_QuantityTriggerAloneSuffices(t *testing.T) {
	productID := uuid.New().String()
	cart := []session.CartItem{{ProductID: productID, Price: dec(100), Quantity: 2, UnitLabel: "box"}}

	// Amount 200 is under the 500 threshold but qty 2 meets the quantity
	// threshold, so shipping is free.
	fee := Fee(cart, testSetting(50, 500, 2), nil)
	if !fee.IsZero() {
		t.Fatalf("expected free shipping via quantity trigger, got %s", fee)
	}
}

func TestFee_AmountTriggerAloneSuffices(t *testing.T) {
	cart := []session.CartItem{{ProductID: "p1", Price: dec(300), Quantity: 2}}
	fee := Fee(cart, testSetting(50, 500, 10), nil)
	if !fee.IsZero() {
		t.Fatalf("expected free shipping via amount trigger, got %s", fee)
	}
}

func TestFee_MaxOfLinesNotSum(t *testing.T) {
	heavy := uuid.New()
	light := uuid.New()
	cart := []session.CartItem{
		{ProductID: heavy.String(), Price: dec(50), Quantity: 1},
		{ProductID: light.String(), Price: dec(50), Quantity: 1},
	}
	catalog := map[string]*models.Product{
		heavy.String(): {ID: heavy, ShippingFee: decPtr(80)},
		light.String(): {ID: light, ShippingFee: decPtr(20)},
	}

	fee := Fee(cart, testSetting(50, 1000, 10), catalog)
	if !fee.Equal(dec(80)) {
		t.Fatalf("expected the costliest line's fee 80, got %s", fee)
	}
}

func TestFee_UnknownProductFallsBackToBase(t *testing.T) {
	cart := []session.CartItem{{ProductID: "unknown", Price: dec(50), Quantity: 1}}
	fee := Fee(cart, testSetting(50, 1000, 10), map[string]*models.Product{})
	if !fee.Equal(dec(50)) {
		t.Fatalf("expected base fee 50, got %s", fee)
	}
}

func TestFee_ClampedToMaxFee(t *testing.T) {
	productID := uuid.New()
	cart := []session.CartItem{{ProductID: productID.String(), Price: dec(50), Quantity: 1}}
	catalog := map[string]*models.Product{
		productID.String(): {ID: productID, ShippingFee: decPtr(250)},
	}

	setting := testSetting(50, 1000, 10)
	fee := Fee(cart, setting, catalog)
	if !fee.Equal(setting.MaxFee) {
		t.Fatalf("expected clamp to max fee %s, got %s", setting.MaxFee, fee)
	}
}

func TestFee_NeverNegative(t *testing.T) {
	productID := uuid.New()
	cart := []session.CartItem{{ProductID: productID.String(), Price: dec(50), Quantity: 1}}
	catalog := map[string]*models.Product{
		productID.String(): {ID: productID, ShippingFee: decPtr(-10)},
	}

	fee := Fee(cart, testSetting(-5, 1000, 10), catalog)
	if fee.IsNegative() {
		t.Fatalf("fee must never be negative, got %s", fee)
	}
}

func TestFee_EmptyCart(t *testing.T) {
	if fee := Fee(nil, testSetting(50, 500, 10), nil); !fee.IsZero() {
		t.Fatalf("expected zero for empty cart, got %s", fee)
	}
}

func TestFee_UnitPriceCountsTowardAmountTrigger(t *testing.T) {
	unitPrice := dec(300)
	cart := []session.CartItem{{
		ProductID: "p1",
		Price:     dec(10),
		Quantity:  2,
		UnitLabel: "box",
		UnitPrice: &unitPrice,
	}}

	fee := Fee(cart, testSetting(50, 500, 10), nil)
	if !fee.IsZero() {
		t.Fatalf("expected unit price 300x2 to trigger free shipping, got %s", fee)
	}
}
