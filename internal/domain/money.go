package domain

import (
	"fmt"
	"math"
	"strings"
)

// CentsFromFloat converts a currency amount expressed as a float (e.g. a
// JSON request field) to integer cents, rounding half-up at two decimals.
// All arithmetic inside the system happens in cents; floats only exist at
// the wire boundary.
func CentsFromFloat(amount float64) int64 {
	if amount >= 0 {
		return int64(math.Floor(amount*100 + 0.5))
	}
	return -int64(math.Floor(-amount*100 + 0.5))
}

func FloatFromCents(cents int64) float64 {
	return float64(cents) / 100
}

// FormatKES renders a cents amount the way customer-facing messages show
// prices, e.g. "KSh 1250.00".
func FormatKES(cents int64) string {
	return fmt.Sprintf("KSh %.2f", FloatFromCents(cents))
}

// Info renders the packaging description for a variant, e.g. "25 kg".
// Whole quantity values drop the decimal part.
func (v ProductVariant) Info() string {
	value := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v.QuantityValue), "0"), ".")
	if value == "" {
		value = "0"
	}
	return fmt.Sprintf("%s %s", value, v.QuantityUnit)
}

// SyncAmounts derives the wire-facing float fields from the cents fields.
// Cents are the source of truth; stores call this before returning an
// entity so JSON encoding never reads stale floats.
func (v *ProductVariant) SyncAmounts() {
	v.SellingPrice = FloatFromCents(v.SellingPriceCents)
	if v.BuyingPriceCents != nil {
		buying := FloatFromCents(*v.BuyingPriceCents)
		v.BuyingPrice = &buying
	} else {
		v.BuyingPrice = nil
	}
}

func (o *Order) SyncAmounts() {
	o.TotalAmount = FloatFromCents(o.TotalCents)
	for i := range o.Items {
		o.Items[i].PriceAtPurchase = FloatFromCents(o.Items[i].PriceCents)
	}
}

func (s *OfflineSale) SyncAmounts() {
	s.TotalCost = FloatFromCents(s.TotalCents)
	s.AmountPaid = FloatFromCents(s.AmountPaidCents)
	s.ChangeGiven = FloatFromCents(s.ChangeGivenCents)
	for i := range s.Items {
		s.Items[i].PriceAtSale = FloatFromCents(s.Items[i].PriceCents)
	}
}
