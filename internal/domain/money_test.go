package domain

import "testing"

func TestCentsFromFloatRoundsHalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{12.34, 1234},
		{0.005, 1},
		{6950, 695000},
		{480.5, 48050},
		{-12.34, -1234},
		{-0.004, 0},
	}
	for _, tc := range cases {
		if got := CentsFromFloat(tc.in); got != tc.want {
			t.Fatalf("CentsFromFloat(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatKES(t *testing.T) {
	if got := FormatKES(695000); got != "KSh 6950.00" {
		t.Fatalf("FormatKES = %q", got)
	}
	if got := FormatKES(48050); got != "KSh 480.50" {
		t.Fatalf("FormatKES = %q", got)
	}
}

func TestVariantInfoDropsTrailingZeros(t *testing.T) {
	cases := []struct {
		value float64
		unit  string
		want  string
	}{
		{25, "kg", "25 kg"},
		{0.5, "L", "0.5 L"},
		{250, "ml", "250 ml"},
		{1.25, "kg", "1.25 kg"},
	}
	for _, tc := range cases {
		v := ProductVariant{QuantityValue: tc.value, QuantityUnit: tc.unit}
		if got := v.Info(); got != tc.want {
			t.Fatalf("Info(%v %s) = %q, want %q", tc.value, tc.unit, got, tc.want)
		}
	}
}

func TestOrderSyncAmounts(t *testing.T) {
	order := Order{
		TotalCents: 2085000,
		Items: []OrderItem{
			{PriceCents: 695000, Quantity: 3},
		},
	}
	order.SyncAmounts()
	if order.TotalAmount != 20850 {
		t.Fatalf("TotalAmount = %v", order.TotalAmount)
	}
	if order.Items[0].PriceAtPurchase != 6950 {
		t.Fatalf("PriceAtPurchase = %v", order.Items[0].PriceAtPurchase)
	}
}
