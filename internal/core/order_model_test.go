package core_test

import (
	"testing"

	"distripanel/internal/core"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("Bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		quantity string
		price    string
		discount string
		want     string
	}{
		{"no discount", "10", "680.00", "0", "6800.00"},
		{"ten percent off", "2.5", "5500.00", "10", "12375.00"},
		{"full discount", "3", "100.00", "100", "0.00"},
		{"rounds half up", "3", "0.335", "0", "1.01"},
		{"negative quantity is a credit", "-2", "450.00", "0", "-900.00"},
		{"fractional discount", "1", "1000.00", "12.5", "875.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.LineTotal(dec(t, tt.quantity), dec(t, tt.price), dec(t, tt.discount))
			if !got.Equal(dec(t, tt.want)) {
				t.Errorf("LineTotal(%s, %s, %s) = %s, want %s",
					tt.quantity, tt.price, tt.discount, got, tt.want)
			}
		})
	}
}

func TestOrderTotal(t *testing.T) {
	items := []core.OrderItemInput{
		{Quantity: dec(t, "10"), UnitPrice: dec(t, "680.00")},
		{Quantity: dec(t, "2.5"), UnitPrice: dec(t, "5500.00"), DiscountPct: dec(t, "10")},
		{Quantity: dec(t, "-1"), UnitPrice: dec(t, "680.00")}, // returned unit
	}

	got := core.OrderTotal(items)
	if !got.Equal(dec(t, "18495.00")) {
		t.Errorf("OrderTotal = %s, want 18495.00", got)
	}
}

func TestOrderTotal_Empty(t *testing.T) {
	if got := core.OrderTotal(nil); !got.IsZero() {
		t.Errorf("OrderTotal(nil) = %s, want 0", got)
	}
}

// Rounding happens per line, not on the grand total.
func TestOrderTotal_PerLineRounding(t *testing.T) {
	items := []core.OrderItemInput{
		{Quantity: dec(t, "1"), UnitPrice: dec(t, "0.335")},
		{Quantity: dec(t, "1"), UnitPrice: dec(t, "0.335")},
	}

	got := core.OrderTotal(items)
	if !got.Equal(dec(t, "0.68")) {
		t.Errorf("OrderTotal = %s, want 0.68 (0.34 per rounded line)", got)
	}
}
