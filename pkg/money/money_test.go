package money

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount   string
		currency enums.Currency
		want     int64
	}{
		{"2500", enums.CurrencyINR, 250000},
		{"2500.00", enums.CurrencyINR, 250000},
		{"0.01", enums.CurrencyINR, 1},
		{"19.99", enums.CurrencyUSD, 1999},
		{"1200", enums.CurrencyJPY, 1200},
		{"0", enums.CurrencyINR, 0},
	}
	for _, tt := range tests {
		got, err := ToMinorUnits(decimal.RequireFromString(tt.amount), tt.currency)
		if err != nil {
			t.Fatalf("%s %s: unexpected error %v", tt.amount, tt.currency, err)
		}
		if got != tt.want {
			t.Fatalf("%s %s: expected %d got %d", tt.amount, tt.currency, tt.want, got)
		}
	}
}

func TestToMinorUnitsRejectsInvalidAmounts(t *testing.T) {
	if _, err := ToMinorUnits(decimal.RequireFromString("-1"), enums.CurrencyINR); err == nil {
		t.Fatal("expected negative amount to fail")
	}
	if _, err := ToMinorUnits(decimal.RequireFromString("10.005"), enums.CurrencyINR); err == nil {
		t.Fatal("expected sub-paise amount to fail")
	}
}

func TestFromMinorUnitsRoundTrip(t *testing.T) {
	amount := FromMinorUnits(250000, enums.CurrencyINR)
	if !amount.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("expected 2500, got %s", amount)
	}
}
