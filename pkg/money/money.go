// Package money converts decimal amounts to the integer minor units payment
// gateways expect.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
)

// ToMinorUnits converts amount to the smallest unit of currency, e.g. 2500 INR
// becomes 250000 paise. Amounts with more precision than the currency allows are
// rejected instead of silently rounded.
func ToMinorUnits(amount decimal.Decimal, currency enums.Currency) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount %s must not be negative", amount.String())
	}
	scaled := amount.Shift(currency.MinorUnitExponent())
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more precision than %s supports", amount.String(), currency)
	}
	if scaled.GreaterThan(decimal.NewFromInt(maxMinorUnits)) {
		return 0, fmt.Errorf("amount %s is out of range", amount.String())
	}
	return scaled.IntPart(), nil
}

// FromMinorUnits converts a minor-unit integer back to a decimal amount.
func FromMinorUnits(units int64, currency enums.Currency) decimal.Decimal {
	return decimal.New(units, -currency.MinorUnitExponent())
}

// Round rounds half-up to the currency's precision.
func Round(amount decimal.Decimal, currency enums.Currency) decimal.Decimal {
	return amount.Round(currency.MinorUnitExponent())
}

const maxMinorUnits = int64(1) << 53
