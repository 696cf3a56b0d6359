package enums

import (
	"fmt"
	"strings"
)

// Currency represents supported settlement currencies.
type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
	CurrencyJPY Currency = "JPY"
)

var validCurrencies = []Currency{
	CurrencyINR,
	CurrencyUSD,
	CurrencyJPY,
}

// minorUnitExponent is the count of decimal places in the smallest unit.
var minorUnitExponent = map[Currency]int32{
	CurrencyINR: 2,
	CurrencyUSD: 2,
	CurrencyJPY: 0,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// MinorUnitExponent returns the decimal exponent of the currency's minor unit
// (2 for INR paise).
func (c Currency) MinorUnitExponent() int32 {
	if exp, ok := minorUnitExponent[c]; ok {
		return exp
	}
	return 2
}

// ParseCurrency converts a raw string into a Currency.
func ParseCurrency(value string) (Currency, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validCurrencies {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
