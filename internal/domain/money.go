package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a signed quantity in a currency's smallest unit.
// Positive amounts are debits (increase), negative amounts are credits (decrease).
type Amount int64

// Neg returns the negated amount.
func (a Amount) Neg() Amount { return -a }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// IsPositive reports whether the amount is greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

// IsNegative reports whether the amount is less than zero.
func (a Amount) IsNegative() bool { return a < 0 }

// Abs returns the absolute value of the amount.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Int64 returns the raw minor-unit value.
func (a Amount) Int64() int64 { return int64(a) }

func (a Amount) String() string { return strconv.FormatInt(int64(a), 10) }

// Add returns a+b, failing with ErrAmountOverflow instead of wrapping around.
func (a Amount) Add(b Amount) (Amount, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, fmt.Errorf("%w: %d + %d", ErrAmountOverflow, a, b)
	}
	return a + b, nil
}

// Major converts the amount to major units of the given currency (e.g. cents to dollars).
func (a Amount) Major(currency string) decimal.Decimal {
	return decimal.NewFromInt(int64(a)).Shift(-int32(CurrencyExponent(currency)))
}

// FormatMajor renders the amount in major units with the currency's fixed precision.
func (a Amount) FormatMajor(currency string) string {
	return a.Major(currency).StringFixed(int32(CurrencyExponent(currency)))
}

// SumAmounts adds amounts with overflow detection.
func SumAmounts(amounts ...Amount) (Amount, error) {
	var total Amount
	for _, a := range amounts {
		var err error
		total, err = total.Add(a)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// ParseMajor parses a major-unit decimal string ("12.34") into minor units of currency.
// Values with more precision than the currency supports are rejected.
func ParseMajor(value, currency string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, err)
	}
	return FromMajor(d, currency)
}

// FromMajor converts a major-unit decimal into minor units of currency.
func FromMajor(d decimal.Decimal, currency string) (Amount, error) {
	minor := d.Shift(int32(CurrencyExponent(currency)))
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more precision than %s allows", ErrInvalidAmount, d, currency)
	}
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || minor.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOverflow, d)
	}
	return Amount(minor.IntPart()), nil
}

// Currencies without a minor unit. Internal units such as CREDITS are whole numbers too.
var zeroExponentCurrencies = map[string]bool{
	"JPY":     true,
	"KRW":     true,
	"VND":     true,
	"CLP":     true,
	"PYG":     true,
	"IDR":     true,
	"CREDITS": true,
}

// CurrencyExponent returns the number of decimal places between major and minor units.
func CurrencyExponent(currency string) int {
	c := NormalizeCurrency(currency)
	if zeroExponentCurrencies[c] {
		return 0
	}
	if _, ok := validCurrencies[c]; ok {
		return 2
	}
	return 0
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}
