package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmount_Add(t *testing.T) {
	tests := []struct {
		name        string
		a, b        Amount
		want        Amount
		expectError bool
	}{
		{name: "positive", a: 100, b: 50, want: 150},
		{name: "mixed signs", a: 100, b: -150, want: -50},
		{name: "max boundary", a: math.MaxInt64 - 1, b: 1, want: math.MaxInt64},
		{name: "overflow", a: math.MaxInt64, b: 1, expectError: true},
		{name: "underflow", a: math.MinInt64, b: -1, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Add(tt.b)
			if tt.expectError {
				if !errors.Is(err, ErrAmountOverflow) {
					t.Fatalf("expected ErrAmountOverflow, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSumAmounts(t *testing.T) {
	sum, err := SumAmounts(100, -30, -70)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.IsZero() {
		t.Errorf("expected zero, got %d", sum)
	}

	if _, err := SumAmounts(math.MaxInt64, 1); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
}

func TestParseMajor(t *testing.T) {
	tests := []struct {
		value       string
		currency    string
		want        Amount
		expectError error
	}{
		{value: "12.34", currency: "USD", want: 1234},
		{value: "-0.01", currency: "EUR", want: -1},
		{value: "500", currency: "JPY", want: 500},
		{value: "25", currency: "CREDITS", want: 25},
		{value: "1.005", currency: "USD", expectError: ErrInvalidAmount},
		{value: "1.5", currency: "JPY", expectError: ErrInvalidAmount},
		{value: "abc", currency: "USD", expectError: ErrInvalidAmount},
		{value: "99999999999999999999", currency: "USD", expectError: ErrAmountOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.value+"_"+tt.currency, func(t *testing.T) {
			got, err := ParseMajor(tt.value, tt.currency)
			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestAmount_Major(t *testing.T) {
	if got := Amount(1234).FormatMajor("USD"); got != "12.34" {
		t.Errorf("expected 12.34, got %s", got)
	}
	if got := Amount(-5).FormatMajor("usd"); got != "-0.05" {
		t.Errorf("expected -0.05, got %s", got)
	}
	if got := Amount(700).FormatMajor("JPY"); got != "700" {
		t.Errorf("expected 700, got %s", got)
	}
	if !Amount(250).Major("EUR").Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("expected 2.5")
	}
}

func TestAmount_Signs(t *testing.T) {
	if !Amount(1).IsPositive() || Amount(1).IsNegative() {
		t.Error("1 should be positive")
	}
	if Amount(-3).Abs() != 3 || Amount(-3).Neg() != 3 {
		t.Error("abs/neg of -3 should be 3")
	}
	if !Amount(0).IsZero() {
		t.Error("0 should be zero")
	}
}
