// Package types provides common type aliases and monetary utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// VATMultiplier converts a pre-tax amount into a tax-inclusive one.
// The VAT rate is fixed at 18% across the whole system.
var VATMultiplier = decimal.NewFromFloat(1.18)

// PaymentEpsilon is the auto-round window for payments: a payment
// closer than one currency unit to the exact remaining balance is
// rounded up to it, so invoices never keep a fractional residue.
var PaymentEpsilon = decimal.NewFromInt(1)

// Cent is the smallest representable settlement difference.
// A remaining balance below this is treated as fully paid.
var Cent = decimal.RequireFromString("0.01")

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromInt creates a Money value from an integer quantity.
func NewMoneyFromInt(n int64) Money {
	return decimal.NewFromInt(n)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Round2 rounds to two decimal places. All monetary comparisons in the
// payment ledger happen after Round2 on both sides.
func Round2(m Money) Money {
	return m.Round(2)
}

// WithVAT returns the tax-inclusive amount for a pre-tax total.
func WithVAT(preTax Money) Money {
	return preTax.Mul(VATMultiplier)
}
