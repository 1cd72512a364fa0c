package domain

import "github.com/shopspring/decimal"

// Converter converts an amount between two currencies.
// Implementations must be pure and total: they return the amount unchanged
// when from == to or when the pair is unknown.
type Converter interface {
	Convert(amount decimal.Decimal, from, to string) decimal.Decimal
}

// ConverterFunc adapts a plain function to the Converter interface
type ConverterFunc func(amount decimal.Decimal, from, to string) decimal.Decimal

// Convert calls f(amount, from, to)
func (f ConverterFunc) Convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	return f(amount, from, to)
}

// IdentityConverter returns every amount unchanged
type IdentityConverter struct{}

// Convert returns amount
func (IdentityConverter) Convert(amount decimal.Decimal, _, _ string) decimal.Decimal {
	return amount
}
