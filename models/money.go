package models

import "fmt"

// Money represents a monetary amount in minor units (cents/paise).
type Money struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"` // ISO 4217, e.g. "USD"
}

// NewMoney builds a Money value in minor units.
func NewMoney(amountMinor int64, currency string) Money {
	return Money{AmountMinor: amountMinor, Currency: currency}
}

// Add returns m + other. Currencies must match.
func (m Money) Add(other Money) Money {
	return Money{AmountMinor: m.AmountMinor + other.AmountMinor, Currency: m.Currency}
}

// Sub returns m - other. Currencies must match.
func (m Money) Sub(other Money) Money {
	return Money{AmountMinor: m.AmountMinor - other.AmountMinor, Currency: m.Currency}
}

// GreaterThan reports whether m is strictly larger than other.
func (m Money) GreaterThan(other Money) bool {
	return m.AmountMinor > other.AmountMinor
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.AmountMinor < 0
}

// String renders the amount with two decimal places, e.g. "51.00 USD".
func (m Money) String() string {
	sign := ""
	v := m.AmountMinor
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, v/100, v%100, m.Currency)
}
