// Package money provides a currency-tagged decimal amount used across the
// funding, task, and wallet contexts. Amounts never touch floats; arithmetic
// on mismatched currencies returns an error instead of silently mixing them.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is assumed when a caller supplies an amount without one.
const DefaultCurrency = "NGN"

var (
	ErrInvalidAmount    = errors.New("money: invalid amount")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrInvalidSplit     = errors.New("money: split count must be positive")
)

type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// FromString parses a decimal string amount. An empty currency falls back to
// DefaultCurrency; the amount is rounded to two decimal places.
func FromString(amount string, currency string) (Money, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{
		Amount:   parsed.Round(2),
		Currency: normalizeCurrency(currency),
	}, nil
}

func Zero(currency string) Money {
	return Money{
		Amount:   decimal.Zero,
		Currency: normalizeCurrency(currency),
	}
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Split divides the amount into count shares that sum exactly to the
// original. The remainder after even division is spread one minor unit at a
// time across the earliest shares.
func (m Money) Split(count int) ([]Money, error) {
	if count <= 0 {
		return nil, ErrInvalidSplit
	}
	total := m.Amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
	base := total / int64(count)
	remainder := total - base*int64(count)

	shares := make([]Money, 0, count)
	for i := 0; i < count; i++ {
		units := base
		if int64(i) < remainder {
			units++
		}
		shares = append(shares, Money{
			Amount:   decimal.New(units, -2),
			Currency: m.Currency,
		})
	}
	return shares, nil
}

// MinorUnits reports the amount in the currency's smallest unit, e.g. kobo
// for NGN. Payment gateways take amounts in minor units.
func (m Money) MinorUnits() int64 {
	return m.Amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}

// StringAmount renders the amount with two decimal places and no symbol.
func (m Money) StringAmount() string {
	return m.Amount.StringFixed(2)
}

// String renders the amount followed by its currency code.
func (m Money) String() string {
	return m.StringAmount() + " " + m.Currency
}

func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}

func normalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return DefaultCurrency
	}
	return currency
}
