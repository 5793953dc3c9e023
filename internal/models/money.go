package models

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits carried by every monetary field.
const MoneyScale = 2

// maxMoney is the largest magnitude numeric(12,2) can store.
var maxMoney = decimal.RequireFromString("9999999999.99")

// Money is a fixed-point amount with two fractional digits. It is stored as
// numeric(12,2) and rendered as a string with exactly two decimals.
type Money struct {
	decimal.Decimal
}

// ZeroMoney returns 0.00.
func ZeroMoney() Money {
	return Money{Decimal: decimal.Zero}
}

// MustMoney parses s and panics on malformed input. Intended for fixtures.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MaxMoney returns 9999999999.99, the largest storable amount.
func MaxMoney() Money {
	return Money{Decimal: maxMoney}
}

// ParseMoney parses s as a fixed-point value with at most two fractional
// digits whose magnitude fits the storage column. Sign is not checked here.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return fromDecimal(d)
}

func fromDecimal(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Round(MoneyScale)) {
		return Money{}, errTooPrecise
	}
	m := Money{Decimal: d.Round(MoneyScale)}
	if !m.Storable() {
		return Money{}, errOutOfRange
	}
	return m, nil
}

// Storable reports whether m fits numeric(12,2).
func (m Money) Storable() bool {
	return m.Decimal.Abs().LessThanOrEqual(maxMoney)
}

func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

func (m Money) Sub(o Money) Money {
	return Money{Decimal: m.Decimal.Sub(o.Decimal)}
}

func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

func (m Money) LessThan(o Money) bool {
	return m.Decimal.LessThan(o.Decimal)
}

func (m Money) String() string {
	return m.Decimal.StringFixed(MoneyScale)
}

// MarshalJSON renders the amount as a quoted string, e.g. "100.00".
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	parsed, err := fromDecimal(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// SumMoney adds up the given amounts.
func SumMoney(amounts ...Money) Money {
	total := ZeroMoney()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

type moneyError string

func (e moneyError) Error() string { return string(e) }

const (
	errTooPrecise = moneyError("amount has more than two fractional digits")
	errOutOfRange = moneyError("amount exceeds 9999999999.99")
)
