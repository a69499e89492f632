package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a value object representing a dollar amount.
// It is immutable - all operations return new Money instances
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates Money from a decimal amount
func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return Money{amount: d}, nil
}

// NewMoneyFromFloat creates Money from a float64 value
func NewMoneyFromFloat(amount float64) Money {
	return Money{amount: decimal.NewFromFloat(amount)}
}

// Zero returns a zero Money
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Amount returns the underlying decimal
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Float64 returns the amount as a float64, for wire formats that need a number
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// Add returns m + other
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// MultiplyByInt returns m * n
func (m Money) MultiplyByInt(n int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(n)))}
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive reports whether the amount is greater than zero
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative reports whether the amount is less than zero
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Equals compares two amounts numerically
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// Fixed returns the amount rounded to cents without a symbol, e.g. "12.50"
func (m Money) Fixed() string {
	return m.amount.StringFixed(2)
}

// String returns the display form, e.g. "$12.50"
func (m Money) String() string {
	return "$" + m.Fixed()
}

// MarshalJSON encodes Money as a JSON number string with two decimals
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Fixed())
}

// UnmarshalJSON accepts both a JSON string and a JSON number
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid money: %w", err)
	}
	m.amount = d
	return nil
}
