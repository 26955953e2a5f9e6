package valueobjects

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySymbol is appended to every displayed amount. The bank runs a single currency.
const CurrencySymbol = "$"

// displayPrinter formats amounts with thousands separators.
var displayPrinter = message.NewPrinter(language.English)

// Money represents a monetary amount in the bank's currency.
// Uses decimal.Decimal for precise financial calculations.
type Money struct {
	Amount decimal.Decimal
}

// New creates a new Money instance.
func New(amount decimal.Decimal) Money {
	return Money{Amount: amount}
}

// NewFromString creates Money from a string amount.
func NewFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return New(d), nil
}

// NewFromInt creates Money from an integer (whole units).
func NewFromInt(amount int64) Money {
	return New(decimal.NewFromInt(amount))
}

// MustParse creates Money from a string, panicking on invalid input.
// Use only in tests or initialization code where panicking is acceptable.
func MustParse(amount string) Money {
	m, err := NewFromString(amount)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount.
func Zero() Money {
	return New(decimal.Zero)
}

// Add adds two Money values.
func (m Money) Add(other Money) Money {
	return New(m.Amount.Add(other.Amount))
}

// Subtract subtracts other from m.
func (m Money) Subtract(other Money) Money {
	return New(m.Amount.Sub(other.Amount))
}

// IsPositive returns true if amount > 0.
func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// IsNegative returns true if amount < 0.
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// IsZero returns true if amount == 0.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// GreaterThan returns true if m > other.
func (m Money) GreaterThan(other Money) bool {
	return m.Amount.GreaterThan(other.Amount)
}

// LessThan returns true if m < other.
func (m Money) LessThan(other Money) bool {
	return m.Amount.LessThan(other.Amount)
}

// Cmp compares m and other: -1 if m < other, 0 if equal, +1 if m > other.
func (m Money) Cmp(other Money) int {
	return m.Amount.Cmp(other.Amount)
}

// Equal returns true if both amounts are numerically equal (100 == 100.00).
func (m Money) Equal(other Money) bool {
	return m.Amount.Equal(other.Amount)
}

// String returns the amount with two fractional digits, e.g. "1234.50".
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}

// Display returns a human-readable amount with grouping, e.g. "1,234.50$".
func (m Money) Display() string {
	return displayPrinter.Sprintf("%.2f", m.Amount.Round(2).InexactFloat64()) + CurrencySymbol
}
