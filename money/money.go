// Package money is the single chokepoint for monetary amounts. Amounts enter
// as strings, live as exact scale-2 decimals, and persist as numeric(12,2).
// No binary floating point between validation and persistence.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

const scale = 2

// Validation failures, one distinct reason per rule.
var (
	ErrRequired      = errors.New("amount is required")
	ErrInvalidFormat = errors.New("amount must be a plain decimal with at most two fractional digits")
	ErrNotPositive   = errors.New("amount must be greater than zero")
	ErrTooLarge      = errors.New("amount must not exceed 10000000")
)

// amountPattern is the wire format: no sign, no exponent, no separators,
// no surrounding whitespace, optional 1-2 fractional digits.
var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

var (
	// ceiling is the business-level maximum; it always wins over the
	// structural numeric(12,2) cap of 9999999999.99.
	ceiling   = decimal.NewFromInt(10_000_000)
	magnitude = decimal.RequireFromString("9999999999.99")
)

// Validate applies the input rules in a fixed order:
// required, format, positivity, ceiling. The first violated rule wins.
func Validate(raw string) error {
	if raw == "" {
		return ErrRequired
	}
	if !amountPattern.MatchString(raw) {
		return ErrInvalidFormat
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return ErrInvalidFormat
	}
	if d.GreaterThan(magnitude) {
		return ErrTooLarge
	}
	if !d.IsPositive() {
		return ErrNotPositive
	}
	if d.GreaterThan(ceiling) {
		return ErrTooLarge
	}
	return nil
}

// Reason maps a validation failure to a stable machine-checkable code.
func Reason(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrRequired):
		return "required", true
	case errors.Is(err, ErrInvalidFormat):
		return "invalid_format", true
	case errors.Is(err, ErrNotPositive):
		return "not_positive", true
	case errors.Is(err, ErrTooLarge):
		return "too_large", true
	}
	return "", false
}

// Amount is an exact decimal with scale 2. The zero value is 0.00.
type Amount struct {
	d decimal.Decimal
}

// Parse validates raw and returns it as an exact decimal.
func Parse(raw string) (Amount, error) {
	if err := Validate(raw); err != nil {
		return Amount{}, err
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Amount{}, ErrInvalidFormat
	}
	return Amount{d: d}, nil
}

// String renders with exactly two fractional digits ("5" parses to "5.00").
func (a Amount) String() string {
	return a.d.StringFixed(scale)
}

// Decimal exposes the underlying exact value for arithmetic.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// Add returns a + b without leaving exact decimal arithmetic.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Equal reports numeric equality (5.1 == 5.10).
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// Sum accumulates amounts in exact decimal arithmetic.
func Sum(amounts []Amount) Amount {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.d)
	}
	return Amount{d: total}
}

// MarshalJSON emits the amount as a string to keep floats off the wire.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrInvalidFormat
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	a.d = parsed.d
	return nil
}

// Value sends the amount to the database as its exact string form.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan reads a numeric column back without a float64 round trip for the
// string/byte forms drivers normally produce.
func (a *Amount) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("money: scan: %w", err)
	}
	a.d = d
	return nil
}

// GormDataType pins the column type the migrator enforces.
func (Amount) GormDataType() string {
	return "numeric(12,2)"
}
