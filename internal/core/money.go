// Package core holds the ledger aggregation and categorisation engine.
//
// Everything here is a pure function of a record set: vocabulary, display
// order, income/expense classification, summaries, the settlement check and
// the export projection. Stores and transports live elsewhere.
package core

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in the ledger currency, stored as integer cents so sums
// are exact and independent of folding order.
type Money struct {
	Cents int64
}

var ErrInvalidAmount = errors.New("invalid amount")

// MaxCents is the largest single amount the ledger accepts (100 billion
// currency units). Sums of fewer than 900k such records fit in int64.
const MaxCents int64 = 10_000_000_000_000

// Validate accepts amounts in [0, MaxCents].
func (m Money) Validate() error {
	if m.Cents < 0 || m.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m+o.
func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

// Sub returns m-o.
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Neg returns -m.
func (m Money) Neg() Money { return Money{Cents: -m.Cents} }

// Float returns the amount in currency units for display and spreadsheet cells.
// Use Cents for arithmetic.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount as "-12.34", dropping a zero fractional part.
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	units := strconv.FormatInt(cents/100, 10)
	rem := cents % 100
	if rem == 0 {
		return sign + units
	}
	frac := strconv.FormatInt(rem, 10)
	if rem < 10 {
		frac = "0" + frac
	}
	return sign + units + "." + strings.TrimSuffix(frac, "0")
}

// ParseAmount converts a decimal string to cents with half-up rounding.
//
// Dot (12.34) and comma (12,34) separators are accepted. Empty input,
// signs, non-digit characters and values above MaxCents are rejected
// with ErrInvalidAmount. Zero is a valid amount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234, nil
//	ParseAmount("12,345") -> 1235, nil
//	ParseAmount("0")      -> 0, nil
//	ParseAmount("")       -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if iv > MaxCents/100 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents > MaxCents {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// MoneyFromFloat converts a currency-unit float, as stored by document
// databases, to cents. Negative, non-finite or out-of-range values are
// rejected.
func MoneyFromFloat(f float64) (Money, error) {
	if f != f || f < 0 || f > float64(MaxCents)/100 {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Cents: int64(f*100.0 + 0.5)}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}
