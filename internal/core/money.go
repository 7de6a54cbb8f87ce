// Package core provides the domain model of the expense client: records,
// drafts, sessions, money parsing and the aggregation over loaded expenses.
package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in currency cents. Cents keep sums exact; floats are
// only used at the display boundary.
type Money struct {
	Cents int64
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Units returns the amount in whole currency units for display.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimals, e.g. "15.50".
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// ParseDecimalToCents converts form input to cents with half-up rounding
// on the third decimal place. Both dot and comma separators are accepted.
// Zero, negative and malformed values are rejected; this is the strict
// parser used for validating new expenses.
//
//	ParseDecimalToCents("12.34") -> 1234
//	ParseDecimalToCents("12,345") -> 1235 (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || units > math.MaxInt64/100 {
		return 0, ErrInvalidAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
	}
	if len(fracPart) > 1 {
		frac += int64(fracPart[1] - '0')
	}
	if len(fracPart) > 2 && fracPart[2] >= '5' {
		frac++
	}
	cents := units*100 + frac
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// DecimalToCents is the lenient parser for amounts coming back from the
// API: any finite decimal is accepted, including zero and negatives.
func DecimalToCents(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return int64(math.Round(f * 100.0)), true
}

// Amount is an expense amount as received from the API, which serializes
// it as either a JSON number or a decimal string. Values that do not
// parse as a finite decimal are kept verbatim, marked invalid, and count
// as zero in aggregates rather than failing the whole list.
type Amount struct {
	Raw   string
	Cents int64
	Valid bool
}

// AmountFromCents builds a valid Amount, mainly for fixtures and fakes.
func AmountFromCents(cents int64) Amount {
	return Amount{Raw: Money{Cents: cents}.String(), Cents: cents, Valid: true}
}

func (a Amount) Money() Money {
	return Money{Cents: a.Cents}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = Amount{}
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	cents, ok := DecimalToCents(raw)
	if !ok {
		cents = 0
	}
	*a = Amount{Raw: raw, Cents: cents, Valid: ok}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Valid {
		return []byte(Money{Cents: a.Cents}.String()), nil
	}
	return json.Marshal(a.Raw)
}
