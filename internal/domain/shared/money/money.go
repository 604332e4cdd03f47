package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidAmount = errors.New("money: invalid amount")
	ErrNegative      = errors.New("money: amount must not be negative")
)

// Money keeps a single-currency amount in integer cents to avoid floating point issues.
type Money struct {
	Cents int64
}

func FromCents(cents int64) Money {
	return Money{Cents: cents}
}

// FromUnits builds an amount from whole currency units.
func FromUnits(units int64) Money {
	return Money{Cents: units * 100}
}

// Parse reads decimal strings such as "150", "150.5" or "150.50".
// More than two fractional digits are rejected rather than rounded.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	neg := false
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		s = s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" && !hasFrac {
		return Money{}, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	if !digits(whole) || !digits(frac) || len(frac) > 2 || (hasFrac && frac == "") {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents := w*100 + f
	if neg {
		cents = -cents
	}
	return Money{Cents: cents}, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Must parses and panics on failure; useful in tests and fixtures.
func Must(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

func (m Money) Multiply(times int64) Money {
	return Money{Cents: m.Cents * times}
}

// Div divides by n truncating toward zero; n must be positive.
func (m Money) Div(n int64) Money {
	if n <= 0 {
		return m
	}
	return Money{Cents: m.Cents / n}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

func (m Money) IsNegative() bool {
	return m.Cents < 0
}

func (m Money) Less(other Money) bool {
	return m.Cents < other.Cents
}

// Float is for presentation only.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100
}

func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
