// Package core provides money parsing and handling utilities.
//
// Amounts are Rupiah values held as decimals. They serialise as bare JSON
// numbers so exported snapshots stay compatible with the browser data the
// app was first fed with.
package core

import (
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var hundred = decimal.NewFromInt(100)

// Money is a Rupiah amount.
type Money struct {
	d decimal.Decimal
}

// NewMoney returns a whole-Rupiah amount.
func NewMoney(v int64) Money {
	return Money{d: decimal.NewFromInt(v)}
}

// MoneyFromFloat converts a float, mapping NaN and infinities to zero.
func MoneyFromFloat(f float64) Money {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}
	}
	return Money{d: decimal.NewFromFloat(f)}
}

// MoneyFromDecimal wraps a decimal value.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// ParseMoney parses a plain decimal string such as "1500000" or "10.5".
// Use ParseRupiah for display strings.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// Percent returns m * p / 100.
func (m Money) Percent(p float64) Money {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return Money{}
	}
	return Money{d: m.d.Mul(decimal.NewFromFloat(p)).Div(hundred)}
}

// Ratio returns m / o, or 0 when o is zero.
func (m Money) Ratio(o Money) float64 {
	if o.d.IsZero() {
		return 0
	}
	f, _ := m.d.Div(o.d).Float64()
	return f
}

// ClampZero floors negative amounts at zero.
func (m Money) ClampZero() Money {
	if m.d.IsNegative() {
		return Money{}
	}
	return m
}

func (m Money) IsZero() bool             { return m.d.IsZero() }
func (m Money) IsPositive() bool         { return m.d.IsPositive() }
func (m Money) IsNegative() bool         { return m.d.IsNegative() }
func (m Money) Cmp(o Money) int          { return m.d.Cmp(o.d) }
func (m Money) Equal(o Money) bool       { return m.d.Equal(o.d) }
func (m Money) LessThan(o Money) bool    { return m.d.LessThan(o.d) }
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }
func (m Money) Decimal() decimal.Decimal { return m.d }

// Float64 returns the amount as a float for display and external APIs.
// Calculations stay in decimal.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

func (m Money) String() string { return m.d.String() }

// Validate rejects zero and negative amounts.
func (m Money) Validate() error {
	if !m.d.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

// UnmarshalJSON accepts numbers, quoted numbers and null.
func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		m.d = decimal.Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return errors.Join(ErrInvalidAmount, err)
	}
	m.d = d
	return nil
}

// Sum adds up amounts.
func Sum(amounts ...Money) Money {
	total := Money{}
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

var (
	rupiahPrinter = message.NewPrinter(language.Indonesian)
	rupiahStrip   = regexp.MustCompile(`[^\d,-]`)
)

// FormatRupiah renders an amount the way id-ID currency formatting does:
// "Rp" followed by a no-break space and the amount rounded to whole
// Rupiah with "." as the thousands separator.
//
//	FormatRupiah(NewMoney(1000000)) -> "Rp 1.000.000"
func FormatRupiah(m Money) string {
	n := m.d.Round(0).IntPart()
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return sign + "Rp\u00a0" + rupiahPrinter.Sprintf("%d", n)
}

// ParseRupiah converts a display string back to an amount. Everything but
// digits, comma and minus is dropped and the first comma becomes the
// decimal point. Unparseable input yields zero.
//
//	ParseRupiah("Rp 10.000") -> 10000
//	ParseRupiah("10,50")     -> 10.5
func ParseRupiah(s string) Money {
	if s == "" {
		return Money{}
	}
	cleaned := strings.Replace(rupiahStrip.ReplaceAllString(s, ""), ",", ".", 1)
	d, err := decimal.NewFromString(leadingNumber(cleaned))
	if err != nil {
		return Money{}
	}
	return Money{d: d}
}

// leadingNumber keeps the longest numeric prefix, matching how a lenient
// float parser reads "10.5.3" or "12-3".
func leadingNumber(s string) string {
	end := 0
	seenDot := false
	for i, r := range s {
		switch {
		case r == '-' && i == 0:
		case r >= '0' && r <= '9':
		case r == '.' && !seenDot:
			seenDot = true
		default:
			return strings.TrimSuffix(s[:end], ".")
		}
		end = i + 1
	}
	return strings.TrimSuffix(s[:end], ".")
}
