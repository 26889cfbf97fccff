package money

import (
	"errors"
	"strconv"
	"strings"
)

// Amount is a price in minor currency units (centavos for BRL).
type Amount int64

// MaxAmount is the largest amount accepted from user input. Fifteen digits
// keep every value exactly representable as a float64 on the client side.
const MaxAmount Amount = 999_999_999_999_999

var (
	ErrEmpty    = errors.New("amount is empty")
	ErrTooLarge = errors.New("amount exceeds maximum")
)

// Locale describes how an amount is rendered.
type Locale struct {
	Symbol     string
	GroupSep   string
	DecimalSep string
}

// BRL renders amounts the way pt-BR displays reais.
var BRL = Locale{Symbol: "R$", GroupSep: ".", DecimalSep: ","}

// Format renders a using the BRL locale, e.g. 6900000 -> "R$ 69.000,00".
func Format(a Amount) string {
	return BRL.Format(a)
}

// Format renders a as "<symbol> <grouped units><decimal sep><2 digits>".
func (l Locale) Format(a Amount) string {
	neg := a < 0
	// Work in uint64 so the minimum int64 does not overflow on negation.
	u := uint64(a)
	if neg {
		u = uint64(-(a + 1)) + 1
	}

	units := strconv.FormatUint(u/100, 10)
	cents := u % 100

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(l.Symbol)
	b.WriteByte(' ')

	lead := len(units) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(units[:lead])
	for i := lead; i < len(units); i += 3 {
		b.WriteString(l.GroupSep)
		b.WriteString(units[i : i+3])
	}

	b.WriteString(l.DecimalSep)
	b.WriteByte(byte('0' + cents/10))
	b.WriteByte(byte('0' + cents%10))
	return b.String()
}

// Digits strips every non-digit rune from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseDigits converts a string of ASCII digits into an Amount.
// Leading zeros are allowed; anything above MaxAmount is rejected before
// conversion so no arithmetic ever overflows.
func ParseDigits(d string) (Amount, error) {
	if d == "" {
		return 0, ErrEmpty
	}
	for _, r := range d {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}

	trimmed := strings.TrimLeft(d, "0")
	if trimmed == "" {
		return 0, nil
	}
	if len(trimmed) > 15 {
		return 0, ErrTooLarge
	}

	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, err
	}
	if Amount(n) > MaxAmount {
		return 0, ErrTooLarge
	}
	return Amount(n), nil
}

// String returns the digits of a, the representation exchanged with clients.
func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}
