package money

import (
	"regexp"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		in   Amount
		want string
	}{
		{0, "R$ 0,00"},
		{5, "R$ 0,05"},
		{100, "R$ 1,00"},
		{69000, "R$ 690,00"},
		{123456, "R$ 1.234,56"},
		{6900000, "R$ 69.000,00"},
		{100000000, "R$ 1.000.000,00"},
		{-2550, "-R$ 25,50"},
	}

	for _, tc := range cases {
		if got := Format(tc.in); got != tc.want {
			t.Errorf("Format(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseDigits(t *testing.T) {
	cases := []struct {
		in      string
		want    Amount
		wantErr error
	}{
		{"69000", 69000, nil},
		{"000", 0, nil},
		{"0007", 7, nil},
		{"999999999999999", MaxAmount, nil},
		{"1000000000000000", 0, ErrTooLarge},
		{"00000000000000000000001", 1, nil},
		{"", 0, ErrEmpty},
	}

	for _, tc := range cases {
		got, err := ParseDigits(tc.in)
		if err != tc.wantErr {
			t.Errorf("ParseDigits(%q) error = %v, want %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDigits(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}

	if _, err := ParseDigits("12a"); err == nil {
		t.Error("ParseDigits should reject non-digit input")
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("R$ 1.234,56"); got != "123456" {
		t.Errorf("Digits = %q, want %q", got, "123456")
	}
	if got := Digits("--..abc"); got != "" {
		t.Errorf("Digits = %q, want empty", got)
	}
	if got := Digits("٣4"); got != "4" {
		t.Errorf("Digits should only keep ASCII digits, got %q", got)
	}
}

// Feature: car-showroom, Property 1: Formatted prices have one symbol, grouping and two decimals
func TestProperty_FormatShape(t *testing.T) {
	properties := gopter.NewProperties(nil)
	shape := regexp.MustCompile(`^R\$ \d{1,3}(\.\d{3})*,\d{2}$`)

	properties.Property("format renders symbol, grouped units and two fraction digits", prop.ForAll(
		func(n int64) bool {
			s := Format(Amount(n))
			if strings.Count(s, "R$") != 1 {
				return false
			}
			return shape.MatchString(s)
		},
		gen.Int64Range(0, int64(MaxAmount)),
	))

	properties.Property("format round-trips through Digits and ParseDigits", prop.ForAll(
		func(n int64) bool {
			back, err := ParseDigits(Digits(Format(Amount(n))))
			return err == nil && back == Amount(n)
		},
		gen.Int64Range(0, int64(MaxAmount)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
