// Package phonemask constrains phone number entry to a fixed pattern and
// validates committed phone values.
package phonemask

import "regexp"

// DigitPlaceholder marks a position in a pattern that accepts one digit.
const DigitPlaceholder = '9'

// WhatsApp is the mask used for contact numbers: area code plus a
// nine-digit mobile number.
const WhatsApp = "(99) 99999-9999"

var (
	whatsAppPattern = regexp.MustCompile(`^\(\d{2}\) \d{5}-\d{4}$`)
	legacyPattern   = regexp.MustCompile(`^\d{10,11}$`)
)

// ValidWhatsApp reports whether s is a fully masked contact number such as
// "(11) 98765-4321".
func ValidWhatsApp(s string) bool {
	return whatsAppPattern.MatchString(s)
}

// ValidLegacyDigits reports whether s is a bare digit phone number as written
// by older clients. It is only used to classify stored values.
func ValidLegacyDigits(s string) bool {
	return legacyPattern.MatchString(s)
}

// Mask is a literal/placeholder pattern.
type Mask struct {
	pattern []rune
}

// NewMask builds a mask from pattern, where every DigitPlaceholder accepts a
// digit and every other rune is a literal.
func NewMask(pattern string) Mask {
	return Mask{pattern: []rune(pattern)}
}

// Len returns the number of runes in a complete value.
func (m Mask) Len() int { return len(m.pattern) }

// Apply lays the digits of input over the mask. Literals are emitted only up
// to the last digit placed; surplus digits are dropped.
func (m Mask) Apply(input string) string {
	f := m.NewField()
	for _, r := range input {
		if isDigit(r) {
			f.KeyPress(r)
		}
	}
	return f.Value()
}

// Complete reports whether v fills every position of the mask.
func (m Mask) Complete(v string) bool {
	rs := []rune(v)
	if len(rs) != len(m.pattern) {
		return false
	}
	for i, p := range m.pattern {
		if p == DigitPlaceholder {
			if !isDigit(rs[i]) {
				return false
			}
		} else if rs[i] != p {
			return false
		}
	}
	return true
}

// NewField returns an empty field bound to m.
func (m Mask) NewField() *Field {
	return &Field{mask: m}
}

// Field is a text field whose content always conforms to a prefix of its
// mask. The cursor sits at the end of the value.
type Field struct {
	mask  Mask
	value []rune
}

// Value returns the committed (masked) text.
func (f *Field) Value() string { return string(f.value) }

// KeyPress inserts r at the cursor. Literals pending before the next
// placeholder are inserted automatically. It returns false, leaving the
// field unchanged, when r would violate the pattern.
func (f *Field) KeyPress(r rune) bool {
	pos := len(f.value)
	pattern := f.mask.pattern
	if pos >= len(pattern) {
		return false
	}

	// Typing the literal itself is accepted at a literal position.
	if pattern[pos] != DigitPlaceholder && pattern[pos] == r {
		f.value = append(f.value, r)
		return true
	}

	next := pos
	for next < len(pattern) && pattern[next] != DigitPlaceholder {
		next++
	}
	if next == len(pattern) || !isDigit(r) {
		return false
	}

	f.value = append(f.value, pattern[pos:next]...)
	f.value = append(f.value, r)
	return true
}

// Backspace removes the last digit and any literals trailing before it.
func (f *Field) Backspace() {
	pattern := f.mask.pattern
	for len(f.value) > 0 {
		last := len(f.value) - 1
		f.value = f.value[:last]
		if pattern[last] == DigitPlaceholder {
			break
		}
	}
	// Strip literals left dangling at the end.
	for len(f.value) > 0 && pattern[len(f.value)-1] != DigitPlaceholder {
		f.value = f.value[:len(f.value)-1]
	}
}

// Paste replaces the content with the masked digits of s.
func (f *Field) Paste(s string) {
	f.value = []rune(f.mask.Apply(s))
}

// Set replaces the content with s when s conforms to a prefix of the mask and
// reports whether it did.
func (f *Field) Set(s string) bool {
	g := f.mask.NewField()
	for _, r := range s {
		if !g.KeyPress(r) {
			return false
		}
	}
	if g.Value() != s {
		return false
	}
	f.value = g.value
	return true
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
