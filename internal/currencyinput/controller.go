// Package currencyinput adapts raw keystroke text of a price field into a
// digit string for the form and a formatted string for display.
package currencyinput

import (
	"errors"
	"strings"

	"car-showroom/internal/money"
)

var (
	ErrPriceRequired = errors.New("price is required")
	ErrPriceZero     = errors.New("price cannot be zero")
	ErrPriceTooLarge = errors.New("price exceeds the maximum allowed value")
)

// State is the persistable state of a Controller.
type State struct {
	Display string `json:"display"`
	Seeded  bool   `json:"seeded"`
	Value   string `json:"value"`
	Error   string `json:"error,omitempty"`
}

// Controller holds the state of one price field instance.
type Controller struct {
	state    State
	err      error
	onChange func(value string)
}

// New creates a controller. onChange receives every value emitted upstream,
// which is always "" or a string of decimal digits.
func New(onChange func(value string)) *Controller {
	if onChange == nil {
		onChange = func(string) {}
	}
	return &Controller{onChange: onChange}
}

// Restore rebuilds a controller from a snapshot taken with Snapshot.
func Restore(s State, onChange func(value string)) *Controller {
	c := New(onChange)
	c.state = s
	c.err = errorFromMessage(s.Error)
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	return c.state
}

// Display returns the text shown in the field.
func (c *Controller) Display() string { return c.state.Display }

// Value returns the last value emitted upstream.
func (c *Controller) Value() string { return c.state.Value }

// Err returns the current validation error, if any.
func (c *Controller) Err() error { return c.err }

// OnExternalValue seeds the field from a persisted value. Only the first
// non-empty value is taken; later refreshes never overwrite user edits.
func (c *Controller) OnExternalValue(v string) {
	if v == "" || c.state.Seeded {
		return
	}
	c.state.Display = v
	c.state.Seeded = true
}

// OnKeystroke processes the full text of the field after a keystroke.
func (c *Controller) OnKeystroke(raw string) {
	digits := money.Digits(raw)

	if strings.TrimSpace(raw) == "" || digits == "" {
		c.state.Display = ""
		c.emit("")
		c.setErr(ErrPriceRequired)
		return
	}

	amount, err := money.ParseDigits(digits)
	if err != nil {
		c.setErr(ErrPriceTooLarge)
		return
	}

	c.state.Display = money.Format(amount)
	c.emit(digits)

	if amount == 0 {
		c.setErr(ErrPriceZero)
	} else {
		c.setErr(nil)
	}
}

// OnFocus shows a zero baseline in an empty field. Nothing is emitted.
func (c *Controller) OnFocus() {
	if c.state.Display == "" {
		c.state.Display = money.Format(0)
	}
}

func (c *Controller) emit(v string) {
	c.state.Value = v
	c.onChange(v)
}

func (c *Controller) setErr(err error) {
	c.err = err
	if err == nil {
		c.state.Error = ""
		return
	}
	c.state.Error = err.Error()
}

func errorFromMessage(msg string) error {
	for _, err := range []error{ErrPriceRequired, ErrPriceZero, ErrPriceTooLarge} {
		if err.Error() == msg {
			return err
		}
	}
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}
