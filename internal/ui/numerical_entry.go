package ui

import (
	"strings"

	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

// NumericalEntry is an Entry that only accepts digits, plus a single
// decimal point when AllowDecimal is set (feeding intervals such as "2.5").
type NumericalEntry struct {
	widget.Entry
	AllowDecimal bool
}

// NewNumericalEntry creates an entry accepting whole numbers.
func NewNumericalEntry() *NumericalEntry {
	entry := &NumericalEntry{}
	entry.ExtendBaseWidget(entry)
	return entry
}

// NewDecimalEntry creates an entry accepting one decimal point.
func NewDecimalEntry() *NumericalEntry {
	entry := NewNumericalEntry()
	entry.AllowDecimal = true
	return entry
}

// TypedRune filters keystrokes. Pasted text bypasses it and is checked by the Validator.
func (e *NumericalEntry) TypedRune(r rune) {
	switch {
	case r >= '0' && r <= '9':
		e.Entry.TypedRune(r)
	case r == '.' && e.AllowDecimal && !strings.Contains(e.Text, "."):
		e.Entry.TypedRune(r)
	}
}

// Keyboard requests the numeric keypad on mobile devices.
func (e *NumericalEntry) Keyboard() mobile.KeyboardType {
	return mobile.NumberKeyboard
}
