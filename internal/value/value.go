// Package value holds the tagged numeric/text value exchanged with sensor and
// actuator endpoints.
package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the native representation an endpoint uses for its value.
type Kind uint8

const (
	Numeric Kind = iota
	Text
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ErrNotNumber is returned when a text value does not parse as a number.
var ErrNotNumber = errors.New("value is not a number")

// Value is either a number or its textual representation.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Number wraps a numeric endpoint value.
func Number(f float64) Value {
	return Value{kind: Numeric, num: f}
}

// String wraps a textual endpoint value.
func String(s string) Value {
	return Value{kind: Text, text: s}
}

// As renders f in the given native kind.
func As(kind Kind, f float64) Value {
	if kind == Text {
		return String(FormatFloat(f))
	}
	return Number(f)
}

// FormatFloat renders f with the fewest digits that parse back to f.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (v Value) Kind() Kind { return v.kind }

// Float normalises the value to float64.
func (v Value) Float() (float64, error) {
	if v.kind == Numeric {
		return v.num, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, v.text)
	}
	return f, nil
}

// Text returns the textual form, formatting numbers as needed.
func (v Value) Text() string {
	if v.kind == Text {
		return v.text
	}
	return FormatFloat(v.num)
}

func (v Value) String() string {
	return v.kind.String() + ":" + v.Text()
}
