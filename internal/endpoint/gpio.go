package endpoint

import (
	"context"
	"fmt"
	"strconv"

	"two_point_controller/internal/value"
)

// Line is a single digital output line.
type Line interface {
	Value() (int, error)
	SetValue(v int) error
	Close() error
}

// Switch drives a two-level actuator through a digital line: the line is high
// exactly when the actuator is at the on level.
type Switch struct {
	line  Line
	addr  Address
	on    float64
	off   float64
	close func() error
}

// NewSwitch wraps an already requested output line.
func NewSwitch(line Line, addr Address, on, off float64) *Switch {
	return &Switch{line: line, addr: addr, on: on, off: off, close: line.Close}
}

// Read reports the on level when the line is high, the off level otherwise.
func (s *Switch) Read(ctx context.Context) (value.Value, error) {
	if err := ctx.Err(); err != nil {
		return value.Value{}, err
	}
	v, err := s.line.Value()
	if err != nil {
		return value.Value{}, addrError("read", s.addr, err)
	}
	if v != 0 {
		return value.Number(s.on), nil
	}
	return value.Number(s.off), nil
}

// Write sets the line high for the on level and low for the off level.
func (s *Switch) Write(ctx context.Context, v value.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := v.Float()
	if err != nil {
		return addrError("write", s.addr, err)
	}
	var raw int
	switch f {
	case s.on:
		raw = 1
	case s.off:
		raw = 0
	default:
		return addrError("write", s.addr, fmt.Errorf("level %v is neither on (%v) nor off (%v)", f, s.on, s.off))
	}
	if err := s.line.SetValue(raw); err != nil {
		return addrError("write", s.addr, err)
	}
	return nil
}

func (s *Switch) Close() error {
	return s.close()
}

// lineOffset parses the attribute part of a GPIO address as a line offset.
func lineOffset(a Address) (int, error) {
	n, err := strconv.Atoi(a.Attribute)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("gpio %s: attribute must be a line offset", a)
	}
	return n, nil
}
