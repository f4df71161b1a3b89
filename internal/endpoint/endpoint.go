// Package endpoint provides the sensor and actuator attribute drivers.
// Every driver reports values in its native representation; normalising to
// float64 is left to the caller.
package endpoint

import (
	"context"
	"errors"
	"fmt"

	"two_point_controller/internal/value"
)

var (
	// ErrNoValue is returned by drivers that have not observed a value yet.
	ErrNoValue = errors.New("endpoint has no value yet")
	// ErrStale is returned when the last observed value is too old to trust.
	ErrStale = errors.New("endpoint value is stale")
)

// Reader reads the current value of an attribute.
type Reader interface {
	Read(ctx context.Context) (value.Value, error)
}

// Writer writes a new value to an attribute.
type Writer interface {
	Write(ctx context.Context, v value.Value) error
}

// ReadWriter is an attribute that can be both read and written.
type ReadWriter interface {
	Reader
	Writer
}

// Address identifies an attribute on a device.
type Address struct {
	Device    string
	Attribute string
}

func (a Address) String() string {
	return a.Device + "/" + a.Attribute
}

func addrError(op string, a Address, err error) error {
	return fmt.Errorf("%s %s: %w", op, a, err)
}
