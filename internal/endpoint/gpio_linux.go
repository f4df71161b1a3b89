//go:build linux

package endpoint

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const gpioConsumer = "two-point-controller"

// OpenSwitch requests the line at addr (device = chip name, attribute = offset)
// as an output, keeping whatever level it currently has.
func OpenSwitch(addr Address, on, off float64) (*Switch, error) {
	offset, err := lineOffset(addr)
	if err != nil {
		return nil, err
	}

	line, err := gpiocdev.RequestLine(addr.Device, offset, gpiocdev.AsInput, gpiocdev.WithConsumer(gpioConsumer))
	if err != nil {
		return nil, fmt.Errorf("request gpio %s: %w", addr, err)
	}
	current, err := line.Value()
	if err != nil {
		_ = line.Close()
		return nil, fmt.Errorf("read gpio %s: %w", addr, err)
	}
	if err := line.Reconfigure(gpiocdev.AsOutput(current)); err != nil {
		_ = line.Close()
		return nil, fmt.Errorf("configure gpio %s as output: %w", addr, err)
	}
	return NewSwitch(line, addr, on, off), nil
}
