//go:build !linux

package endpoint

import "errors"

// OpenSwitch is not available on non-Linux platforms.
func OpenSwitch(addr Address, on, off float64) (*Switch, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}
