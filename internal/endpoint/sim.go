package endpoint

import (
	"context"
	"sync"
	"time"

	"two_point_controller/internal/value"
)

// PlantParams describes the simulated thermal plant.
type PlantParams struct {
	AmbientC     float64 // temperature the plant drifts to when not heated
	InitialC     float64
	HeatCPerSec  float64 // rise while the actuator is at OnValue
	DriftCPerSec float64 // approach to ambient otherwise
	OnValue      float64
	OffValue     float64
	TextValues   bool // report values as text, like string-typed device attributes
}

// Plant is an in-process stand-in for a heater and its temperature sensor.
type Plant struct {
	params PlantParams

	mu        sync.Mutex
	tempC     float64
	actor     float64
	updatedAt time.Time
}

// NewPlant returns a plant at its initial temperature with the actuator off.
func NewPlant(p PlantParams, now time.Time) *Plant {
	return &Plant{
		params:    p,
		tempC:     p.InitialC,
		actor:     p.OffValue,
		updatedAt: now,
	}
}

// Run advances the plant on every tick until ctx is canceled.
func (p *Plant) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			p.Advance(now)
		}
	}
}

// Advance integrates the plant up to now.
func (p *Plant) Advance(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := now.Sub(p.updatedAt).Seconds()
	if elapsed <= 0 {
		return
	}
	p.updatedAt = now

	if p.actor == p.params.OnValue {
		p.tempC += p.params.HeatCPerSec * elapsed
		return
	}
	p.tempC = driftToward(p.tempC, p.params.AmbientC, p.params.DriftCPerSec*elapsed)
}

// Temperature returns the current plant temperature.
func (p *Plant) Temperature() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tempC
}

// Sensor returns the temperature attribute.
func (p *Plant) Sensor() Reader {
	return plantSensor{p}
}

// Actor returns the heater level attribute.
func (p *Plant) Actor() ReadWriter {
	return plantActor{p}
}

func (p *Plant) render(f float64) value.Value {
	if p.params.TextValues {
		return value.As(value.Text, f)
	}
	return value.Number(f)
}

type plantSensor struct{ p *Plant }

func (s plantSensor) Read(ctx context.Context) (value.Value, error) {
	if err := ctx.Err(); err != nil {
		return value.Value{}, err
	}
	return s.p.render(s.p.Temperature()), nil
}

type plantActor struct{ p *Plant }

func (a plantActor) Read(ctx context.Context) (value.Value, error) {
	if err := ctx.Err(); err != nil {
		return value.Value{}, err
	}
	a.p.mu.Lock()
	defer a.p.mu.Unlock()
	return a.p.render(a.p.actor), nil
}

func (a plantActor) Write(ctx context.Context, v value.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := v.Float()
	if err != nil {
		return err
	}
	a.p.mu.Lock()
	defer a.p.mu.Unlock()
	a.p.actor = f
	return nil
}

// driftToward moves cur toward target by at most step without overshooting.
func driftToward(cur, target, step float64) float64 {
	switch {
	case cur > target:
		return maxFloat(cur-step, target)
	case cur < target:
		return minFloat(cur+step, target)
	default:
		return cur
	}
}

func maxFloat(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a <= b {
		return a
	}
	return b
}
