// Package policy implements the two-point switching decision.
package policy

import (
	"math"
	"time"
)

// TargetNoValue is the setpoint sentinel meaning "no target set".
const TargetNoValue = -999999999.0

// Reasons reported with NoAction.
const (
	ReasonNoTarget       = "no target set"
	ReasonDisabled       = "disabled"
	ReasonDebounced      = "debounced"
	ReasonInBand         = "within hysteresis band"
	ReasonAlreadyDesired = "already at desired level"
)

// ActionKind distinguishes a no-op from a level change.
type ActionKind uint8

const (
	NoAction ActionKind = iota
	SetActor
)

func (k ActionKind) String() string {
	if k == SetActor {
		return "set_actor"
	}
	return "no_action"
}

// Action is the outcome of one evaluation.
type Action struct {
	Kind       ActionKind
	Level      float64 // valid for SetActor
	Reason     string  // valid for NoAction
	Difference float64 // target - sensor, zero when not computed
}

// Policy holds the immutable switching parameters.
type Policy struct {
	Hysteresis         float64
	MinControlInterval time.Duration
	OffValue           float64
	OnValue            float64
	// Gated enables the target-sentinel and enable-flag checks. The fixed-target
	// variant runs ungated.
	Gated bool
}

// Input is one observation of the controlled system.
type Input struct {
	Sensor        float64
	Actor         float64
	Target        float64
	Enabled       bool
	Now           time.Time
	LastChangedAt time.Time
}

// Difference is reference minus measurement; positive means the sensor is below target.
func Difference(target, sensor float64) float64 {
	return target - sensor
}

// Decide applies the rules in order; the first applicable rule wins.
// The debounce guard precedes the hysteresis check, so a long minimum interval
// can keep the sensor out of band until it expires.
func (p Policy) Decide(in Input) Action {
	if p.Gated && in.Target == TargetNoValue {
		return noAction(ReasonNoTarget, 0)
	}
	if p.Gated && !in.Enabled {
		return noAction(ReasonDisabled, 0)
	}
	if in.Now.Sub(in.LastChangedAt) < p.MinControlInterval {
		return noAction(ReasonDebounced, 0)
	}

	diff := Difference(in.Target, in.Sensor)
	if math.Abs(diff) < p.Hysteresis {
		return noAction(ReasonInBand, diff)
	}

	desired := p.OffValue
	if diff > 0 {
		desired = p.OnValue
	}
	if in.Actor == desired {
		return noAction(ReasonAlreadyDesired, diff)
	}
	return Action{Kind: SetActor, Level: desired, Difference: diff}
}

func noAction(reason string, diff float64) Action {
	return Action{Kind: NoAction, Reason: reason, Difference: diff}
}
