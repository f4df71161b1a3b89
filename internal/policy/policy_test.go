package policy

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func gated() Policy {
	return Policy{
		Hysteresis:         0.5,
		MinControlInterval: 5 * time.Second,
		OffValue:           -10,
		OnValue:            10,
		Gated:              true,
	}
}

// settled is an input whose debounce window has long expired.
func settled(sensor, actor, target float64) Input {
	return Input{
		Sensor:        sensor,
		Actor:         actor,
		Target:        target,
		Enabled:       true,
		Now:           t0.Add(time.Hour),
		LastChangedAt: t0,
	}
}

func disabled(in Input) Input {
	in.Enabled = false
	return in
}

// at moves the evaluation to d after the last change.
func at(in Input, d time.Duration) Input {
	in.Now = in.LastChangedAt.Add(d)
	return in
}

func TestDecide_Scenarios(t *testing.T) {
	p := gated()

	cases := []struct {
		name      string
		in        Input
		wantKind  ActionKind
		wantLevel float64
		reason    string
	}{
		{
			name:      "A below target switches on",
			in:        settled(9.0, -10, 10.0),
			wantKind:  SetActor,
			wantLevel: 10,
		},
		{
			name:     "B inside band",
			in:       settled(10.3, -10, 10.0),
			wantKind: NoAction,
			reason:   ReasonInBand,
		},
		{
			name:     "C disabled ignores large difference",
			in:       disabled(settled(0.0, -10, 10.0)),
			wantKind: NoAction,
			reason:   ReasonDisabled,
		},
		{
			name:     "D debounced despite out of band",
			in:       at(settled(-100, -10, 10), 3*time.Second),
			wantKind: NoAction,
			reason:   ReasonDebounced,
		},
		{
			name:      "above target switches off",
			in:        settled(11.0, 10, 10.0),
			wantKind:  SetActor,
			wantLevel: -10,
		},
		{
			name:     "unset target",
			in:       settled(0, -10, TargetNoValue),
			wantKind: NoAction,
			reason:   ReasonNoTarget,
		},
		{
			name:     "already on",
			in:       settled(9.0, 10, 10.0),
			wantKind: NoAction,
			reason:   ReasonAlreadyDesired,
		},
		{
			name:      "exactly at band edge acts",
			in:        settled(9.5, -10, 10.0),
			wantKind:  SetActor,
			wantLevel: 10,
		},
		{
			name:      "debounce ends once the interval has fully elapsed",
			in:        at(settled(0, -10, 10), 5*time.Second),
			wantKind:  SetActor,
			wantLevel: 10,
		},
		{
			// An actuator read failure reports 0, which matches neither level.
			name:      "E zero actuator default still issues a write",
			in:        settled(0, 0, 10),
			wantKind:  SetActor,
			wantLevel: 10,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.Decide(tc.in)
			if got.Kind != tc.wantKind {
				t.Fatalf("kind = %v (%q), want %v", got.Kind, got.Reason, tc.wantKind)
			}
			if tc.wantKind == SetActor && got.Level != tc.wantLevel {
				t.Fatalf("level = %v, want %v", got.Level, tc.wantLevel)
			}
			if tc.wantKind == NoAction && got.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", got.Reason, tc.reason)
			}
		})
	}
}

func TestDecide_RuleOrder(t *testing.T) {
	p := gated()
	// Every guard fails at once: the sentinel check wins.
	in := Input{Target: TargetNoValue, Enabled: false, Now: t0, LastChangedAt: t0}
	if got := p.Decide(in); got.Reason != ReasonNoTarget {
		t.Fatalf("reason = %q, want %q", got.Reason, ReasonNoTarget)
	}
	in.Target = 10
	if got := p.Decide(in); got.Reason != ReasonDisabled {
		t.Fatalf("reason = %q, want %q", got.Reason, ReasonDisabled)
	}
	in.Enabled = true
	if got := p.Decide(in); got.Reason != ReasonDebounced {
		t.Fatalf("reason = %q, want %q", got.Reason, ReasonDebounced)
	}
}

func TestDecide_Ungated(t *testing.T) {
	p := gated()
	p.Gated = false

	// Without gating the sentinel is an ordinary, very low target and the
	// enable flag is ignored.
	in := disabled(settled(0, 10, TargetNoValue))
	got := p.Decide(in)
	if got.Kind != SetActor || got.Level != -10 {
		t.Fatalf("ungated policy should switch off, got %+v", got)
	}

	in.Actor = -10
	if got := p.Decide(in); got.Reason != ReasonAlreadyDesired {
		t.Fatalf("reason = %q, want %q", got.Reason, ReasonAlreadyDesired)
	}
}

func TestDecide_HysteresisBandProperty(t *testing.T) {
	p := gated()
	for _, target := range []float64{-50, 0, 10, 250.25} {
		for _, offset := range []float64{-0.49, -0.25, 0, 0.1, 0.499} {
			sensor := target + offset
			for _, actor := range []float64{-10, 10, 0} {
				got := p.Decide(settled(sensor, actor, target))
				if got.Difference != Difference(target, sensor) {
					t.Fatalf("difference = %v, want %v", got.Difference, target-sensor)
				}
				if got.Kind != NoAction || got.Reason != ReasonInBand {
					t.Fatalf("target=%v sensor=%v actor=%v: got %+v, want in-band no action", target, sensor, actor, got)
				}
			}
		}
	}
}

func TestDifference_Sign(t *testing.T) {
	if d := Difference(10, 9); d != 1 {
		t.Fatalf("Difference(10, 9) = %v", d)
	}
	if d := Difference(10, 10.3); d >= 0 {
		t.Fatalf("sensor above target must give a negative difference, got %v", d)
	}
}
