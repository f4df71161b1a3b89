package endpoint

import (
	"context"
	"errors"
	"testing"

	"two_point_controller/internal/value"
)

type fakeLine struct {
	v        int
	valueErr error
	setErr   error
	closed   bool
}

func (l *fakeLine) Value() (int, error) { return l.v, l.valueErr }
func (l *fakeLine) SetValue(v int) error {
	if l.setErr != nil {
		return l.setErr
	}
	l.v = v
	return nil
}
func (l *fakeLine) Close() error {
	l.closed = true
	return nil
}

func TestSwitch_ReadMapsLineToLevels(t *testing.T) {
	line := &fakeLine{}
	sw := NewSwitch(line, Address{Device: "gpiochip0", Attribute: "17"}, 10, -10)
	ctx := context.Background()

	v, err := sw.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f, _ := v.Float(); f != -10 {
		t.Fatalf("low line read %v, want -10", f)
	}

	line.v = 1
	v, _ = sw.Read(ctx)
	if f, _ := v.Float(); f != 10 {
		t.Fatalf("high line read %v, want 10", f)
	}

	line.valueErr = errors.New("io")
	if _, err := sw.Read(ctx); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestSwitch_Write(t *testing.T) {
	line := &fakeLine{}
	sw := NewSwitch(line, Address{Device: "gpiochip0", Attribute: "17"}, 10, -10)
	ctx := context.Background()

	if err := sw.Write(ctx, value.Number(10)); err != nil || line.v != 1 {
		t.Fatalf("on write: err=%v line=%d", err, line.v)
	}
	if err := sw.Write(ctx, value.String("-10")); err != nil || line.v != 0 {
		t.Fatalf("off write: err=%v line=%d", err, line.v)
	}
	if err := sw.Write(ctx, value.Number(3)); err == nil {
		t.Fatalf("expected error for a level that is neither on nor off")
	}
	line.setErr = errors.New("busy")
	if err := sw.Write(ctx, value.Number(10)); err == nil {
		t.Fatalf("expected set error")
	}
	if err := sw.Close(); err != nil || !line.closed {
		t.Fatalf("Close: err=%v closed=%v", err, line.closed)
	}
}

func TestLineOffset(t *testing.T) {
	if n, err := lineOffset(Address{Device: "gpiochip0", Attribute: "17"}); err != nil || n != 17 {
		t.Fatalf("lineOffset = %d, %v", n, err)
	}
	for _, bad := range []string{"", "x", "-1"} {
		if _, err := lineOffset(Address{Device: "gpiochip0", Attribute: bad}); err == nil {
			t.Fatalf("lineOffset(%q) should fail", bad)
		}
	}
}
