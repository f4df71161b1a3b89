package value

import (
	"errors"
	"testing"
)

func TestFloat(t *testing.T) {
	cases := []struct {
		name    string
		in      Value
		want    float64
		wantErr bool
	}{
		{"number", Number(21.5), 21.5, false},
		{"text", String("21.5"), 21.5, false},
		{"text padded", String(" -10 \n"), -10, false},
		{"text exponent", String("1e3"), 1000, false},
		{"text garbage", String("warm"), 0, true},
		{"text empty", String(""), 0, true},
		{"text nan", String("NaN"), 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.in.Float()
			if tc.wantErr {
				if !errors.Is(err, ErrNotNumber) {
					t.Fatalf("err = %v, want ErrNotNumber", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAs_RoundTripsActorLevels(t *testing.T) {
	for _, level := range []float64{-10, 10, 0, 0.1, 1e-7, 123456789.125} {
		for _, kind := range []Kind{Numeric, Text} {
			v := As(kind, level)
			if v.Kind() != kind {
				t.Fatalf("As(%v, %v) kind = %v", kind, level, v.Kind())
			}
			back, err := v.Float()
			if err != nil {
				t.Fatalf("Float(%v): %v", v, err)
			}
			if back != level {
				t.Fatalf("round trip %v via %v gave %v", level, kind, back)
			}
		}
	}
}

func TestText(t *testing.T) {
	if got := Number(10).Text(); got != "10" {
		t.Fatalf("Number(10).Text() = %q", got)
	}
	if got := String("on").Text(); got != "on" {
		t.Fatalf("String(on).Text() = %q", got)
	}
	if got := Number(-0.5).String(); got != "numeric:-0.5" {
		t.Fatalf("String() = %q", got)
	}
}
