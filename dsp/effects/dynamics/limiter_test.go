package dynamics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-micstrip/internal/testutil"
)

func TestNewLimiterFallbacks(t *testing.T) {
	tests := []struct {
		name string
		in   LimiterParams
		want LimiterParams
	}{
		{"defaults", DefaultLimiterParams(), DefaultLimiterParams()},
		{"zero threshold", LimiterParams{Threshold: 0, AttackMs: 3, ReleaseMs: 150}, LimiterParams{Threshold: 0.9, AttackMs: 3, ReleaseMs: 150}},
		{"threshold above one", LimiterParams{Threshold: 1.5, AttackMs: 3, ReleaseMs: 150}, LimiterParams{Threshold: 0.9, AttackMs: 3, ReleaseMs: 150}},
		{"zero times", LimiterParams{Threshold: 0.5}, LimiterParams{Threshold: 0.5, AttackMs: 5, ReleaseMs: 100}},
		{"tiny threshold clamps", LimiterParams{Threshold: 1e-6, AttackMs: 500, ReleaseMs: 1e5}, LimiterParams{Threshold: 1e-3, AttackMs: 100, ReleaseMs: 5000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLimiter(fs, tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got := l.Snapshot(); got != tt.want {
				t.Fatalf("Snapshot() = %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, err := NewLimiter(-1, DefaultLimiterParams()); err == nil {
		t.Fatal("expected error for negative sample rate")
	}
	if _, err := NewLimiter(fs, LimiterParams{Threshold: math.NaN(), AttackMs: 1, ReleaseMs: 1}); err == nil {
		t.Fatal("expected error for NaN threshold")
	}
}

func TestLimiterStepSettlesAtThreshold(t *testing.T) {
	for _, thr := range []float64{0.2, 0.5, 0.9} {
		l, err := NewLimiter(fs, LimiterParams{Threshold: thr, AttackMs: 1, ReleaseMs: 100})
		if err != nil {
			t.Fatal(err)
		}
		tau := int(fs * 0.001)

		for range 100 {
			l.Process(0, 0)
		}

		x := 2 * thr
		var y float64
		for range 10 * tau {
			y = l.Process(x, math.Abs(x))
		}
		if y > thr*(1+1e-3) {
			t.Fatalf("thr=%v: output %v exceeds %v after 10 attack time constants", thr, y, thr*(1+1e-3))
		}

		// It keeps holding the ceiling while the step persists.
		for range 1000 {
			y = l.Process(x, math.Abs(x))
			if y > thr*(1+1e-3) {
				t.Fatalf("thr=%v: output %v exceeds ceiling", thr, y)
			}
		}
		testutil.RequireNearlyEqual(t, "settled output", y, thr, 1e-6)
	}
}

func TestLimiterTransparentBelowThreshold(t *testing.T) {
	l, _ := NewLimiter(fs, DefaultLimiterParams())
	for _, x := range testutil.DeterministicSine(440, fs, 0.5, 1000) {
		if y := l.Process(x, math.Abs(x)); y != x {
			t.Fatalf("Process(%v) = %v, want passthrough", x, y)
		}
	}
}

func TestLimiterReleaseRecovers(t *testing.T) {
	l, _ := NewLimiter(fs, LimiterParams{Threshold: 0.5, AttackMs: 1, ReleaseMs: 10})
	for range 4800 {
		l.Process(1, 1)
	}
	if g := l.Gain(); math.Abs(g-0.5) > 1e-6 {
		t.Fatalf("Gain() = %v, want 0.5", g)
	}
	for range 9600 {
		l.Process(0.1, 0.1)
	}
	testutil.RequireNearlyEqual(t, "recovered gain", l.Gain(), 1, 1e-6)
}
