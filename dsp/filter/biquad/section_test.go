package biquad

import (
	"math"
	"math/cmplx"
	"testing"
)

// tolerance for floating-point comparisons.
const eps = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// lowpassLike is a stable second-order section used throughout the tests.
var lowpassLike = Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}

func TestNewSection(t *testing.T) {
	c := Coefficients{B0: 1, B1: 2, B2: 3, A1: 4, A2: 5}
	s := NewSection(c)
	if s.Coefficients != c {
		t.Fatalf("coefficients mismatch: got %v, want %v", s.Coefficients, c)
	}
	if st := s.State(); st != [2]float64{0, 0} {
		t.Fatalf("initial state not zero: %v", st)
	}
}

func TestProcessSample_Identity(t *testing.T) {
	s := NewSection(Identity)
	for i, x := range []float64{1, 0, -1, 0.5, 0.25} {
		if y := s.ProcessSample(x); !almostEqual(y, x, eps) {
			t.Errorf("sample %d: got %v, want %v", i, y, x)
		}
	}
}

func TestProcessSample_DFIIT(t *testing.T) {
	// Impulse through lowpassLike, traced by hand:
	//
	// n=0: y=0.25          w1=0.5+0.2*0.25=0.55    w2=0.25-0.04*0.25=0.24
	// n=1: y=0.55          w1=0.2*0.55+0.24=0.35   w2=-0.04*0.55=-0.022
	// n=2: y=0.35          w1=0.2*0.35-0.022=0.048 w2=-0.04*0.35=-0.014
	// n=3: y=0.048
	s := NewSection(lowpassLike)

	want := []float64{0.25, 0.55, 0.35, 0.048}
	for i, w := range want {
		var x float64
		if i == 0 {
			x = 1
		}
		if y := s.ProcessSample(x); !almostEqual(y, w, eps) {
			t.Errorf("sample %d: got %.15f, want %.15f", i, y, w)
		}
	}
}

func TestProcessBlock_MatchesSample(t *testing.T) {
	input := []float64{1, 0.5, -0.3, 0.7, 0, -1, 0.2, 0.8, -0.1}

	s1 := NewSection(lowpassLike)
	ref := make([]float64, len(input))
	for i, x := range input {
		ref[i] = s1.ProcessSample(x)
	}

	s2 := NewSection(lowpassLike)
	block := append([]float64(nil), input...)
	s2.ProcessBlock(block)

	for i := range block {
		if !almostEqual(block[i], ref[i], eps) {
			t.Errorf("sample %d: ProcessBlock=%.15f, ProcessSample=%.15f", i, block[i], ref[i])
		}
	}
	if s1.State() != s2.State() {
		t.Fatalf("state mismatch: %v vs %v", s1.State(), s2.State())
	}
}

func TestProcessSample_PureDelay(t *testing.T) {
	s := NewSection(Coefficients{B1: 1})
	input := []float64{1, 2, 3, 4, 5}
	want := []float64{0, 1, 2, 3, 4}
	for i, x := range input {
		if y := s.ProcessSample(x); !almostEqual(y, want[i], eps) {
			t.Errorf("sample %d: got %v, want %v", i, y, want[i])
		}
	}
}

func TestResetAndState(t *testing.T) {
	s := NewSection(lowpassLike)
	s.ProcessSample(1)
	s.ProcessSample(0.5)
	saved := s.State()
	if saved == [2]float64{0, 0} {
		t.Fatal("state should be non-zero after processing")
	}

	y3 := s.ProcessSample(-0.3)
	s.SetState(saved)
	if y := s.ProcessSample(-0.3); !almostEqual(y, y3, eps) {
		t.Errorf("after restore got %v, want %v", y, y3)
	}

	s.Reset()
	if st := s.State(); st != [2]float64{0, 0} {
		t.Fatalf("state not zero after reset: %v", st)
	}
}

func TestStable(t *testing.T) {
	tests := []struct {
		name string
		c    Coefficients
		want bool
	}{
		{name: "identity", c: Identity, want: true},
		{name: "lowpass", c: lowpassLike, want: true},
		{name: "a2 on circle", c: Coefficients{B0: 1, A2: 1}, want: false},
		{name: "a2 outside", c: Coefficients{B0: 1, A2: -1.2}, want: false},
		{name: "a1 too negative", c: Coefficients{B0: 1, A1: -1.6, A2: 0.5}, want: false},
		{name: "a1 too positive", c: Coefficients{B0: 1, A1: 1.6, A2: 0.5}, want: false},
		{name: "near boundary", c: Coefficients{B0: 1, A1: -1.98, A2: 0.985}, want: true},
		{name: "nan numerator", c: Coefficients{B0: math.NaN()}, want: false},
		{name: "inf feedback", c: Coefficients{B0: 1, A1: math.Inf(1)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Stable(); got != tt.want {
				t.Fatalf("Stable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProcessSample_StabilityLongRun(t *testing.T) {
	s := NewSection(lowpassLike)
	s.ProcessSample(1)

	for range 10000 {
		s.ProcessSample(0)
	}
	st := s.State()
	if math.Abs(st[0]) > 1e-100 || math.Abs(st[1]) > 1e-100 {
		t.Errorf("state did not decay: %v", st)
	}
}

func BenchmarkProcessBlock(b *testing.B) {
	s := NewSection(lowpassLike)
	buf := make([]float64, 128)
	for i := range buf {
		buf[i] = float64(i) * 0.001
	}
	b.SetBytes(int64(len(buf) * 8))
	for b.Loop() {
		s.ProcessBlock(buf)
	}
}

func TestStable_AgreesWithPoleRadius(t *testing.T) {
	for a1 := -2.5; a1 <= 2.5; a1 += 0.05 {
		for a2 := -1.5; a2 <= 1.5; a2 += 0.05 {
			c := Coefficients{B0: 1, A1: a1, A2: a2}
			r := poleRadius(c)
			// skip points too close to the boundary for the root solver
			if r > 0.999 && r < 1.001 {
				continue
			}
			if got, want := c.Stable(), r < 1; got != want {
				t.Fatalf("a1=%.2f a2=%.2f: Stable()=%v, pole radius %v", a1, a2, got, r)
			}
		}
	}
}

// poleRadius returns the largest root magnitude of z^2 + A1 z + A2.
func poleRadius(c Coefficients) float64 {
	d := cmplx.Sqrt(complex(c.A1*c.A1-4*c.A2, 0))
	p1 := (complex(-c.A1, 0) + d) / 2
	p2 := (complex(-c.A1, 0) - d) / 2
	return max(cmplx.Abs(p1), cmplx.Abs(p2))
}
