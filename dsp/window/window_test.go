package window

import (
	"errors"
	"math"
	"testing"
)

var allTypes = []Type{TypeRectangular, TypeHann, TypeHamming, TypeBlackman}

func TestGenerateFinite(t *testing.T) {
	for _, typ := range allTypes {
		t.Run(typ.String(), func(t *testing.T) {
			w := Generate(typ, 64, WithPeriodic())
			if len(w) != 64 {
				t.Fatalf("len=%d, want 64", len(w))
			}

			for i, v := range w {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("coefficient[%d] invalid: %v", i, v)
				}
			}
		})
	}
}

func TestPeriodicDiffersFromSymmetric(t *testing.T) {
	a := Generate(TypeHann, 16)
	b := Generate(TypeHann, 16, WithPeriodic())

	if almostEqual(a[15], b[15], 1e-12) {
		t.Fatal("expected different end coefficient for periodic form")
	}
}

func TestApplyCoefficientsTo(t *testing.T) {
	samples := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]float64, len(samples))

	if err := ApplyCoefficientsTo(dst, samples, Generate(TypeRectangular, 8)); err != nil {
		t.Fatal(err)
	}

	for i, v := range dst {
		if v != samples[i] {
			t.Fatalf("rectangular should be passthrough at %d: %v", i, v)
		}
	}

	if err := ApplyCoefficientsTo(dst, samples, Generate(TypeHann, 8)); err != nil {
		t.Fatal(err)
	}

	if dst[0] != 0 {
		t.Fatalf("hann first sample should be 0, got %v", dst[0])
	}

	if samples[0] != 1 {
		t.Fatalf("source modified: %v", samples[0])
	}
}

func TestApplyCoefficientsToAliased(t *testing.T) {
	samples := []float64{1, 2, 3}

	if err := ApplyCoefficientsTo(samples, samples, []float64{0.5, 0.5, 0.5}); err != nil {
		t.Fatal(err)
	}

	if !almostEqual(samples[1], 1.0, 1e-12) {
		t.Fatalf("samples[1]=%v", samples[1])
	}
}

func TestCoherentGainPeriodic(t *testing.T) {
	// A periodic cosine-sum window has coherent gain equal to its a0 term.
	tests := map[Type]float64{
		TypeRectangular: 1,
		TypeHann:        0.5,
		TypeHamming:     0.54,
		TypeBlackman:    0.42,
	}

	for typ, want := range tests {
		got, err := CoherentGain(Generate(typ, 1024, WithPeriodic()))
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}

		if !almostEqual(got, want, 1e-12) {
			t.Fatalf("%s: coherent gain=%v, want %v", typ, got, want)
		}
	}
}

func TestAnalyzeENBW(t *testing.T) {
	a := Analyze(Generate(TypeHann, 2048, WithPeriodic()))
	if !almostEqual(a.ENBW, 1.5, 1e-9) {
		t.Fatalf("hann ENBW=%v, want 1.5", a.ENBW)
	}
}

func TestAnalyzeSidelobes(t *testing.T) {
	tests := []struct {
		typ      Type
		min, max float64
	}{
		{TypeRectangular, -14, -12.5},
		{TypeHann, -32.5, -30.5},
		{TypeHamming, -44, -40},
		{TypeBlackman, -60, -55},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			a := Analyze(Generate(tt.typ, 64))
			if a.HighestSidelobedB < tt.min || a.HighestSidelobedB > tt.max {
				t.Fatalf("sidelobe=%.2f dB, want in [%.1f, %.1f]", a.HighestSidelobedB, tt.min, tt.max)
			}

			if a.FirstMinimumBins <= 0 {
				t.Fatalf("first minimum=%v", a.FirstMinimumBins)
			}
		})
	}
}

func TestGoldenVectors(t *testing.T) {
	hannExpected := []float64{
		0.0, 0.1882550990706332, 0.6112604669781572, 0.9504844339512095,
		0.9504844339512095, 0.6112604669781573, 0.1882550990706333, 0.0,
	}
	hammingExpected := []float64{
		0.08, 0.25319469114498255, 0.6423596296199047, 0.9544456792351128,
		0.9544456792351128, 0.6423596296199048, 0.25319469114498266, 0.08,
	}
	blackmanExpected := []float64{
		0, 0.09045342435412804, 0.45918295754596355, 0.9203636180999081,
		0.9203636180999083, 0.45918295754596383, 0.09045342435412812, 0,
	}

	checkGolden(t, Generate(TypeHann, 8), hannExpected, 1e-10)
	checkGolden(t, Generate(TypeHamming, 8), hammingExpected, 1e-10)
	checkGolden(t, Generate(TypeBlackman, 8), blackmanExpected, 1e-10)
}

func TestParseType(t *testing.T) {
	for _, typ := range allTypes {
		got, err := ParseType(typ.String())
		if err != nil || got != typ {
			t.Fatalf("ParseType(%q) = %v, %v", typ.String(), got, err)
		}
	}

	if got, err := ParseType(" Hanning "); err != nil || got != TypeHann {
		t.Fatalf("alias: %v, %v", got, err)
	}

	if _, err := ParseType("kaiser"); !errors.Is(err, errUnknownType) {
		t.Fatalf("err=%v, want errUnknownType", err)
	}
}

func TestValidationAndEdgeCases(t *testing.T) {
	if got := Generate(TypeHann, 0); got != nil {
		t.Fatalf("expected nil for zero length, got %v", got)
	}

	if got := Generate(TypeHann, 1); len(got) != 1 || got[0] != 0 {
		t.Fatalf("single-point hann=%v", got)
	}

	if _, err := CoherentGain(nil); !errors.Is(err, errEmptyCoeffs) {
		t.Fatalf("err=%v", err)
	}

	if _, err := CoherentGain([]float64{0, 0, 0}); !errors.Is(err, errZeroCoherentGain) {
		t.Fatalf("err=%v", err)
	}

	err := ApplyCoefficientsTo(make([]float64, 2), []float64{1, 2}, []float64{1})
	if !errors.Is(err, errMismatchedLength) {
		t.Fatalf("err=%v, want mismatch", err)
	}

	err = ApplyCoefficientsTo(make([]float64, 3), []float64{1, 2}, []float64{1, 1})
	if !errors.Is(err, errMismatchedLength) {
		t.Fatalf("err=%v, want mismatch for short dst", err)
	}
}

func checkGolden(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("len mismatch got=%d want=%d", len(got), len(want))
	}

	for i := range got {
		if !almostEqual(got[i], want[i], tol) {
			t.Fatalf("index %d: got=%.16f want=%.16f", i, got[i], want[i])
		}
	}
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
