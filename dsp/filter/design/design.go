package design

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-micstrip/dsp/filter/biquad"
)

// ErrUnstableDesign is returned by Design when the computed section fails
// the stability test. It wraps biquad.ErrUnstable.
var ErrUnstableDesign = fmt.Errorf("design: %w", biquad.ErrUnstable)

// ErrInvalidSampleRate is returned for non-positive or non-finite rates.
var ErrInvalidSampleRate = errors.New("design: sample rate must be positive and finite")

// a0Epsilon is the smallest |a0| accepted by normalization; smaller values
// are replaced by ±a0Epsilon keeping their sign.
const a0Epsilon = 1e-12

// Design clamps p against sampleRate, computes the matching RBJ section and
// verifies its stability. Unstable results yield ErrUnstableDesign and the
// zero Coefficients value.
func Design(p Params, sampleRate float64) (biquad.Coefficients, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return biquad.Coefficients{}, ErrInvalidSampleRate
	}

	p, _ = p.Clamp(sampleRate)

	var c biquad.Coefficients
	switch p.Shape {
	case LowPass:
		c = Lowpass(p.FreqHz, p.Q, sampleRate)
	case HighPass:
		c = Highpass(p.FreqHz, p.Q, sampleRate)
	case BandPass:
		c = Bandpass(p.FreqHz, p.Q, sampleRate)
	case Peaking:
		c = Peak(p.FreqHz, p.GainDB, p.Q, sampleRate)
	case LowShelf:
		c = LowShelfFilter(p.FreqHz, p.GainDB, p.Q, sampleRate)
	case HighShelf:
		c = HighShelfFilter(p.FreqHz, p.GainDB, p.Q, sampleRate)
	default:
		return biquad.Coefficients{}, fmt.Errorf("%w: %d", ErrUnknownShape, int(p.Shape))
	}

	if !c.Stable() {
		return biquad.Coefficients{}, fmt.Errorf("%w: %s fc=%.1fHz Q=%.2f a1=%.4f a2=%.4f",
			ErrUnstableDesign, p.Shape, p.FreqHz, p.Q, c.A1, c.A2)
	}

	return c, nil
}

type rbj struct {
	cw, sw, alpha float64
}

func newRBJ(freq, q, sampleRate float64) rbj {
	w0 := 2 * math.Pi * freq / sampleRate
	sw := math.Sin(w0)
	return rbj{cw: math.Cos(w0), sw: sw, alpha: sw / (2 * q)}
}

// Lowpass designs a second-order lowpass at freq (Hz) with quality factor q.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	r := newRBJ(freq, q, sampleRate)

	b0 := (1 - r.cw) / 2
	b1 := 1 - r.cw
	b2 := (1 - r.cw) / 2
	a0 := 1 + r.alpha
	a1 := -2 * r.cw
	a2 := 1 - r.alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// Highpass designs a second-order highpass at freq (Hz) with quality factor q.
func Highpass(freq, q, sampleRate float64) biquad.Coefficients {
	r := newRBJ(freq, q, sampleRate)

	b0 := (1 + r.cw) / 2
	b1 := -(1 + r.cw)
	b2 := (1 + r.cw) / 2
	a0 := 1 + r.alpha
	a1 := -2 * r.cw
	a2 := 1 - r.alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// Bandpass designs a constant 0 dB peak gain bandpass centered at freq.
func Bandpass(freq, q, sampleRate float64) biquad.Coefficients {
	r := newRBJ(freq, q, sampleRate)

	b0 := r.alpha
	b1 := 0.0
	b2 := -r.alpha
	a0 := 1 + r.alpha
	a1 := -2 * r.cw
	a2 := 1 - r.alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// Peak designs a peaking-EQ section with gain in dB.
func Peak(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	r := newRBJ(freq, q, sampleRate)
	a := math.Pow(10, gainDB/40)

	b0 := 1 + r.alpha*a
	b1 := -2 * r.cw
	b2 := 1 - r.alpha*a
	a0 := 1 + r.alpha/a
	a1 := -2 * r.cw
	a2 := 1 - r.alpha/a

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// LowShelfFilter designs a low-shelf section with gain in dB.
func LowShelfFilter(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	r := newRBJ(freq, q, sampleRate)
	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * r.alpha
	cw := r.cw

	b0 := a * ((a + 1) - (a-1)*cw + beta)
	b1 := 2 * a * ((a - 1) - (a+1)*cw)
	b2 := a * ((a + 1) - (a-1)*cw - beta)
	a0 := (a + 1) + (a-1)*cw + beta
	a1 := -2 * ((a - 1) + (a+1)*cw)
	a2 := (a + 1) + (a-1)*cw - beta

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// HighShelfFilter designs a high-shelf section with gain in dB.
func HighShelfFilter(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	r := newRBJ(freq, q, sampleRate)
	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * r.alpha
	cw := r.cw

	b0 := a * ((a + 1) + (a-1)*cw + beta)
	b1 := -2 * a * ((a - 1) + (a+1)*cw)
	b2 := a * ((a + 1) + (a-1)*cw - beta)
	a0 := (a + 1) - (a-1)*cw + beta
	a1 := 2 * ((a - 1) - (a+1)*cw)
	a2 := (a + 1) - (a-1)*cw - beta

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if math.Abs(a0) < a0Epsilon {
		a0 = math.Copysign(a0Epsilon, a0)
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
