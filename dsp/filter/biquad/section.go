package biquad

import (
	"errors"
	"math"
)

// ErrUnstable is returned when a coefficient set has a pole on or outside
// the unit circle.
var ErrUnstable = errors.New("biquad: unstable coefficients")

// Coefficients holds the transfer function coefficients for a single
// second-order section (biquad). a0 is normalized to 1 and not stored.
//
// The sign convention follows Direct Form II Transposed:
//
//	y  = B0*x + w1
//	w1 = B1*x - A1*y + w2
//	w2 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// Identity is the pass-through coefficient set.
var Identity = Coefficients{B0: 1}

// Stable reports whether both poles of 1 + A1 z^-1 + A2 z^-2 lie strictly
// inside the unit circle, using the stability triangle
//
//	|A2| < 1,  A1 > -1 - A2,  A1 < 1 - A2.
//
// Non-finite coefficients are never stable.
func (c Coefficients) Stable() bool {
	for _, v := range [...]float64{c.B0, c.B1, c.B2, c.A1, c.A2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return math.Abs(c.A2) < 1 && c.A1 > -1-c.A2 && c.A1 < 1-c.A2
}

// Section is a single biquad filter with coefficients and internal state.
// It implements Direct Form II Transposed processing and is not safe for
// concurrent use; see [SharedSection] for a retunable variant.
type Section struct {
	Coefficients

	w1, w2 float64
}

// NewSection returns a Section initialized with the given coefficients
// and zero state.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// ProcessSample filters one input sample and returns the output.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.w1
	s.w1 = s.B1*x - s.A1*y + s.w2
	s.w2 = s.B2*x - s.A2*y

	return y
}

// ProcessBlock filters a block of samples in-place. Zero-alloc.
func (s *Section) ProcessBlock(buf []float64) {
	b0, b1, b2 := s.B0, s.B1, s.B2
	a1, a2 := s.A1, s.A2
	w1, w2 := s.w1, s.w2

	for i, x := range buf {
		y := b0*x + w1
		w1 = b1*x - a1*y + w2
		w2 = b2*x - a2*y
		buf[i] = y
	}

	s.w1, s.w2 = w1, w2
}

// Reset clears the delay line to zero.
func (s *Section) Reset() {
	s.w1 = 0
	s.w2 = 0
}

// State returns the current delay-line state [w1, w2].
func (s *Section) State() [2]float64 {
	return [2]float64{s.w1, s.w2}
}

// SetState restores a previously saved delay-line state.
func (s *Section) SetState(state [2]float64) {
	s.w1 = state[0]
	s.w2 = state[1]
}
