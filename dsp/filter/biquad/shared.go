package biquad

import (
	"fmt"
	"sync/atomic"
)

// SharedSection is a biquad whose coefficients may be replaced by one
// goroutine while another goroutine filters samples.
//
// Coefficient sets are immutable once published and swapped as a whole
// through an atomic pointer, so the filtering goroutine never observes a
// mix of old and new values. The delay line belongs to the filtering
// goroutine; it is zeroed the first time a newly published set is used.
type SharedSection struct {
	coeffs     atomic.Pointer[Coefficients]
	generation atomic.Uint64

	// owned by the filtering goroutine
	active *Coefficients
	w1, w2 float64
}

// NewSharedSection returns a section running c. It fails with ErrUnstable
// if c is not stable.
func NewSharedSection(c Coefficients) (*SharedSection, error) {
	s := &SharedSection{}
	if err := s.Publish(c); err != nil {
		return nil, err
	}

	s.active = s.coeffs.Load()

	return s, nil
}

// Publish makes c the active coefficient set. An unstable set is rejected
// with ErrUnstable and the previous set stays in effect with its state
// untouched. Every accepted set, including one equal to the current set,
// resets the filter state before its first sample.
func (s *SharedSection) Publish(c Coefficients) error {
	if !c.Stable() {
		return fmt.Errorf("%w: a1=%g a2=%g", ErrUnstable, c.A1, c.A2)
	}

	s.coeffs.Store(&c)
	s.generation.Add(1)

	return nil
}

// Coefficients returns the most recently published set.
func (s *SharedSection) Coefficients() Coefficients {
	return *s.coeffs.Load()
}

// Generation returns the number of accepted publications.
func (s *SharedSection) Generation() uint64 {
	return s.generation.Load()
}

// ProcessSample filters one sample. It must only be called from the
// filtering goroutine.
func (s *SharedSection) ProcessSample(x float64) float64 {
	c := s.coeffs.Load()
	if c != s.active {
		s.active = c
		s.w1, s.w2 = 0, 0
	}

	y := c.B0*x + s.w1
	s.w1 = c.B1*x - c.A1*y + s.w2
	s.w2 = c.B2*x - c.A2*y

	return y
}

// ProcessBlock filters buf in place. The coefficient set is sampled once
// for the whole block.
func (s *SharedSection) ProcessBlock(buf []float64) {
	c := s.coeffs.Load()
	if c != s.active {
		s.active = c
		s.w1, s.w2 = 0, 0
	}

	w1, w2 := s.w1, s.w2
	for i, x := range buf {
		y := c.B0*x + w1
		w1 = c.B1*x - c.A1*y + w2
		w2 = c.B2*x - c.A2*y
		buf[i] = y
	}

	s.w1, s.w2 = w1, w2
}

// Reset clears the delay line. Filtering goroutine only.
func (s *SharedSection) Reset() {
	s.w1, s.w2 = 0, 0
}

// State returns the delay-line state. Filtering goroutine only.
func (s *SharedSection) State() [2]float64 {
	return [2]float64{s.w1, s.w2}
}
