package eq

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-micstrip/dsp/core"
	"github.com/cwbudde/algo-micstrip/dsp/filter/biquad"
	"github.com/cwbudde/algo-micstrip/dsp/filter/design"
)

// DefaultParams returns the flat voicing: a low shelf at 100 Hz, a peaking
// band at 1.2 kHz and a high shelf at 8 kHz, all at 0 dB.
func DefaultParams() [NumBands]design.Params {
	return [NumBands]design.Params{
		Low:  {Shape: design.LowShelf, FreqHz: 100, Q: 0.707},
		Mid:  {Shape: design.Peaking, FreqHz: 1200, Q: 1},
		High: {Shape: design.HighShelf, FreqHz: 8000, Q: 0.707},
	}
}

// Equalizer is a Low -> Mid -> High cascade of biquad sections.
//
// ProcessSample, ProcessBlock and Reset belong to the audio goroutine.
// All other methods may be called from any goroutine; they serialize among
// themselves but never block the audio goroutine.
type Equalizer struct {
	sampleRate float64
	sections   [NumBands]*biquad.SharedSection

	mu     sync.Mutex
	params [NumBands]design.Params
}

// New returns an equalizer with the given band settings. Each band is
// clamped and designed; any unstable band fails construction.
func New(sampleRate float64, low, mid, high design.Params) (*Equalizer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("eq: invalid sample rate %.3f", sampleRate)
	}

	e := &Equalizer{sampleRate: sampleRate}
	for i, p := range [NumBands]design.Params{low, mid, high} {
		p, _ = p.Clamp(sampleRate)

		c, err := design.Design(p, sampleRate)
		if err != nil {
			return nil, fmt.Errorf("eq: band %s: %w", Band(i), err)
		}

		s, err := biquad.NewSharedSection(c)
		if err != nil {
			return nil, fmt.Errorf("eq: band %s: %w", Band(i), err)
		}

		e.sections[i] = s
		e.params[i] = p
	}

	return e, nil
}

// SampleRate returns the rate the bands are designed for.
func (e *Equalizer) SampleRate() float64 { return e.sampleRate }

// ProcessSample runs x through the three bands in order.
func (e *Equalizer) ProcessSample(x float64) float64 {
	x = e.sections[Low].ProcessSample(x)
	x = e.sections[Mid].ProcessSample(x)
	return e.sections[High].ProcessSample(x)
}

// ProcessBlock filters buf in place.
func (e *Equalizer) ProcessBlock(buf []float64) {
	for _, s := range e.sections {
		s.ProcessBlock(buf)
	}
}

// Reset clears the filter state of every band.
func (e *Equalizer) Reset() {
	for _, s := range e.sections {
		s.Reset()
	}
}

// SetBand changes one numeric field of a band, clamps it to the supported
// range and redesigns that band only. It returns the value actually
// applied. If the redesign is unstable the band keeps its previous
// parameters and coefficients and the error wraps design.ErrUnstableDesign.
func (e *Equalizer) SetBand(band Band, param Param, value float64) (float64, error) {
	if !band.valid() {
		return 0, fmt.Errorf("%w: band %d", ErrInvalidParameter, int(band))
	}
	if !core.IsFinite(value) {
		return 0, fmt.Errorf("%w: %s %s=%v", ErrNonFinite, band, param, value)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.params[band]
	switch param {
	case Freq:
		p.FreqHz = value
	case Q:
		p.Q = value
	case Gain:
		p.GainDB = value
	default:
		return 0, fmt.Errorf("%w: param %d", ErrInvalidParameter, int(param))
	}

	applied, err := e.apply(band, p)
	if err != nil {
		return fieldOf(e.params[band], param), err
	}

	return fieldOf(applied, param), nil
}

// SetShape changes the response shape of a band.
func (e *Equalizer) SetShape(band Band, shape design.Shape) error {
	if !band.valid() {
		return fmt.Errorf("%w: band %d", ErrInvalidParameter, int(band))
	}
	if !shape.Valid() {
		return fmt.Errorf("%w: %w: %d", ErrInvalidParameter, design.ErrUnknownShape, int(shape))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.params[band]
	p.Shape = shape
	_, err := e.apply(band, p)

	return err
}

// SetBandParams replaces all settings of a band at once and returns the
// clamped parameters in effect.
func (e *Equalizer) SetBandParams(band Band, p design.Params) (design.Params, error) {
	if !band.valid() {
		return design.Params{}, fmt.Errorf("%w: band %d", ErrInvalidParameter, int(band))
	}
	if !p.Shape.Valid() {
		return design.Params{}, fmt.Errorf("%w: %w: %d", ErrInvalidParameter, design.ErrUnknownShape, int(p.Shape))
	}
	if !core.IsFinite(p.FreqHz) || !core.IsFinite(p.Q) || !core.IsFinite(p.GainDB) {
		return design.Params{}, fmt.Errorf("%w: %s %+v", ErrNonFinite, band, p)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	applied, err := e.apply(band, p)
	if err != nil {
		return e.params[band], err
	}

	return applied, nil
}

// apply must be called with mu held.
func (e *Equalizer) apply(band Band, p design.Params) (design.Params, error) {
	p, _ = p.Clamp(e.sampleRate)

	c, err := design.Design(p, e.sampleRate)
	if err != nil {
		return design.Params{}, err
	}

	if err := e.sections[band].Publish(c); err != nil {
		return design.Params{}, errors.Join(design.ErrUnstableDesign, err)
	}

	e.params[band] = p

	return p, nil
}

// Params returns the settings of band as currently running.
func (e *Equalizer) Params(band Band) (design.Params, error) {
	if !band.valid() {
		return design.Params{}, fmt.Errorf("%w: band %d", ErrInvalidParameter, int(band))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.params[band], nil
}

// AllParams returns the settings of all bands.
func (e *Equalizer) AllParams() [NumBands]design.Params {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.params
}

// Coefficients returns the active coefficients of band.
func (e *Equalizer) Coefficients(band Band) (biquad.Coefficients, error) {
	if !band.valid() {
		return biquad.Coefficients{}, fmt.Errorf("%w: band %d", ErrInvalidParameter, int(band))
	}

	return e.sections[band].Coefficients(), nil
}

// MagnitudeDB returns the response of the whole cascade at freqHz.
func (e *Equalizer) MagnitudeDB(freqHz float64) float64 {
	var db float64
	for _, s := range e.sections {
		db += s.Coefficients().MagnitudeDB(freqHz, e.sampleRate)
	}

	return db
}

func fieldOf(p design.Params, param Param) float64 {
	switch param {
	case Freq:
		return p.FreqHz
	case Q:
		return p.Q
	default:
		return p.GainDB
	}
}
