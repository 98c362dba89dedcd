package pipeline

import (
	"fmt"

	"github.com/cwbudde/algo-micstrip/dsp/core"
	"github.com/cwbudde/algo-micstrip/dsp/filter/design"
	"github.com/cwbudde/algo-micstrip/dsp/filter/eq"
)

// The setters below belong to the control context. Each one validates the
// identifiers, rejects non-finite values with ErrOutOfRange, clamps finite
// values to the parameter range and returns the value actually applied.

// SetEQ changes one field of an EQ band and re-designs that band. An
// unstable result is rejected with design.ErrUnstableDesign and the band
// keeps its previous coefficients.
func (p *Pipeline) SetEQ(band eq.Band, param eq.Param, value float64) (float64, error) {
	if !core.IsFinite(value) {
		return 0, fmt.Errorf("%w: EQ_%s_%s=%v", ErrOutOfRange, band, param, value)
	}

	applied, err := p.eq.SetBand(band, param, value)
	if err != nil {
		return 0, fmt.Errorf("pipeline: set eq: %w", err)
	}

	return applied, nil
}

// SetEQShape changes the response shape of an EQ band.
func (p *Pipeline) SetEQShape(band eq.Band, shape design.Shape) error {
	if err := p.eq.SetShape(band, shape); err != nil {
		return fmt.Errorf("pipeline: set eq shape: %w", err)
	}

	return nil
}

// SetExpander changes one expander setting.
func (p *Pipeline) SetExpander(param ExpanderParam, value float64) (float64, error) {
	if !core.IsFinite(value) {
		return 0, fmt.Errorf("%w: EXPANDER_%s=%v", ErrOutOfRange, param, value)
	}

	var set func(float64) (float64, error)

	switch param {
	case ExpanderThreshold:
		set = p.expander.SetThreshold
	case ExpanderRatio:
		set = p.expander.SetRatio
	case ExpanderAttack:
		set = p.expander.SetAttack
	case ExpanderRelease:
		set = p.expander.SetRelease
	case ExpanderHold:
		set = p.expander.SetHold
	default:
		return 0, fmt.Errorf("%w: expander parameter %d", ErrInvalidParameter, int(param))
	}

	return setScalar("expander", param.String(), set, value)
}

// SetCompressor changes one compressor setting.
func (p *Pipeline) SetCompressor(param CompressorParam, value float64) (float64, error) {
	if !core.IsFinite(value) {
		return 0, fmt.Errorf("%w: COMP_%s=%v", ErrOutOfRange, param, value)
	}

	var set func(float64) (float64, error)

	switch param {
	case CompressorThreshold:
		set = p.compressor.SetThreshold
	case CompressorRatio:
		set = p.compressor.SetRatio
	case CompressorMakeup:
		set = p.compressor.SetMakeup
	case CompressorAttack:
		set = p.compressor.SetAttack
	case CompressorRelease:
		set = p.compressor.SetRelease
	case CompressorKnee:
		set = p.compressor.SetKnee
	default:
		return 0, fmt.Errorf("%w: compressor parameter %d", ErrInvalidParameter, int(param))
	}

	return setScalar("compressor", param.String(), set, value)
}

// SetLimiter changes one limiter setting.
func (p *Pipeline) SetLimiter(param LimiterParam, value float64) (float64, error) {
	if !core.IsFinite(value) {
		return 0, fmt.Errorf("%w: LIMIT_%s=%v", ErrOutOfRange, param, value)
	}

	var set func(float64) (float64, error)

	switch param {
	case LimiterThreshold:
		set = p.limiter.SetThreshold
	case LimiterAttack:
		set = p.limiter.SetAttack
	case LimiterRelease:
		set = p.limiter.SetRelease
	default:
		return 0, fmt.Errorf("%w: limiter parameter %d", ErrInvalidParameter, int(param))
	}

	return setScalar("limiter", param.String(), set, value)
}

// SetInputGain changes the linear gain in front of the strip, clamped to
// [MinInputGain, MaxInputGain].
func (p *Pipeline) SetInputGain(g float64) (float64, error) {
	if !core.IsFinite(g) {
		return 0, fmt.Errorf("%w: INPUT_GAIN=%v", ErrOutOfRange, g)
	}

	g = core.Clamp(g, MinInputGain, MaxInputGain)
	p.inputGain.Store(g)

	return g, nil
}

// InputGain returns the current input gain.
func (p *Pipeline) InputGain() float64 { return p.inputGain.Load() }

// SetRMSTime changes the detector time constant in milliseconds.
func (p *Pipeline) SetRMSTime(ms float64) (float64, error) {
	if !core.IsFinite(ms) {
		return 0, fmt.Errorf("%w: RMS_TIME=%v", ErrOutOfRange, ms)
	}

	return setScalar("rms", "TIME", p.rms.SetTimeConstant, ms)
}

func setScalar(stage, name string, set func(float64) (float64, error), value float64) (float64, error) {
	applied, err := set(value)
	if err != nil {
		return 0, fmt.Errorf("pipeline: set %s %s: %w", stage, name, err)
	}

	return applied, nil
}
