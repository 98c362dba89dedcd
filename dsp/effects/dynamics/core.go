package dynamics

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-micstrip/dsp/core"
)

// ErrNonFinite is returned by setters given NaN or an infinity.
var ErrNonFinite = errors.New("dynamics: non-finite parameter")

const (
	// log2Of10Div20 converts decibels to the log2 domain: log2(10) / 20.
	log2Of10Div20 = 0.166096404744

	// levelEpsilon floors linear levels before ratios and logarithms.
	levelEpsilon = 1e-9

	minAttackMs  = 0.1
	maxAttackMs  = 1000.0
	minReleaseMs = 1.0
	maxReleaseMs = 5000.0
	minRatio     = 1.0
	maxRatio     = 100.0
)

// toDB converts a linear level to dB, flooring at levelEpsilon.
func toDB(linear float64) float64 {
	return mathLog2(math.Max(linear, levelEpsilon)) / log2Of10Div20
}

// fromDB converts dB to a linear gain.
func fromDB(db float64) float64 {
	return mathPower2(db * log2Of10Div20)
}

// ballistics holds the attack/release times of a gain stage and smooths
// gain towards a target with
//
//	g = coeff*(g - target) + target
//
// using the attack coefficient when the target is below g.
type ballistics struct {
	sampleRate float64

	attackMs     core.Float64
	releaseMs    core.Float64
	attackCoeff  core.Float64
	releaseCoeff core.Float64
}

func (b *ballistics) init(sampleRate, attackMs, releaseMs float64) {
	b.sampleRate = sampleRate
	b.setAttack(attackMs)
	b.setRelease(releaseMs)
}

func (b *ballistics) setAttack(ms float64) {
	b.attackMs.Store(ms)
	b.attackCoeff.Store(core.OnePoleCoeff(ms, b.sampleRate))
}

func (b *ballistics) setRelease(ms float64) {
	b.releaseMs.Store(ms)
	b.releaseCoeff.Store(core.OnePoleCoeff(ms, b.sampleRate))
}

func (b *ballistics) follow(gain, target float64) float64 {
	coeff := b.releaseCoeff.Load()
	if target < gain {
		coeff = b.attackCoeff.Load()
	}

	return coeff*(gain-target) + target
}

// clampSetting validates v and clamps it to [lo, hi].
func clampSetting(name string, v, lo, hi float64) (float64, error) {
	if !core.IsFinite(v) {
		return 0, fmt.Errorf("%w: %s=%v", ErrNonFinite, name, v)
	}

	return core.Clamp(v, lo, hi), nil
}

func validateSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("sample rate must be positive and finite: %f", sampleRate)
	}

	return nil
}
