package dynamics

import "github.com/cwbudde/algo-micstrip/dsp/core"

const (
	minExpanderThreshold = 0.0
	maxExpanderThreshold = 1.0
	minHoldMs            = 0.0
	maxHoldMs            = 5000.0
)

// ExpanderParams are the user settings of an Expander. Threshold is a linear
// level; zero disables expansion.
type ExpanderParams struct {
	Threshold float64
	Ratio     float64
	AttackMs  float64
	ReleaseMs float64
	HoldMs    float64
}

// DefaultExpanderParams returns a gentle 2:1 expander below 0.02 (-34 dBFS).
func DefaultExpanderParams() ExpanderParams {
	return ExpanderParams{Threshold: 0.02, Ratio: 2, AttackMs: 5, ReleaseMs: 100, HoldMs: 100}
}

// Expander attenuates material whose level falls below the threshold.
//
// Below threshold the target gain is (threshold/level)^(1/ratio - 1).
// Once the level rises above threshold the last expanding target is held
// for the hold time before the target returns to unity, which keeps short
// dips above threshold from chattering.
type Expander struct {
	ballistics

	threshold core.Float64
	ratio     core.Float64
	holdMs    core.Float64

	// audio-owned
	gain        float64
	holdElapsed float64 // seconds
	holdTarget  float64
}

// NewExpander returns an expander with p clamped to the supported ranges.
func NewExpander(sampleRate float64, p ExpanderParams) (*Expander, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, err
	}

	e := &Expander{}
	e.init(sampleRate, minAttackMs, minReleaseMs)
	if err := e.Apply(p); err != nil {
		return nil, err
	}
	e.Reset()

	return e, nil
}

// Apply sets all parameters at once.
func (e *Expander) Apply(p ExpanderParams) error {
	for _, set := range []struct {
		fn func(float64) (float64, error)
		v  float64
	}{
		{e.SetThreshold, p.Threshold},
		{e.SetRatio, p.Ratio},
		{e.SetAttack, p.AttackMs},
		{e.SetRelease, p.ReleaseMs},
		{e.SetHold, p.HoldMs},
	} {
		if _, err := set.fn(set.v); err != nil {
			return err
		}
	}

	return nil
}

// SetThreshold sets the linear threshold, clamped to [0, 1].
func (e *Expander) SetThreshold(v float64) (float64, error) {
	v, err := clampSetting("expander threshold", v, minExpanderThreshold, maxExpanderThreshold)
	if err == nil {
		e.threshold.Store(v)
	}
	return v, err
}

// SetRatio sets the expansion ratio, clamped to [1, 100].
func (e *Expander) SetRatio(v float64) (float64, error) {
	v, err := clampSetting("expander ratio", v, minRatio, maxRatio)
	if err == nil {
		e.ratio.Store(v)
	}
	return v, err
}

// SetAttack sets the attack time in ms, clamped to [0.1, 1000].
func (e *Expander) SetAttack(ms float64) (float64, error) {
	ms, err := clampSetting("expander attack", ms, minAttackMs, maxAttackMs)
	if err == nil {
		e.setAttack(ms)
	}
	return ms, err
}

// SetRelease sets the release time in ms, clamped to [1, 5000].
func (e *Expander) SetRelease(ms float64) (float64, error) {
	ms, err := clampSetting("expander release", ms, minReleaseMs, maxReleaseMs)
	if err == nil {
		e.setRelease(ms)
	}
	return ms, err
}

// SetHold sets the hold time in ms, clamped to [0, 5000].
func (e *Expander) SetHold(ms float64) (float64, error) {
	ms, err := clampSetting("expander hold", ms, minHoldMs, maxHoldMs)
	if err == nil {
		e.holdMs.Store(ms)
	}
	return ms, err
}

// Threshold returns the linear threshold.
func (e *Expander) Threshold() float64 { return e.threshold.Load() }

// Ratio returns the expansion ratio.
func (e *Expander) Ratio() float64 { return e.ratio.Load() }

// Attack returns the attack time in milliseconds.
func (e *Expander) Attack() float64 { return e.attackMs.Load() }

// Release returns the release time in milliseconds.
func (e *Expander) Release() float64 { return e.releaseMs.Load() }

// Hold returns the hold time in milliseconds.
func (e *Expander) Hold() float64 { return e.holdMs.Load() }

// Snapshot returns the current parameters.
func (e *Expander) Snapshot() ExpanderParams {
	return ExpanderParams{
		Threshold: e.Threshold(),
		Ratio:     e.Ratio(),
		AttackMs:  e.Attack(),
		ReleaseMs: e.Release(),
		HoldMs:    e.Hold(),
	}
}

// Gain returns the current smoothed gain. Audio goroutine only.
func (e *Expander) Gain() float64 { return e.gain }

// Process applies expansion to x given the detector level.
func (e *Expander) Process(x, level float64) float64 {
	target := 1.0

	if thr := e.threshold.Load(); level < thr {
		under := thr / max(level, levelEpsilon)
		target = mathPower2((1/e.ratio.Load() - 1) * mathLog2(under))
		e.holdElapsed = 0
		e.holdTarget = target
	} else if e.holdElapsed < e.holdMs.Load()*0.001 {
		e.holdElapsed += 1 / e.sampleRate
		target = e.holdTarget
	}

	e.gain = e.follow(e.gain, target)

	return x * e.gain
}

// Reset restores unity gain and clears the hold state. Audio goroutine only.
func (e *Expander) Reset() {
	e.gain = 1
	e.holdElapsed = 0
	e.holdTarget = 1
}
