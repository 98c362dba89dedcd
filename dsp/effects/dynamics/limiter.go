package dynamics

import "github.com/cwbudde/algo-micstrip/dsp/core"

const (
	minLimiterThreshold = 1e-3
	maxLimiterThreshold = 1.0
	minLimiterAttackMs  = 0.01
	maxLimiterAttackMs  = 100.0

	fallbackLimiterThreshold = 0.9
	fallbackLimiterAttackMs  = 5.0
	fallbackLimiterReleaseMs = 100.0
)

// LimiterParams are the user settings of a Limiter. Threshold is a linear
// level.
type LimiterParams struct {
	Threshold float64
	AttackMs  float64
	ReleaseMs float64
}

// DefaultLimiterParams returns a fast limiter at 0.6 (about -4.4 dBFS).
func DefaultLimiterParams() LimiterParams {
	return LimiterParams{Threshold: 0.6, AttackMs: 3, ReleaseMs: 150}
}

// Limiter pulls gain towards threshold/level whenever the detector level
// exceeds the threshold. It does not clip.
type Limiter struct {
	ballistics

	threshold core.Float64

	gain float64 // audio-owned
}

// NewLimiter returns a limiter for p. A threshold outside (0, 1] is replaced
// by 0.9 and non-positive times by 5 ms attack and 100 ms release before
// the usual clamping.
func NewLimiter(sampleRate float64, p LimiterParams) (*Limiter, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, err
	}

	if p.Threshold <= 0 || p.Threshold > 1 {
		p.Threshold = fallbackLimiterThreshold
	}
	if p.AttackMs <= 0 {
		p.AttackMs = fallbackLimiterAttackMs
	}
	if p.ReleaseMs <= 0 {
		p.ReleaseMs = fallbackLimiterReleaseMs
	}

	l := &Limiter{}
	l.init(sampleRate, minLimiterAttackMs, minReleaseMs)
	if err := l.Apply(p); err != nil {
		return nil, err
	}
	l.Reset()

	return l, nil
}

// Apply sets all parameters at once.
func (l *Limiter) Apply(p LimiterParams) error {
	if _, err := l.SetThreshold(p.Threshold); err != nil {
		return err
	}
	if _, err := l.SetAttack(p.AttackMs); err != nil {
		return err
	}
	_, err := l.SetRelease(p.ReleaseMs)

	return err
}

// SetThreshold sets the linear threshold, clamped to [1e-3, 1].
func (l *Limiter) SetThreshold(v float64) (float64, error) {
	v, err := clampSetting("limiter threshold", v, minLimiterThreshold, maxLimiterThreshold)
	if err == nil {
		l.threshold.Store(v)
	}
	return v, err
}

// SetAttack sets the attack time in ms, clamped to [0.01, 100].
func (l *Limiter) SetAttack(ms float64) (float64, error) {
	ms, err := clampSetting("limiter attack", ms, minLimiterAttackMs, maxLimiterAttackMs)
	if err == nil {
		l.setAttack(ms)
	}
	return ms, err
}

// SetRelease sets the release time in ms, clamped to [1, 5000].
func (l *Limiter) SetRelease(ms float64) (float64, error) {
	ms, err := clampSetting("limiter release", ms, minReleaseMs, maxReleaseMs)
	if err == nil {
		l.setRelease(ms)
	}
	return ms, err
}

// Threshold returns the linear threshold.
func (l *Limiter) Threshold() float64 { return l.threshold.Load() }

// Attack returns the attack time in milliseconds.
func (l *Limiter) Attack() float64 { return l.attackMs.Load() }

// Release returns the release time in milliseconds.
func (l *Limiter) Release() float64 { return l.releaseMs.Load() }

// Snapshot returns the current parameters.
func (l *Limiter) Snapshot() LimiterParams {
	return LimiterParams{Threshold: l.Threshold(), AttackMs: l.Attack(), ReleaseMs: l.Release()}
}

// Gain returns the current smoothed gain. Audio goroutine only.
func (l *Limiter) Gain() float64 { return l.gain }

// Process limits x given the detector level.
func (l *Limiter) Process(x, level float64) float64 {
	target := 1.0
	if thr := l.threshold.Load(); level > thr {
		target = thr / (level + levelEpsilon)
	}

	l.gain = l.follow(l.gain, target)

	return x * l.gain
}

// Reset restores unity gain. Audio goroutine only.
func (l *Limiter) Reset() {
	l.gain = 1
}
