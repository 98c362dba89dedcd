package dynamics

import (
	"github.com/cwbudde/algo-micstrip/dsp/core"
)

const (
	minCompressorThreshold = 1e-6
	maxCompressorThreshold = 1.0
	minMakeupDB            = -24.0
	maxMakeupDB            = 24.0
	minKneeDB              = 0.0
	maxKneeDB              = 24.0
)

// CompressorParams are the user settings of a Compressor. Threshold is a
// linear level.
type CompressorParams struct {
	Threshold float64
	Ratio     float64
	MakeupDB  float64
	AttackMs  float64
	ReleaseMs float64
	KneeDB    float64
}

// DefaultCompressorParams returns a 4:1 vocal compressor above 0.3 with a
// 6 dB knee and 4 dB of makeup gain.
func DefaultCompressorParams() CompressorParams {
	return CompressorParams{Threshold: 0.3, Ratio: 4, MakeupDB: 4, AttackMs: 10, ReleaseMs: 120, KneeDB: 6}
}

// Compressor reduces gain above a threshold with a quadratic soft knee.
//
// The gain computer works in dB with three zones around the threshold T
// and knee width K:
//
//	L <= T - K/2      0
//	L >= T + K/2      -(1 - 1/ratio) * (L - T)
//	otherwise         -(1 - 1/ratio) * (L - T + K/2)^2 / (2K)
//
// The output x*gain*makeup is hard-clipped to [-1, 1].
type Compressor struct {
	ballistics

	threshold core.Float64
	ratio     core.Float64
	kneeDB    core.Float64
	makeupDB  core.Float64
	makeupLin core.Float64

	gain float64 // audio-owned
}

// NewCompressor returns a compressor with p clamped to the supported ranges.
func NewCompressor(sampleRate float64, p CompressorParams) (*Compressor, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, err
	}

	c := &Compressor{}
	c.init(sampleRate, minAttackMs, minReleaseMs)
	if err := c.Apply(p); err != nil {
		return nil, err
	}
	c.Reset()

	return c, nil
}

// Apply sets all parameters at once.
func (c *Compressor) Apply(p CompressorParams) error {
	for _, set := range []struct {
		fn func(float64) (float64, error)
		v  float64
	}{
		{c.SetThreshold, p.Threshold},
		{c.SetRatio, p.Ratio},
		{c.SetMakeup, p.MakeupDB},
		{c.SetAttack, p.AttackMs},
		{c.SetRelease, p.ReleaseMs},
		{c.SetKnee, p.KneeDB},
	} {
		if _, err := set.fn(set.v); err != nil {
			return err
		}
	}

	return nil
}

// SetThreshold sets the linear threshold, clamped to [1e-6, 1].
func (c *Compressor) SetThreshold(v float64) (float64, error) {
	v, err := clampSetting("compressor threshold", v, minCompressorThreshold, maxCompressorThreshold)
	if err == nil {
		c.threshold.Store(v)
	}
	return v, err
}

// SetRatio sets the compression ratio, clamped to [1, 100].
func (c *Compressor) SetRatio(v float64) (float64, error) {
	v, err := clampSetting("compressor ratio", v, minRatio, maxRatio)
	if err == nil {
		c.ratio.Store(v)
	}
	return v, err
}

// SetMakeup sets the makeup gain in dB, clamped to [-24, 24].
func (c *Compressor) SetMakeup(db float64) (float64, error) {
	db, err := clampSetting("compressor makeup", db, minMakeupDB, maxMakeupDB)
	if err == nil {
		c.makeupDB.Store(db)
		c.makeupLin.Store(core.DBToLinear(db))
	}
	return db, err
}

// SetAttack sets the attack time in ms, clamped to [0.1, 1000].
func (c *Compressor) SetAttack(ms float64) (float64, error) {
	ms, err := clampSetting("compressor attack", ms, minAttackMs, maxAttackMs)
	if err == nil {
		c.setAttack(ms)
	}
	return ms, err
}

// SetRelease sets the release time in ms, clamped to [1, 5000].
func (c *Compressor) SetRelease(ms float64) (float64, error) {
	ms, err := clampSetting("compressor release", ms, minReleaseMs, maxReleaseMs)
	if err == nil {
		c.setRelease(ms)
	}
	return ms, err
}

// SetKnee sets the knee width in dB, clamped to [0, 24].
func (c *Compressor) SetKnee(db float64) (float64, error) {
	db, err := clampSetting("compressor knee", db, minKneeDB, maxKneeDB)
	if err == nil {
		c.kneeDB.Store(db)
	}
	return db, err
}

// Threshold returns the linear threshold.
func (c *Compressor) Threshold() float64 { return c.threshold.Load() }

// Ratio returns the compression ratio.
func (c *Compressor) Ratio() float64 { return c.ratio.Load() }

// Makeup returns the makeup gain in dB.
func (c *Compressor) Makeup() float64 { return c.makeupDB.Load() }

// Attack returns the attack time in milliseconds.
func (c *Compressor) Attack() float64 { return c.attackMs.Load() }

// Release returns the release time in milliseconds.
func (c *Compressor) Release() float64 { return c.releaseMs.Load() }

// Knee returns the knee width in dB.
func (c *Compressor) Knee() float64 { return c.kneeDB.Load() }

// Snapshot returns the current parameters.
func (c *Compressor) Snapshot() CompressorParams {
	return CompressorParams{
		Threshold: c.Threshold(),
		Ratio:     c.Ratio(),
		MakeupDB:  c.Makeup(),
		AttackMs:  c.Attack(),
		ReleaseMs: c.Release(),
		KneeDB:    c.Knee(),
	}
}

// Gain returns the current smoothed gain, without makeup. Audio goroutine only.
func (c *Compressor) Gain() float64 { return c.gain }

// TargetGainDB returns the static gain change in dB for a detector level.
func (c *Compressor) TargetGainDB(level float64) float64 {
	levelDB := toDB(level)
	thrDB := toDB(c.threshold.Load())
	knee := c.kneeDB.Load()
	slope := 1 - 1/c.ratio.Load()

	switch {
	case levelDB <= thrDB-knee*0.5:
		return 0
	case levelDB >= thrDB+knee*0.5:
		return -slope * (levelDB - thrDB)
	default:
		delta := levelDB - (thrDB - knee*0.5)
		return -slope * delta * delta / (2 * knee)
	}
}

// Process compresses x given the detector level.
func (c *Compressor) Process(x, level float64) float64 {
	target := fromDB(c.TargetGainDB(level))
	c.gain = c.follow(c.gain, target)

	return core.HardClip(x * c.gain * c.makeupLin.Load())
}

// Reset restores unity gain. Audio goroutine only.
func (c *Compressor) Reset() {
	c.gain = 1
}
