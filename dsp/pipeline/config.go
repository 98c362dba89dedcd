package pipeline

import (
	"github.com/cwbudde/algo-micstrip/dsp/core"
	"github.com/cwbudde/algo-micstrip/dsp/effects/dynamics"
	"github.com/cwbudde/algo-micstrip/dsp/filter/design"
	"github.com/cwbudde/algo-micstrip/dsp/filter/eq"
	"github.com/cwbudde/algo-micstrip/dsp/window"
)

const (
	// DefaultAnalysisSize is the spectrum block length.
	DefaultAnalysisSize = 512
	// DefaultRMSTimeMs is the detector time constant.
	DefaultRMSTimeMs = 20.0

	MinInputGain = 0.0
	MaxInputGain = 8.0
)

// Config holds everything needed to build a Pipeline.
type Config struct {
	core.ProcessorConfig

	AnalysisSize   int
	AnalysisWindow window.Type
	InputGain      float64
	RMSTimeMs      float64

	EQ         [eq.NumBands]design.Params
	Expander   dynamics.ExpanderParams
	Compressor dynamics.CompressorParams
	Limiter    dynamics.LimiterParams
}

// DefaultConfig returns the stock voicing at 48 kHz: flat EQ, gentle
// expander, 4:1 soft-knee compressor with +4 dB makeup and a limiter at 0.6.
func DefaultConfig() Config {
	return Config{
		ProcessorConfig: core.DefaultProcessorConfig(),
		AnalysisSize:    DefaultAnalysisSize,
		AnalysisWindow:  window.TypeHamming,
		InputGain:       1,
		RMSTimeMs:       DefaultRMSTimeMs,
		EQ:              eq.DefaultParams(),
		Expander:        dynamics.DefaultExpanderParams(),
		Compressor:      dynamics.DefaultCompressorParams(),
		Limiter:         dynamics.DefaultLimiterParams(),
	}
}

// Option mutates a Config.
type Option func(*Config)

// WithSampleRate sets the processing rate. Non-positive values are ignored.
func WithSampleRate(sampleRate float64) Option {
	return func(c *Config) {
		core.WithSampleRate(sampleRate)(&c.ProcessorConfig)
	}
}

// WithBlockSize sets the block length the transport delivers.
func WithBlockSize(blockSize int) Option {
	return func(c *Config) {
		core.WithBlockSize(blockSize)(&c.ProcessorConfig)
	}
}

// WithAnalysisSize sets the spectrum block length. It must be a power of
// two; New reports invalid sizes.
func WithAnalysisSize(n int) Option {
	return func(c *Config) {
		c.AnalysisSize = n
	}
}

// WithAnalysisWindow selects the spectrum window.
func WithAnalysisWindow(t window.Type) Option {
	return func(c *Config) {
		c.AnalysisWindow = t
	}
}

// WithInputGain sets the linear gain applied before every stage.
func WithInputGain(g float64) Option {
	return func(c *Config) {
		c.InputGain = g
	}
}

// WithRMSTime sets the detector time constant in milliseconds.
func WithRMSTime(ms float64) Option {
	return func(c *Config) {
		c.RMSTimeMs = ms
	}
}

// WithEQ replaces the settings of all three bands.
func WithEQ(low, mid, high design.Params) Option {
	return func(c *Config) {
		c.EQ = [eq.NumBands]design.Params{low, mid, high}
	}
}

// WithExpander replaces the expander settings.
func WithExpander(p dynamics.ExpanderParams) Option {
	return func(c *Config) {
		c.Expander = p
	}
}

// WithCompressor replaces the compressor settings.
func WithCompressor(p dynamics.CompressorParams) Option {
	return func(c *Config) {
		c.Compressor = p
	}
}

// WithLimiter replaces the limiter settings.
func WithLimiter(p dynamics.LimiterParams) Option {
	return func(c *Config) {
		c.Limiter = p
	}
}

// ApplyOptions applies opts to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
