// Package telemetry formats and streams meter readings as text lines of
// the form
//
//	STREAM:RMS=-20.1,FFT=-35.2,-30.0,-28.4,-25.9,-22.1,-40.3,-55.0,-70.8\r\n
//
// which is what the console monitor and external GUIs consume.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-micstrip/dsp/spectrum"
)

// DefaultInterval is the reporting period used when Reporter.Interval is zero.
const DefaultInterval = 100 * time.Millisecond

const streamPrefix = "STREAM:"

// ErrBadFrame is returned by ParseStream for lines that are not stream frames.
var ErrBadFrame = errors.New("telemetry: malformed stream frame")

// Frame is one decoded telemetry line.
type Frame struct {
	LevelDB float64
	Bands   [spectrum.NumBands]float64
}

// FormatBands renders band values as a comma-separated list with one
// decimal.
func FormatBands(bands [spectrum.NumBands]float64) string {
	var b strings.Builder

	for i, v := range bands {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteString(strconv.FormatFloat(v, 'f', 1, 64))
	}

	return b.String()
}

// FormatStream renders one CRLF-terminated stream frame.
func FormatStream(levelDB float64, bands [spectrum.NumBands]float64) string {
	return fmt.Sprintf("%sRMS=%.1f,FFT=%s\r\n", streamPrefix, levelDB, FormatBands(bands))
}

// ParseStream decodes a line produced by FormatStream. Surrounding
// whitespace, including the line terminator, is ignored.
func ParseStream(line string) (Frame, error) {
	var f Frame

	body, ok := strings.CutPrefix(strings.TrimSpace(line), streamPrefix)
	if !ok {
		return f, fmt.Errorf("%w: missing %q prefix", ErrBadFrame, streamPrefix)
	}

	rms, fft, ok := strings.Cut(body, ",FFT=")
	if !ok {
		return f, fmt.Errorf("%w: missing FFT field", ErrBadFrame)
	}

	rmsValue, ok := strings.CutPrefix(rms, "RMS=")
	if !ok {
		return f, fmt.Errorf("%w: missing RMS field", ErrBadFrame)
	}

	level, err := strconv.ParseFloat(rmsValue, 64)
	if err != nil {
		return f, fmt.Errorf("%w: RMS: %w", ErrBadFrame, err)
	}

	fields := strings.Split(fft, ",")
	if len(fields) != spectrum.NumBands {
		return f, fmt.Errorf("%w: %d bands, want %d", ErrBadFrame, len(fields), spectrum.NumBands)
	}

	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return f, fmt.Errorf("%w: band %d: %w", ErrBadFrame, i, err)
		}

		f.Bands[i] = v
	}

	f.LevelDB = level

	return f, nil
}

// Source provides the readings a Reporter publishes.
type Source interface {
	LevelDBFS() float64
	Bands() [spectrum.NumBands]float64
}

// Reporter periodically writes stream frames for Source to Writer.
type Reporter struct {
	Source   Source
	Writer   io.Writer
	Interval time.Duration
}

// Run writes one frame per interval until ctx is done, then returns
// ctx.Err(). A write error stops the reporter and is returned.
func (r *Reporter) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	logrus.WithFields(logrus.Fields{
		"function": "Run",
		"interval": interval.String(),
	}).Info("Telemetry reporter started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.WithFields(logrus.Fields{
				"function": "Run",
			}).Info("Telemetry reporter stopped")

			return ctx.Err()
		case <-ticker.C:
			line := FormatStream(r.Source.LevelDBFS(), r.Source.Bands())
			if _, err := io.WriteString(r.Writer, line); err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "Run",
					"error":    err.Error(),
				}).Error("Telemetry write failed")

				return fmt.Errorf("telemetry: write frame: %w", err)
			}
		}
	}
}

// SyncWriter serializes writes from several goroutines onto one stream.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter wraps w.
func NewSyncWriter(w io.Writer) *SyncWriter {
	return &SyncWriter{w: w}
}

// Write implements io.Writer.
func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}
