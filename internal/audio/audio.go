// Package audio moves sample blocks between WAV files and a block
// processor. It stands in for the hardware audio callback: Run hands the
// processor fixed-size blocks, optionally paced at the real-time rate.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// ErrBlockSize is returned by Run for non-positive block sizes.
var ErrBlockSize = errors.New("audio: block size must be > 0")

// Source decodes a WAV stream into mono float64 blocks.
type Source struct {
	stream beep.StreamSeekCloser
	format beep.Format
	frames [][2]float64
}

// ReadWAV starts decoding r. Multi-channel input is mixed down to mono when
// read.
func ReadWAV(r io.Reader) (*Source, error) {
	stream, format, err := wav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("audio: decode wav: %w", err)
	}

	return &Source{stream: stream, format: format}, nil
}

// SampleRate returns the file's sample rate in Hz.
func (s *Source) SampleRate() float64 { return float64(s.format.SampleRate) }

// Channels returns the channel count of the file.
func (s *Source) Channels() int { return s.format.NumChannels }

// Len returns the length of the file in frames.
func (s *Source) Len() int { return s.stream.Len() }

// ReadBlock fills dst with the next mono samples and returns how many were
// read. It returns io.EOF once the stream is exhausted and nothing was read.
func (s *Source) ReadBlock(dst []float64) (int, error) {
	if cap(s.frames) < len(dst) {
		s.frames = make([][2]float64, len(dst))
	}

	frames := s.frames[:len(dst)]
	total := 0

	for total < len(dst) {
		n, ok := s.stream.Stream(frames[total:])
		for i := total; i < total+n; i++ {
			dst[i] = 0.5 * (frames[i][0] + frames[i][1])
		}

		total += n

		if !ok || n == 0 {
			break
		}
	}

	if total == 0 {
		if err := s.stream.Err(); err != nil {
			return 0, fmt.Errorf("audio: read wav: %w", err)
		}

		return 0, io.EOF
	}

	return total, nil
}

// Close releases the underlying reader.
func (s *Source) Close() error {
	return s.stream.Close()
}

// WriteWAV encodes samples as 16-bit mono PCM.
func WriteWAV(w io.WriteSeeker, sampleRate float64, samples []float64) error {
	if !(sampleRate > 0) {
		return fmt.Errorf("audio: invalid sample rate %v", sampleRate)
	}

	pos := 0
	stream := beep.StreamerFunc(func(frames [][2]float64) (int, bool) {
		if pos >= len(samples) {
			return 0, false
		}

		n := copyFrames(frames, samples[pos:])
		pos += n

		return n, true
	})

	format := beep.Format{
		SampleRate:  beep.SampleRate(int(sampleRate)),
		NumChannels: 1,
		Precision:   2,
	}

	if err := wav.Encode(w, stream, format); err != nil {
		return fmt.Errorf("audio: encode wav: %w", err)
	}

	return nil
}

func copyFrames(frames [][2]float64, samples []float64) int {
	n := min(len(frames), len(samples))
	for i := range n {
		frames[i][0] = samples[i]
		frames[i][1] = samples[i]
	}

	return n
}

// BlockDuration returns the real-time length of blockSize samples.
func BlockDuration(sampleRate float64, blockSize int) time.Duration {
	if !(sampleRate > 0) || blockSize <= 0 {
		return 0
	}

	return beep.SampleRate(int(sampleRate)).D(blockSize)
}

// BlockReader yields successive input blocks.
type BlockReader interface {
	ReadBlock(dst []float64) (int, error)
}

// BlockProcessor transforms one block; it is implemented by
// *pipeline.Pipeline.
type BlockProcessor interface {
	ProcessBlock(dst, src []float64) int
}

// Run reads blockSize samples at a time from src, processes them and
// passes the output to sink until src is exhausted or ctx is done. With a
// positive pace, at most one block is processed per pace interval. The
// buffer passed to sink is reused for the next block.
func Run(ctx context.Context, src BlockReader, p BlockProcessor, sink func([]float64) error, blockSize int, pace time.Duration) error {
	if blockSize <= 0 {
		return fmt.Errorf("%w: %d", ErrBlockSize, blockSize)
	}

	in := make([]float64, blockSize)
	out := make([]float64, blockSize)

	var tick <-chan time.Time

	if pace > 0 {
		ticker := time.NewTicker(pace)
		defer ticker.Stop()

		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		n, err := src.ReadBlock(in)
		if n > 0 {
			n = p.ProcessBlock(out[:n], in[:n])

			if sink != nil {
				if serr := sink(out[:n]); serr != nil {
					return fmt.Errorf("audio: sink: %w", serr)
				}
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}
	}
}
