// Package control implements the line-oriented text protocol used to tune a
// running pipeline, e.g. "EQ_MID_GAIN=3" or "COMP_RATIO=4". It is a thin
// adapter: every command maps to one pipeline setter or getter.
package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-micstrip/dsp/filter/design"
	"github.com/cwbudde/algo-micstrip/dsp/filter/eq"
	"github.com/cwbudde/algo-micstrip/dsp/pipeline"
	"github.com/cwbudde/algo-micstrip/internal/telemetry"
)

var (
	// ErrUnknownCommand is returned for lines that match no command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrMalformed is returned when a command's value cannot be parsed.
	ErrMalformed = errors.New("malformed command")
)

const maxLineLen = 128

const helpText = "Commands:\r\n" +
	"  help                       - show this help\r\n" +
	"  ping                       - check connection\r\n" +
	"  get eq                     - show EQ status\r\n" +
	"  REQ_RMS                    - read current RMS\r\n" +
	"  REQ_FFT                    - read band energies\r\n" +
	"  REQ_PEAK                   - read last block peak\r\n" +
	"  BYPASS=<0|1>\r\n" +
	"  INPUT_GAIN=<val>\r\n" +
	"  RMS_TIME=<ms>\r\n" +
	"  EQ_<LOW|MID|HIGH>_<FC|Q|GAIN>=<val>\r\n" +
	"  EQ_<LOW|MID|HIGH>_TYPE=<lowshelf|peaking|highshelf|lowpass|highpass|bandpass>\r\n" +
	"  EXPANDER_<THRESHOLD|RATIO|ATTACK|RELEASE|HOLD>=<val>\r\n" +
	"  COMP_<THRESHOLD|RATIO|MAKEUP|ATTACK|RELEASE|KNEE>=<val>\r\n" +
	"  LIMIT_<THRESHOLD|ATTACK|RELEASE>=<val>"

// Dispatcher executes control commands against a pipeline.
type Dispatcher struct {
	p *pipeline.Pipeline
}

// NewDispatcher returns a dispatcher for p.
func NewDispatcher(p *pipeline.Pipeline) *Dispatcher {
	return &Dispatcher{p: p}
}

// Execute runs one command line and returns the reply text without a line
// terminator. A failed command returns an "ERR ..." reply together with
// the error.
func (d *Dispatcher) Execute(line string) (string, error) {
	line = strings.TrimSpace(line)

	reply, err := d.execute(line)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Execute",
			"command":  line,
			"error":    err.Error(),
		}).Warn("Control command rejected")

		return "ERR " + err.Error(), err
	}

	logrus.WithFields(logrus.Fields{
		"function": "Execute",
		"command":  line,
		"reply":    reply,
	}).Debug("Control command executed")

	return reply, nil
}

func (d *Dispatcher) execute(line string) (string, error) {
	switch strings.ToLower(strings.Join(strings.Fields(line), " ")) {
	case "help":
		return helpText, nil
	case "ping":
		return "pong", nil
	case "get eq":
		return d.eqStatus(), nil
	case "req_rms":
		return fmt.Sprintf("RMS_DB=%.1f", d.p.LevelDBFS()), nil
	case "req_fft":
		return "FFT=" + telemetry.FormatBands(d.p.Bands()), nil
	case "req_peak":
		return fmt.Sprintf("PEAK_DB=%.1f", d.p.PeakDBFS()), nil
	}

	key, raw, ok := strings.Cut(line, "=")
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, line)
	}

	key = strings.ToUpper(strings.TrimSpace(key))
	raw = strings.TrimSpace(raw)

	switch {
	case key == "BYPASS":
		return d.setBypass(raw)
	case strings.HasPrefix(key, "EQ_"):
		return d.setEQ(key, raw)
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %q is not a number", ErrMalformed, key, raw)
	}

	var applied float64

	switch {
	case key == "INPUT_GAIN":
		applied, err = d.p.SetInputGain(value)
	case key == "RMS_TIME":
		applied, err = d.p.SetRMSTime(value)
	case strings.HasPrefix(key, "EXPANDER_"):
		var param pipeline.ExpanderParam
		if param, err = pipeline.ParseExpanderParam(strings.TrimPrefix(key, "EXPANDER_")); err == nil {
			applied, err = d.p.SetExpander(param, value)
		}
	case strings.HasPrefix(key, "COMP_"):
		var param pipeline.CompressorParam
		if param, err = pipeline.ParseCompressorParam(strings.TrimPrefix(key, "COMP_")); err == nil {
			applied, err = d.p.SetCompressor(param, value)
		}
	case strings.HasPrefix(key, "LIMIT_"):
		var param pipeline.LimiterParam
		if param, err = pipeline.ParseLimiterParam(strings.TrimPrefix(key, "LIMIT_")); err == nil {
			applied, err = d.p.SetLimiter(param, value)
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, key)
	}

	if err != nil {
		return "", err
	}

	return fmt.Sprintf("OK %s=%.2f", key, applied), nil
}

func (d *Dispatcher) setBypass(raw string) (string, error) {
	var on bool

	switch strings.ToUpper(raw) {
	case "1", "ON", "TRUE":
		on = true
	case "0", "OFF", "FALSE":
	default:
		return "", fmt.Errorf("%w: BYPASS: %q is not 0 or 1", ErrMalformed, raw)
	}

	d.p.SetBypass(on)

	logrus.WithFields(logrus.Fields{
		"function": "setBypass",
		"bypass":   on,
	}).Info("Bypass switched")

	if on {
		return "OK BYPASS=1", nil
	}

	return "OK BYPASS=0", nil
}

func (d *Dispatcher) setEQ(key, raw string) (string, error) {
	bandName, paramName, ok := strings.Cut(strings.TrimPrefix(key, "EQ_"), "_")
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMalformed, key)
	}

	band, err := eq.ParseBand(bandName)
	if err != nil {
		return "", err
	}

	if paramName == "TYPE" {
		shape, err := design.ParseShape(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %w", pipeline.ErrInvalidParameter, err)
		}

		if err := d.p.SetEQShape(band, shape); err != nil {
			return "", err
		}

		return fmt.Sprintf("OK %s=%s", key, shape), nil
	}

	param, err := eq.ParseParam(paramName)
	if err != nil {
		return "", err
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %q is not a number", ErrMalformed, key, raw)
	}

	applied, err := d.p.SetEQ(band, param, value)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("OK %s=%.2f", key, applied), nil
}

func (d *Dispatcher) eqStatus() string {
	params := d.p.EQParams()
	lines := make([]string, 0, len(params))

	for i, p := range params {
		lines = append(lines, fmt.Sprintf("EQ_%s type=%s fc=%.2f q=%.3f gain=%+.2f",
			eq.Band(i), p.Shape, p.FreqHz, p.Q, p.GainDB))
	}

	return strings.Join(lines, "\r\n")
}

// Serve reads commands from r line by line and writes each reply followed
// by CRLF to w. It returns nil at end of input and ctx.Err() once ctx is
// done.
//
// Serve returns on cancellation without waiting for r. The goroutine reading
// r stays blocked in Read until r yields another line, reaches EOF or fails,
// and then exits. Callers that need it gone must close r after cancelling;
// for os.Stdin in a CLI, process exit does that.
func (d *Dispatcher) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	logrus.WithFields(logrus.Fields{
		"function": "Serve",
	}).Info("Control loop started")

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)

		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}

		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-lines:
			if !ok {
				logrus.WithFields(logrus.Fields{
					"function": "Serve",
				}).Info("Control input closed")

				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}

			line := CleanLine(raw)
			if line == "" {
				continue
			}

			reply, _ := d.Execute(line)
			if _, err := io.WriteString(w, reply+"\r\n"); err != nil {
				return fmt.Errorf("control: write reply: %w", err)
			}
		}
	}
}

// CleanLine applies terminal editing to raw input: backspace and DEL remove
// the previous character, other control characters are dropped and the
// result is cut to the command buffer length.
func CleanLine(raw string) string {
	buf := make([]byte, 0, len(raw))

	for i := range len(raw) {
		c := raw[i]

		switch {
		case c == 0x08 || c == 0x7f:
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
			}
		case c < 0x20:
		case len(buf) < maxLineLen-1:
			buf = append(buf, c)
		}
	}

	return strings.TrimSpace(string(buf))
}
