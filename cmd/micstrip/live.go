package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-micstrip/dsp/pipeline"
	"github.com/cwbudde/algo-micstrip/internal/audio"
	"github.com/cwbudde/algo-micstrip/internal/control"
	"github.com/cwbudde/algo-micstrip/internal/telemetry"
	"github.com/cwbudde/algo-micstrip/internal/ui"
)

// ConsoleCmd plays a file in real time while serving the text protocol on
// stdin and streaming telemetry on stdout.
type ConsoleCmd struct {
	Input    string        `arg:"" type:"existingfile" help:"Input WAV file."`
	Set      []string      `short:"s" sep:"none" placeholder:"CMD" help:"Control command applied before playback. Repeatable."`
	Interval time.Duration `default:"100ms" help:"Telemetry period."`
}

// Run implements the console command.
func (c *ConsoleCmd) Run(g *Globals) error {
	src, p, err := openStrip(g, c.Input, c.Set)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := telemetry.NewSyncWriter(g.stdout)
	d := control.NewDispatcher(p)
	reporter := &telemetry.Reporter{Source: p, Writer: out, Interval: c.Interval}

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()
		logDone("console control", d.Serve(ctx, g.stdin, out))
	}()

	go func() {
		defer wg.Done()
		logDone("console telemetry", reporter.Run(ctx))
	}()

	err = playback(ctx, src, p)

	cancel()
	wg.Wait()

	return err
}

// MonitorCmd plays a file in real time with the live meter display.
type MonitorCmd struct {
	Input   string        `arg:"" type:"existingfile" help:"Input WAV file."`
	Set     []string      `short:"s" sep:"none" placeholder:"CMD" help:"Control command applied before playback. Repeatable."`
	Refresh time.Duration `default:"100ms" help:"Meter refresh period."`
}

// Run implements the monitor command.
func (c *MonitorCmd) Run(g *Globals) error {
	src, p, err := openStrip(g, c.Input, c.Set)
	if err != nil {
		return err
	}
	defer src.Close()

	// The alt screen owns the terminal while the monitor runs.
	logrus.SetOutput(io.Discard)
	defer logrus.SetOutput(g.stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := ui.NewModel(p, filepath.Base(c.Input), c.Refresh)
	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx),
		tea.WithInput(g.stdin), tea.WithOutput(g.stdout))

	done := make(chan error, 1)

	go func() {
		err := playback(ctx, src, p)
		prog.Send(ui.PlaybackDoneMsg{Err: err})
		done <- err
	}()

	final, err := prog.Run()

	cancel()

	playErr := <-done

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	if m, ok := final.(ui.Model); ok && m.Err != nil {
		return m.Err
	}

	return playErr
}

// playback drives src through p at the real-time rate until the file ends
// or ctx is done. Cancellation is not an error.
func playback(ctx context.Context, src *audio.Source, p *pipeline.Pipeline) error {
	blockSize := p.Config().BlockSize

	err := audio.Run(ctx, src, p, nil, blockSize, audio.BlockDuration(p.SampleRate(), blockSize))
	if errors.Is(err, context.Canceled) {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"function": "playback",
		"blocks":   p.Blocks(),
	}).Info("Playback finished")

	return err
}

func logDone(what string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}

	logrus.WithFields(logrus.Fields{
		"function": "logDone",
		"loop":     what,
		"error":    err.Error(),
	}).Error("Loop stopped with error")
}
