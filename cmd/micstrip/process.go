package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-micstrip/dsp/pipeline"
	"github.com/cwbudde/algo-micstrip/internal/audio"
	"github.com/cwbudde/algo-micstrip/internal/control"
	"github.com/cwbudde/algo-micstrip/internal/levels"
)

// ProcessCmd renders a file offline.
type ProcessCmd struct {
	Input  string   `arg:"" type:"existingfile" help:"Input WAV file."`
	Output string   `arg:"" type:"path" help:"Output WAV file (16-bit mono)."`
	Set    []string `short:"s" sep:"none" placeholder:"CMD" help:"Control command applied before processing, e.g. COMP_RATIO=6. Repeatable."`
	Quiet  bool     `short:"q" help:"Do not print the final status."`
}

// processReport is what the process command prints when done.
type processReport struct {
	Input  levels.Summary  `json:"input"`
	Output levels.Summary  `json:"output"`
	Status pipeline.Status `json:"status"`
}

// measuredReader records the level of everything read through it.
type measuredReader struct {
	audio.BlockReader
	acc levels.Accumulator
}

func (m *measuredReader) ReadBlock(dst []float64) (int, error) {
	n, err := m.BlockReader.ReadBlock(dst)
	m.acc.Update(dst[:n])

	return n, err
}

// Run implements the process command.
func (c *ProcessCmd) Run(g *Globals) error {
	src, p, err := openStrip(g, c.Input, c.Set)
	if err != nil {
		return err
	}
	defer src.Close()

	in := &measuredReader{BlockReader: src}
	rendered := make([]float64, 0, src.Len())
	start := time.Now()

	err = audio.Run(context.Background(), in, p, func(block []float64) error {
		rendered = append(rendered, block...)
		return nil
	}, p.Config().BlockSize, 0)
	if err != nil {
		return fmt.Errorf("process %s: %w", c.Input, err)
	}

	if err := writeWAVFile(c.Output, p.SampleRate(), rendered); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function": "ProcessCmd.Run",
		"input":    c.Input,
		"output":   c.Output,
		"samples":  len(rendered),
		"elapsed":  time.Since(start).String(),
	}).Info("Rendered file")

	if c.Quiet {
		return nil
	}

	report, err := json.MarshalIndent(processReport{
		Input:  in.acc.Result(),
		Output: levels.Measure(rendered),
		Status: p.Status(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	_, err = fmt.Fprintf(g.stdout, "%s\n", report)

	return err
}

// openStrip decodes path and builds a pipeline for it with cmds applied.
func openStrip(g *Globals, path string, cmds []string) (*audio.Source, *pipeline.Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	src, err := audio.ReadWAV(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "openStrip",
		"path":       path,
		"sampleRate": src.SampleRate(),
		"channels":   src.Channels(),
		"frames":     src.Len(),
	}).Debug("Opened input")

	p, err := g.newPipeline(src.SampleRate())
	if err != nil {
		_ = src.Close()
		return nil, nil, err
	}

	if err := applyCommands(control.NewDispatcher(p), cmds); err != nil {
		_ = src.Close()
		return nil, nil, err
	}

	return src, p, nil
}

func writeWAVFile(path string, sampleRate float64, samples []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := audio.WriteWAV(f, sampleRate, samples); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}

	return f.Close()
}
