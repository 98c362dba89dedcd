// Command micstrip runs WAV files through the voice channel strip.
//
// Usage:
//
//	micstrip [flags] <command> [args]
//
// Examples:
//
//	micstrip process in.wav out.wav --set EQ_LOW_GAIN=3 --set COMP_RATIO=6
//	micstrip console in.wav
//	micstrip monitor in.wav
//	micstrip eq --set EQ_MID_GAIN=-4
//	micstrip windows --size 1024 hann blackman
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-micstrip/dsp/pipeline"
	"github.com/cwbudde/algo-micstrip/dsp/window"
	"github.com/cwbudde/algo-micstrip/internal/control"
)

var version = "0.1.0"

// Globals are the flags shared by every command.
type Globals struct {
	Version      kong.VersionFlag `short:"v" help:"Show version information."`
	Config       kong.ConfigFlag  `short:"c" help:"Load flag values from a JSON file."`
	SampleRate   float64          `help:"Processing rate in Hz; 0 uses the input file's rate." default:"0"`
	BlockSize    int              `help:"Samples per processing block." default:"128"`
	AnalysisSize int              `help:"Spectrum block length, a power of two." default:"512"`
	Window       string           `help:"Spectrum window (rectangular, hann, hamming, blackman)." default:"hamming"`
	InputGain    float64          `help:"Linear gain ahead of the EQ." default:"1"`
	LogLevel     string           `help:"Log level." enum:"debug,info,warn,error" default:"warn"`
	LogFormat    string           `help:"Log format." enum:"text,json" default:"text"`

	stdin  io.Reader `kong:"-"`
	stdout io.Writer `kong:"-"`
	stderr io.Writer `kong:"-"`
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Process ProcessCmd `cmd:"" help:"Render a WAV file through the strip."`
	Console ConsoleCmd `cmd:"" help:"Play a file in real time with text control and telemetry."`
	Monitor MonitorCmd `cmd:"" help:"Play a file in real time with a live meter display."`
	EQ      EQCmd      `cmd:"" name:"eq" help:"Print the EQ magnitude response."`
	Windows WindowsCmd `cmd:"" help:"Print spectral properties of the analysis windows."`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "micstrip: %v\n", err)
		os.Exit(1)
	}
}

func newParser(cli *CLI, stdout, stderr io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("micstrip"),
		kong.Description("Voice channel strip: EQ, dynamics and spectrum metering."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON),
		kong.Writers(stdout, stderr),
		kong.Vars{
			"version": version,
		},
	)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cli := &CLI{}

	parser, err := newParser(cli, stdout, stderr)
	if err != nil {
		return err
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cli.stdin = stdin
	cli.stdout = stdout
	cli.stderr = stderr

	if err := cli.configureLogging(); err != nil {
		return err
	}

	return ctx.Run(&cli.Globals)
}

func (g *Globals) configureLogging() error {
	level, err := logrus.ParseLevel(g.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	logrus.SetLevel(level)
	logrus.SetOutput(g.stderr)

	if g.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return nil
}

// newPipeline builds a pipeline from the global flags. fileRate is used
// when no sample rate was given.
func (g *Globals) newPipeline(fileRate float64) (*pipeline.Pipeline, error) {
	wt, err := window.ParseType(g.Window)
	if err != nil {
		return nil, err
	}

	rate := g.SampleRate
	if rate <= 0 {
		rate = fileRate
	} else if fileRate > 0 && rate != fileRate {
		logrus.WithFields(logrus.Fields{
			"function":  "newPipeline",
			"flagRate":  rate,
			"inputRate": fileRate,
		}).Warn("Sample rate differs from input; audio is not resampled")
	}

	return pipeline.New(
		pipeline.WithSampleRate(rate),
		pipeline.WithBlockSize(g.BlockSize),
		pipeline.WithAnalysisSize(g.AnalysisSize),
		pipeline.WithAnalysisWindow(wt),
		pipeline.WithInputGain(g.InputGain),
	)
}

// applyCommands runs control commands in order and stops at the first
// rejected one.
func applyCommands(d *control.Dispatcher, cmds []string) error {
	for _, cmd := range cmds {
		if _, err := d.Execute(cmd); err != nil {
			return fmt.Errorf("--set %q: %w", cmd, err)
		}
	}

	return nil
}
