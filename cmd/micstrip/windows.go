package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/cwbudde/algo-micstrip/dsp/window"
)

var analysisWindows = []window.Type{
	window.TypeRectangular,
	window.TypeHann,
	window.TypeHamming,
	window.TypeBlackman,
}

// WindowsCmd prints the leakage properties of the spectrum windows.
type WindowsCmd struct {
	Names    []string `arg:"" optional:"" help:"Window names; all when omitted."`
	Size     int      `default:"512" help:"Window length in samples."`
	Periodic bool     `default:"true" negatable:"" help:"Use the periodic (FFT) form."`
}

// Run implements the windows command.
func (c *WindowsCmd) Run(g *Globals) error {
	if c.Size < 2 {
		return fmt.Errorf("window size %d: must be at least 2", c.Size)
	}

	types := analysisWindows

	if len(c.Names) > 0 {
		types = make([]window.Type, 0, len(c.Names))

		for _, name := range c.Names {
			t, err := window.ParseType(name)
			if err != nil {
				return err
			}

			types = append(types, t)
		}
	}

	var opts []window.Option
	if c.Periodic {
		opts = append(opts, window.WithPeriodic())
	}

	tw := tabwriter.NewWriter(g.stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Window\tSize\tCoherent Gain\tENBW [bins]\tSidelobe [dB]\t1st Min [bins]\tScallop [dB]\n"); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(tw, "------\t----\t-------------\t-----------\t-------------\t--------------\t------------\n"); err != nil {
		return err
	}

	for _, t := range types {
		a := window.Analyze(window.Generate(t, c.Size, opts...))

		if _, err := fmt.Fprintf(tw, "%s\t%d\t%.6f\t%.4f\t%.2f\t%.4f\t%.4f\n",
			t, c.Size, a.CoherentGain, a.ENBW, a.HighestSidelobedB, a.FirstMinimumBins, a.ScallopLossdB); err != nil {
			return err
		}
	}

	return tw.Flush()
}
