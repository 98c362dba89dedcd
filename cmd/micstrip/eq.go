package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/cwbudde/algo-micstrip/dsp/filter/eq"
	"github.com/cwbudde/algo-micstrip/internal/control"
)

// thirdOctaveHz are the nominal ISO 266 one-third-octave centres.
var thirdOctaveHz = []float64{
	20, 25, 31.5, 40, 50, 63, 80, 100, 125, 160, 200, 250, 315, 400, 500,
	630, 800, 1000, 1250, 1600, 2000, 2500, 3150, 4000, 5000, 6300, 8000,
	10000, 12500, 16000, 20000,
}

// EQCmd prints the combined EQ response.
type EQCmd struct {
	Set []string `short:"s" sep:"none" placeholder:"CMD" help:"Control command applied first, e.g. EQ_MID_GAIN=-4. Repeatable."`
}

// Run implements the eq command.
func (c *EQCmd) Run(g *Globals) error {
	p, err := g.newPipeline(0)
	if err != nil {
		return err
	}

	d := control.NewDispatcher(p)
	if err := applyCommands(d, c.Set); err != nil {
		return err
	}

	for i, bp := range p.EQParams() {
		if _, err := fmt.Fprintf(g.stdout, "%-4s %-9s fc=%8.2f Hz  q=%.3f  gain=%+.2f dB\n",
			eq.Band(i), bp.Shape, bp.FreqHz, bp.Q, bp.GainDB); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(g.stdout); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Frequency [Hz]\tResponse [dB]\n--------------\t-------------\n"); err != nil {
		return err
	}

	nyquist := p.SampleRate() / 2

	for _, f := range thirdOctaveHz {
		if f >= nyquist {
			break
		}

		if _, err := fmt.Fprintf(tw, "%g\t%+.2f\n", f, p.EQResponseDB(f)); err != nil {
			return err
		}
	}

	return tw.Flush()
}
