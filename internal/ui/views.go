package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cwbudde/algo-micstrip/dsp/spectrum"
)

// Meter scale
const (
	floorDB      = -60.0
	defaultWidth = 40
	minWidth     = 10
	maxWidth     = 72
	labelWidth   = 14
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A40000"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	filledStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	hotStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	clipStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000"))
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	bypassStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFA500"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000"))
)

func renderMonitor(m Model) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("micstrip"))
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(m.Title))
	b.WriteString("\n\n")

	width := meterWidth(m.Width)

	b.WriteString(renderMeter("RMS", m.Level, width))
	b.WriteString("\n")
	b.WriteString(renderMeter("Peak", m.Peak, width))
	b.WriteString("\n\n")

	for i, v := range m.Bands {
		b.WriteString(renderMeter(bandLabel(i), v, width))
		b.WriteString("\n")
	}

	b.WriteString("\n")

	if m.Bypass {
		b.WriteString(bypassStyle.Render("BYPASS"))
	} else {
		b.WriteString(activeStyle.Render("ACTIVE"))
	}

	if m.Err != nil {
		b.WriteString("  ")
		b.WriteString(errorStyle.Render("Error: " + m.Err.Error()))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("b: toggle bypass  q: quit"))

	return b.String()
}

// renderMeter renders one labelled horizontal bar.
func renderMeter(label string, db float64, width int) string {
	filled := int(meterFraction(db) * float64(width))
	empty := width - filled

	style := filledStyle

	switch {
	case db >= -1:
		style = clipStyle
	case db >= -12:
		style = hotStyle
	}

	bar := style.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("━", empty))

	return fmt.Sprintf("%s %s %6.1f dB", labelStyle.Render(fmt.Sprintf("%-*s", labelWidth, label)), bar, db)
}

// meterFraction maps a dB reading onto [0, 1] over the meter's range.
func meterFraction(db float64) float64 {
	if !(db > floorDB) {
		return 0
	}

	if db >= 0 {
		return 1
	}

	return (db - floorDB) / -floorDB
}

func meterWidth(termWidth int) int {
	if termWidth <= 0 {
		return defaultWidth
	}

	return min(max(termWidth-labelWidth-14, minWidth), maxWidth)
}

// bandLabel returns e.g. "250-500 Hz" for analysis band i.
func bandLabel(i int) string {
	return formatHz(spectrum.BandEdgesHz[i]) + "-" + formatHz(spectrum.BandEdgesHz[i+1]) + " Hz"
}

func formatHz(hz float64) string {
	if hz >= 1000 {
		return strconv.FormatFloat(hz/1000, 'f', -1, 64) + "k"
	}

	return strconv.FormatFloat(hz, 'f', -1, 64)
}
