// Package ui provides the Bubbletea live monitor for the channel strip.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwbudde/algo-micstrip/dsp/spectrum"
)

// DefaultRefresh is the meter polling period.
const DefaultRefresh = 100 * time.Millisecond

// Source is what the monitor reads and controls. *pipeline.Pipeline
// satisfies it.
type Source interface {
	LevelDBFS() float64
	PeakDBFS() float64
	Bands() [spectrum.NumBands]float64
	Bypassed() bool
	SetBypass(on bool)
}

// Model is the Bubbletea model for the monitor.
type Model struct {
	src     Source
	refresh time.Duration

	// Title is shown in the header, usually the input file name.
	Title string

	// Meter readings from the last poll
	Level  float64
	Peak   float64
	Bands  [spectrum.NumBands]float64
	Bypass bool

	// Done is set once playback ends or the user quits.
	Done bool
	Err  error

	// Terminal dimensions
	Width  int
	Height int
}

// tickMsg triggers a meter poll.
type tickMsg time.Time

// PlaybackDoneMsg tells the monitor the audio loop has stopped.
type PlaybackDoneMsg struct {
	Err error
}

// NewModel creates a monitor polling src every refresh interval. A
// non-positive refresh selects DefaultRefresh.
func NewModel(src Source, title string, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}

	m := Model{
		src:     src,
		refresh: refresh,
		Title:   title,
	}
	m.poll()

	return m
}

// Init starts the polling loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.refresh)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles key presses, resizes and poll ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Done = true
			return m, tea.Quit
		case "b":
			m.src.SetBypass(!m.src.Bypassed())
			m.poll()
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if m.Done {
			return m, nil
		}

		m.poll()

		return m, tickCmd(m.refresh)

	case PlaybackDoneMsg:
		m.poll()
		m.Done = true
		m.Err = msg.Err

		return m, tea.Quit
	}

	return m, nil
}

// View renders the meters.
func (m Model) View() string {
	return renderMonitor(m)
}

func (m *Model) poll() {
	m.Level = m.src.LevelDBFS()
	m.Peak = m.src.PeakDBFS()
	m.Bands = m.src.Bands()
	m.Bypass = m.src.Bypassed()
}
