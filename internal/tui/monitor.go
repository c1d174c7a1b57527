// SPDX-License-Identifier: MIT
package tui

import (
	"audioviz/internal/analysis"
	"audioviz/internal/capture"
	"audioviz/internal/viz"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
)

const (
	DefaultRefresh  = 50 * time.Millisecond
	SpectrumColumns = 64 // Per channel.
	SpectrumRows    = 4
	MeterFloor      = -60.0 // dB at the left edge of a meter.
	defaultWidth    = 80
)

// blocks are the eighth-height glyphs used for spectrum cells.
var blocks = []rune(" ▁▂▃▄▅▆▇█")

var (
	keyMode      = key.NewBinding(key.WithKeys("m", " "))
	keyNormalize = key.NewBinding(key.WithKeys("n"))
	keyReset     = key.NewBinding(key.WithKeys("r"))
	keySnapshot  = key.NewBinding(key.WithKeys("s"))
	keyMonQuit   = key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"))
)

// Controls are the engine operations the monitor can trigger. A monitor
// of remote telemetry runs without them.
type Controls interface {
	CycleMode() viz.Mode
	ToggleNormalize() bool
	Reset()
	Normalize() bool
}

var _ Controls = (*viz.Engine)(nil)

// MonitorOptions configures a MonitorModel.
type MonitorOptions struct {
	Title    string
	Refresh  time.Duration
	Controls Controls               // Optional.
	Snapshot func() (string, error) // Optional; bound to s.
}

type tickMsg time.Time

// MonitorModel draws live levels and a coarse spectrum from a
// TelemetryProvider.
type MonitorModel struct {
	source   viz.TelemetryProvider
	opts     MonitorOptions
	width    int
	status   string
	quitting bool

	spectrum []float64
	columns  [capture.Channels][SpectrumColumns]float64
	levels   [capture.Channels]float64
	peaks    [capture.Channels]float64

	spring harmonica.Spring
	meter  [capture.Channels]float64 // Displayed fraction, sprung towards the level.
	vel    [capture.Channels]float64
}

// NewMonitorModel creates a monitor over source.
func NewMonitorModel(source viz.TelemetryProvider, opts MonitorOptions) *MonitorModel {
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	if opts.Title == "" {
		opts.Title = "audioviz"
	}
	fps := max(int(time.Second/opts.Refresh), 1)
	return &MonitorModel{
		source:   source,
		opts:     opts,
		width:    defaultWidth,
		spectrum: make([]float64, capture.Channels*analysis.Bins),
		spring:   harmonica.NewSpring(harmonica.FPS(fps), 8.0, 0.9),
	}
}

func (m *MonitorModel) tick() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *MonitorModel) Init() tea.Cmd {
	return m.tick()
}

func (m *MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		m.sample()
		return m, m.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keyMonQuit):
			m.quitting = true
			return m, tea.Quit
		case m.opts.Controls == nil:
		case key.Matches(msg, keyMode):
			m.status = "mode " + m.opts.Controls.CycleMode().String()
		case key.Matches(msg, keyNormalize):
			m.status = fmt.Sprintf("normalize %t", m.opts.Controls.ToggleNormalize())
		case key.Matches(msg, keyReset):
			m.opts.Controls.Reset()
			m.status = "reset"
		}
		if key.Matches(msg, keySnapshot) && m.opts.Snapshot != nil {
			if path, err := m.opts.Snapshot(); err != nil {
				m.status = "snapshot failed: " + err.Error()
			} else {
				m.status = "saved " + path
			}
		}
	}
	return m, nil
}

// sample pulls the latest analysis and advances the meter springs.
func (m *MonitorModel) sample() {
	m.source.LevelsInto(&m.levels, &m.peaks)
	n := m.source.SpectrumInto(m.spectrum)
	clear(m.spectrum[n:])

	normalize := m.opts.Controls != nil && m.opts.Controls.Normalize()
	for ch := range capture.Channels {
		bins := m.spectrum[ch*analysis.Bins : (ch+1)*analysis.Bins]
		analysis.GroupMax(m.columns[ch][:], bins, analysis.Bins/SpectrumColumns)

		ref := analysis.FullScale
		if normalize {
			if mx := analysis.MaxOf(bins); mx > 0 {
				ref = mx
			}
		}
		for i, v := range m.columns[ch] {
			m.columns[ch][i] = float64(analysis.Quantize(v/ref*analysis.FullScale)) / 255
		}

		m.meter[ch], m.vel[ch] = m.spring.Update(m.meter[ch], m.vel[ch], MeterFraction(m.levels[ch]))
	}
}

// MeterFraction maps a linear level onto 0..1 across MeterFloor..0 dB.
func MeterFraction(level float64) float64 {
	if !(level > 0) {
		return 0
	}
	db := 20 * math.Log10(level)
	return math.Max(0, math.Min(1, (db-MeterFloor)/-MeterFloor))
}

func (m *MonitorModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	header := fmt.Sprintf("%s  %s  %.0f Hz", m.opts.Title, m.source.Mode(), m.source.SampleRate())
	if m.opts.Controls != nil && m.opts.Controls.Normalize() {
		header += "  normalized"
	}
	sb.WriteString(titleStyle.Render(header))
	sb.WriteString("\n\n")

	meterWidth := max(m.width-16, 10)
	for ch, name := range []string{"L", "R"} {
		fmt.Fprintf(&sb, "%s %s %s\n", name, m.renderMeter(ch, meterWidth), formatDB(m.levels[ch]))
	}
	sb.WriteString("\n")

	for ch := range capture.Channels {
		sb.WriteString(spectrumStyle.Render(renderColumns(m.columns[ch][:], SpectrumRows)))
		sb.WriteString("\n")
	}

	help := "q: Quit"
	if m.opts.Controls != nil {
		help = "m: Mode • n: Normalize • r: Reset • " + help
	}
	if m.opts.Snapshot != nil {
		help = "s: Snapshot • " + help
	}
	sb.WriteString("\n")
	sb.WriteString(infoStyle.Render(help))
	if m.status != "" {
		sb.WriteString("  ")
		sb.WriteString(dimStyle.Render(m.status))
	}
	return sb.String()
}

// renderMeter draws a horizontal bar with a peak-hold marker.
func (m *MonitorModel) renderMeter(ch, width int) string {
	filled := int(math.Round(math.Max(0, math.Min(1, m.meter[ch])) * float64(width)))
	peak := int(math.Round(MeterFraction(m.peaks[ch]) * float64(width-1)))

	var bar, rest strings.Builder
	for i := range width {
		switch {
		case i == peak && m.peaks[ch] > 0 && i >= filled:
			rest.WriteString(peakStyle.Render("|"))
		case i < filled:
			bar.WriteRune('█')
		default:
			rest.WriteString(dimStyle.Render("·"))
		}
	}
	return meterStyle.Render(bar.String()) + rest.String()
}

// renderColumns draws values in 0..1 as rows of eighth-block glyphs, top
// row first.
func renderColumns(values []float64, rows int) string {
	var sb strings.Builder
	steps := len(blocks) - 1
	for r := rows - 1; r >= 0; r-- {
		for _, v := range values {
			cell := int(math.Round(v*float64(rows*steps))) - r*steps
			sb.WriteRune(blocks[max(0, min(cell, steps))])
		}
		if r > 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func formatDB(level float64) string {
	if !(level > 0) {
		return "  -inf dB"
	}
	return fmt.Sprintf("%6.1f dB", 20*math.Log10(level))
}

// RunMonitor runs the monitor full screen until the user quits or ctx
// ends.
func RunMonitor(ctx context.Context, source viz.TelemetryProvider, opts MonitorOptions) error {
	p := tea.NewProgram(NewMonitorModel(source, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
