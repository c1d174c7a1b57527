// SPDX-License-Identifier: MIT
package tui

import (
	"audioviz/internal/analysis"
	"audioviz/internal/audio"
	"audioviz/internal/viz"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func testDevices() ([]audio.Device, error) {
	return []audio.Device{
		{ID: 0, Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 48000},
		{ID: 1, Name: "Built-in Mic", HostAPI: "ALSA", MaxInputChannels: 1, DefaultSampleRate: 44100},
		{ID: 2, Name: "Interface", MaxInputChannels: 2, DefaultSampleRate: 192000},
	}, nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg and returns the updated picker.
func step(t *testing.T, m DeviceListModel, msg tea.Msg) (DeviceListModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(DeviceListModel), cmd
}

func TestPickerListsInputDevicesOnly(t *testing.T) {
	m := NewDeviceListModel(testDevices)
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = step(t, m, m.Init()())

	if len(m.devices) != 2 {
		t.Fatalf("devices = %d, want 2", len(m.devices))
	}
	view := m.View()
	if strings.Contains(view, "Speakers") {
		t.Error("output-only device listed")
	}
	if !strings.Contains(view, "Built-in Mic") || !strings.Contains(view, "ALSA") {
		t.Errorf("view missing input device:\n%s", view)
	}
}

func TestPickerSelection(t *testing.T) {
	m := NewDeviceListModel(testDevices)
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = step(t, m, m.Init()())

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.activeScreen != ConfigScreen {
		t.Fatal("enter did not open the config screen")
	}
	// 192000 is not a common rate, so it is appended and preselected.
	if got := m.availableSampleRates[m.sampleRateIndex]; got != 192000 {
		t.Errorf("preselected rate = %v, want 192000", got)
	}

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("confirm did not quit")
	}
	sel, ok := m.Selection()
	if !ok {
		t.Fatal("no selection")
	}
	want := Selection{DeviceID: 2, Name: "Interface", SampleRate: 96000}
	if sel != want {
		t.Errorf("selection = %+v, want %+v", sel, want)
	}
}

func TestPickerBackAndQuit(t *testing.T) {
	m := NewDeviceListModel(testDevices)
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = step(t, m, m.Init()())
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.activeScreen != ListScreen {
		t.Error("esc did not return to the list")
	}
	m, cmd := step(t, m, runes("q"))
	if cmd == nil {
		t.Error("q did not quit")
	}
	if _, ok := m.Selection(); ok {
		t.Error("quit produced a selection")
	}
}

func TestPickerFetchError(t *testing.T) {
	m := NewDeviceListModel(func() ([]audio.Device, error) { return nil, errors.New("no host") })
	m, _ = step(t, m, m.Init()())
	if !strings.Contains(m.View(), "no host") {
		t.Errorf("view = %q", m.View())
	}
}

type fakeTelemetry struct {
	spectrum []float64
	levels   [2]float64
	peaks    [2]float64
}

func (f *fakeTelemetry) SpectrumInto(dst []float64) int       { return copy(dst, f.spectrum) }
func (f *fakeTelemetry) LevelsInto(levels, peaks *[2]float64) { *levels, *peaks = f.levels, f.peaks }
func (f *fakeTelemetry) SampleRate() float64                  { return 48000 }
func (f *fakeTelemetry) Mode() viz.Mode                       { return viz.Waterfall }

type fakeControls struct {
	normalize bool
	resets    int
	cycles    int
}

func (f *fakeControls) CycleMode() viz.Mode   { f.cycles++; return viz.RawSpectrum }
func (f *fakeControls) ToggleNormalize() bool { f.normalize = !f.normalize; return f.normalize }
func (f *fakeControls) Reset()                { f.resets++ }
func (f *fakeControls) Normalize() bool       { return f.normalize }

func TestMonitorSamplesOnTick(t *testing.T) {
	src := &fakeTelemetry{
		spectrum: make([]float64, 2*analysis.Bins),
		levels:   [2]float64{0.5, 0},
		peaks:    [2]float64{0.7, 0},
	}
	src.spectrum[10] = analysis.FullScale
	m := NewMonitorModel(src, MonitorOptions{Refresh: 20 * time.Millisecond})

	for range 200 {
		m.Update(tickMsg(time.Now()))
	}

	if m.columns[0][10/(analysis.Bins/SpectrumColumns)] != 1 {
		t.Errorf("full-scale bin column = %v, want 1", m.columns[0][2])
	}
	if m.columns[1][0] != 0 {
		t.Errorf("silent channel column = %v", m.columns[1][0])
	}
	want := MeterFraction(0.5)
	if diff := m.meter[0] - want; diff > 0.01 || diff < -0.01 {
		t.Errorf("meter settled at %v, want %v", m.meter[0], want)
	}

	view := m.View()
	if !strings.Contains(view, "waterfall") || !strings.Contains(view, "48000 Hz") {
		t.Errorf("header missing:\n%s", view)
	}
	if !strings.Contains(view, "█") {
		t.Error("no filled cells rendered")
	}
}

func TestMonitorControls(t *testing.T) {
	c := &fakeControls{}
	snaps := 0
	m := NewMonitorModel(&fakeTelemetry{}, MonitorOptions{
		Controls: c,
		Snapshot: func() (string, error) { snaps++; return "shot.png", nil },
	})

	m.Update(runes("m"))
	m.Update(runes("n"))
	m.Update(runes("r"))
	m.Update(runes("s"))

	if c.cycles != 1 || !c.normalize || c.resets != 1 || snaps != 1 {
		t.Errorf("controls = %+v, snapshots = %d", c, snaps)
	}
	if !strings.Contains(m.View(), "shot.png") {
		t.Error("snapshot status not shown")
	}

	_, cmd := m.Update(runes("q"))
	if cmd == nil || m.View() != "" {
		t.Error("q did not quit")
	}
}

func TestMonitorWithoutControlsIgnoresKeys(t *testing.T) {
	m := NewMonitorModel(&fakeTelemetry{}, MonitorOptions{})
	if _, cmd := m.Update(runes("m")); cmd != nil {
		t.Error("unexpected command")
	}
	if strings.Contains(m.View(), "m: Mode") {
		t.Error("help lists controls without an engine")
	}
}

func TestMeterFraction(t *testing.T) {
	tests := []struct {
		level float64
		want  float64
	}{
		{0, 0},
		{-1, 0},
		{1, 1},
		{2, 1},
		{0.001, 0}, // -60 dB
		{0.031622776601683794, 0.5},
	}
	for _, tt := range tests {
		if got := MeterFraction(tt.level); got-tt.want > 1e-9 || tt.want-got > 1e-9 {
			t.Errorf("MeterFraction(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestRenderColumns(t *testing.T) {
	got := renderColumns([]float64{0, 0.5, 1}, 2)
	want := "  █\n ██"
	if got != want {
		t.Errorf("renderColumns = %q, want %q", got, want)
	}
}
