// SPDX-License-Identifier: MIT
package cmd

import (
	"audioviz/internal/audio"
	"audioviz/internal/log"
	"audioviz/pkg/utils"
	"bytes"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// writeSineWAV records one second of a stereo sine through the recorder.
func writeSineWAV(t *testing.T, dir string) string {
	t.Helper()
	const rate = 44100
	path := filepath.Join(dir, "tone.wav")

	rec := audio.NewRecorder(rate, 1024)
	if err := rec.Start(path); err != nil {
		t.Fatal(err)
	}
	wave := utils.GenerateSineWave(rate, rate, 1000, 0.5)
	if err := rec.Write(utils.Interleave(wave, wave)); err != nil {
		t.Fatal(err)
	}
	if err := rec.Stop(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderCommandWritesPNG(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	input := writeSineWAV(t, dir)
	out := filepath.Join(dir, "out", "bars.png")

	var stdout bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&stdout)
	root.SetArgs([]string{"render", input, "--out", out, "--mode", "bars8"})
	if err := root.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 768 {
		t.Errorf("image bounds = %v", b)
	}
	if !strings.Contains(stdout.String(), "bars8") {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestRenderCommandDefaultOutput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	input := writeSineWAV(t, dir)

	root := NewRootCommand()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"render", input, "-m", "waterfall"})
	if err := root.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "tone_waterfall.png")); err != nil {
		t.Errorf("default output missing: %v", err)
	}
}

func TestRenderCommandRejectsBadMode(t *testing.T) {
	t.Chdir(t.TempDir())
	root := NewRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"render", "missing.wav", "--mode", "sparkles"})
	if err := root.Execute(); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := "audio:\n  sample_rate: 48000\ndisplay:\n  mode: waterfall\n  scale: 3\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := &options{}
	root := newRootCommand(opts)
	if err := root.ParseFlags([]string{"--mode", "bars16", "--normalize", "--display", "none"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(root, opts)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("sample rate = %v, want file value 48000", cfg.Audio.SampleRate)
	}
	if cfg.Display.Scale != 3 {
		t.Errorf("scale = %d, want file value 3", cfg.Display.Scale)
	}
	if cfg.Display.Mode != "bars16" || !cfg.Display.Normalize || cfg.Display.Host != "none" {
		t.Errorf("flags not applied: %+v", cfg.Display)
	}
}

func TestRecordingPath(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := loadConfig(NewRootCommand(), &options{})
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := recordingPath(cfg, &options{output: "take.wav"}, now); got != "take.wav" {
		t.Errorf("explicit path = %q", got)
	}
	if got := recordingPath(cfg, &options{}, now); !strings.HasSuffix(got, "audioviz-20250102-030405.wav") {
		t.Errorf("default path = %q", got)
	}
}
