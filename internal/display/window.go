// SPDX-License-Identifier: MIT

// Package display hosts the engine's surface in a desktop window. The
// window shows the surface at an integer scale, calls Render once per video
// frame and maps keys to engine controls.
package display

import (
	"audioviz/internal/log"
	"audioviz/internal/render"
	"audioviz/internal/viz"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Controls is the part of the engine the window drives. *viz.Engine
// satisfies it.
type Controls interface {
	Render()
	CycleMode() viz.Mode
	ToggleNormalize() bool
	Reset()
	Mode() viz.Mode
}

var _ Controls = (*viz.Engine)(nil)

// Options configures the window.
type Options struct {
	Title       string
	Scale       int    // Integer pixel scale, 1 when unset.
	SnapshotDir string // Where S writes PNG snapshots.
}

type action int

const (
	actionNone action = iota
	actionCycleMode
	actionToggleNormalize
	actionReset
	actionSnapshot
	actionQuit
)

// keymap lists the keys polled every tick, in priority order.
var keymap = []struct {
	key ebiten.Key
	act action
}{
	{ebiten.KeyQ, actionQuit},
	{ebiten.KeyEscape, actionQuit},
	{ebiten.KeyM, actionCycleMode},
	{ebiten.KeySpace, actionCycleMode},
	{ebiten.KeyN, actionToggleNormalize},
	{ebiten.KeyR, actionReset},
	{ebiten.KeyS, actionSnapshot},
}

// Game implements ebiten.Game over an engine surface.
type Game struct {
	controls    Controls
	surface     *image.RGBA
	img         *ebiten.Image
	snapshotDir string
	now         func() time.Time
	stop        <-chan struct{}
}

// NewGame wraps controls and the RGBA surface it renders into.
func NewGame(controls Controls, surface *image.RGBA, snapshotDir string) (*Game, error) {
	if controls == nil {
		return nil, errors.New("display: controls cannot be nil")
	}
	if surface == nil || !render.FitsSurface(surface) {
		return nil, viz.ErrSurfaceSize
	}
	return &Game{
		controls:    controls,
		surface:     surface,
		snapshotDir: snapshotDir,
		now:         time.Now,
	}, nil
}

// StopOn ends the game at the next tick after done is closed.
func (g *Game) StopOn(done <-chan struct{}) {
	g.stop = done
}

func (g *Game) Update() error {
	select {
	case <-g.stop:
		return ebiten.Termination
	default:
	}
	for _, k := range keymap {
		if inpututil.IsKeyJustPressed(k.key) {
			if err := g.apply(k.act); err != nil {
				return err
			}
		}
	}
	return nil
}

// apply performs a control action. actionQuit returns ebiten.Termination,
// which ends RunGame without an error.
func (g *Game) apply(a action) error {
	switch a {
	case actionQuit:
		return ebiten.Termination
	case actionCycleMode:
		log.Infof("Display: mode %s", g.controls.CycleMode())
	case actionToggleNormalize:
		log.Infof("Display: normalize %t", g.controls.ToggleNormalize())
	case actionReset:
		g.controls.Reset()
		log.Info("Display: reset")
	case actionSnapshot:
		path, err := g.Snapshot()
		if err != nil {
			log.Errorf("Display: %v", err)
			return nil
		}
		log.Infof("Display: snapshot saved to %s", path)
	}
	return nil
}

// Snapshot writes the current surface to a PNG in the snapshot directory.
func (g *Game) Snapshot() (string, error) {
	path := render.SnapshotPath(g.snapshotDir, g.controls.Mode().String(), g.now())
	if err := render.SavePNG(path, g.surface); err != nil {
		return "", err
	}
	return path, nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.controls.Render()
	if g.img == nil {
		g.img = ebiten.NewImage(render.ScreenWidth, render.ScreenHeight)
	}
	g.img.WritePixels(g.surface.Pix)
	screen.DrawImage(g.img, nil)
}

// Layout keeps the logical screen at the surface size; ebiten scales it to
// the window.
func (g *Game) Layout(_, _ int) (int, int) {
	return render.ScreenWidth, render.ScreenHeight
}

// Run opens the window and blocks until it is closed.
func Run(g *Game, opts Options) error {
	scale := max(opts.Scale, 1)
	title := opts.Title
	if title == "" {
		title = "audioviz"
	}

	ebiten.SetWindowSize(render.ScreenWidth*scale, render.ScreenHeight*scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	log.Infof("Display: opening %dx%d window at scale %d", render.ScreenWidth, render.ScreenHeight, scale)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}
