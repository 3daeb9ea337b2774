//go:build !headless
// +build !headless

package monitor

import (
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Logical panel size. ebitenutil.DebugPrint glyphs are 6x16 pixels.
const (
	panelWidth   = 6*minWideWidth + 8
	panelHeight  = 16 * 40
	panelColumns = minWideWidth
)

// EbitengineBackend shows the machine state live in a window
type EbitengineBackend struct {
	initialized bool
	config      Config
	game        *EbitengineGame
}

// EbitengineGame implements ebiten.Game for the monitor window.
// Space pauses, N steps one instruction while paused, Escape closes.
type EbitengineGame struct {
	session       Session
	stepsPerFrame int
	debug         bool

	paused bool
	done   bool
	err    error
	text   string

	drawCount int
}

// NewEbitengineBackend creates a new Ebitengine backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("Ebitengine backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// Run opens the window and blocks until it is closed
func (b *EbitengineBackend) Run(session Session) error {
	if !b.initialized {
		return fmt.Errorf("backend not initialized")
	}

	scale := b.config.Scale
	if scale <= 0 {
		scale = 1
	}

	b.game = newEbitengineGame(session, b.config.StepsPerFrame, b.config.Debug)

	ebiten.SetWindowTitle(b.config.WindowTitle)
	ebiten.SetWindowSize(panelWidth*scale, panelHeight*scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(b.game); err != nil {
		return err
	}
	return b.game.err
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

func newEbitengineGame(session Session, stepsPerFrame int, debug bool) *EbitengineGame {
	if stepsPerFrame <= 0 {
		stepsPerFrame = 1
	}
	game := &EbitengineGame{
		session:       session,
		stepsPerFrame: stepsPerFrame,
		debug:         debug,
	}
	game.refresh()
	return game
}

// Update implements ebiten.Game.Update
func (g *EbitengineGame) Update() error {
	return g.advance(
		inpututil.IsKeyJustPressed(ebiten.KeySpace),
		inpututil.IsKeyJustPressed(ebiten.KeyN),
		inpututil.IsKeyJustPressed(ebiten.KeyEscape),
	)
}

// advance applies one frame of input and runs the session
func (g *EbitengineGame) advance(pausePressed, stepPressed, quitPressed bool) error {
	if quitPressed {
		return ebiten.Termination
	}
	if pausePressed {
		g.paused = !g.paused
	}

	if g.done || (g.paused && !stepPressed) {
		return nil
	}

	n := g.stepsPerFrame
	if g.paused {
		n = 1
	}
	g.done, g.err = g.session.Advance(n)
	if g.done && g.debug {
		log.Printf("[Ebitengine] Run finished: %v", g.err)
	}
	g.refresh()
	return nil
}

func (g *EbitengineGame) refresh() {
	g.text = FormatSnapshot(g.session.Snapshot(), panelColumns)
	switch {
	case g.err != nil:
		g.text += "\nerror: " + g.err.Error() + "\n"
	case g.done:
		g.text += "\nstopped, Escape closes\n"
	case g.paused:
		g.text += "\npaused, Space resumes, N steps\n"
	}
}

// Draw implements ebiten.Game.Draw
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 0, G: 0, B: 0, A: 255})
	ebitenutil.DebugPrintAt(screen, g.text, 4, 0)

	g.drawCount++
	if g.debug && g.drawCount%1800 == 0 {
		log.Printf("[Ebitengine] Drawing frame %d", g.drawCount)
	}
}

// Layout implements ebiten.Game.Layout
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return panelWidth, panelHeight
}
