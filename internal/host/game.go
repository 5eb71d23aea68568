package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/go-vgbridge/internal/config"
)

// ErrGameTerminated is returned by Update when the game's context is
// cancelled.
var ErrGameTerminated = errors.New("game terminated")

// ErrorHandler receives frame errors.
type ErrorHandler func(err error)

// DefaultErrorHandler writes errors to stderr.
func DefaultErrorHandler(err error) {
	fmt.Fprintf(os.Stderr, "frame error: %v\n", err)
}

// frameSource is implemented by backends that keep the last completed
// frame in an image, such as ebitenvg.
type frameSource interface {
	Output() *ebiten.Image
}

// Game implements ebiten.Game. Update paints a frame through the host at
// the configured TPS; Draw copies the last finished frame to the screen.
type Game struct {
	host         *Host
	errorHandler ErrorHandler
	ctx          context.Context
	lastErr      string
	mu           sync.Mutex
	running      bool
}

// NewGame creates a Game driving h.
func NewGame(h *Host) *Game {
	g := &Game{
		host:         h,
		errorHandler: DefaultErrorHandler,
	}
	h.SetConfigHook(g.configChanged)
	return g
}

// SetErrorHandler sets the handler for frame errors. nil ignores them.
func (g *Game) SetErrorHandler(handler ErrorHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errorHandler = handler
}

// SetContext makes Update return ErrGameTerminated once ctx is done.
func (g *Game) SetContext(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ctx = ctx
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	g.mu.Lock()
	ctx := g.ctx
	g.mu.Unlock()
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ErrGameTerminated
		default:
		}
	}

	g.report(g.host.Frame())
	return nil
}

// report passes err to the error handler. A failing script fails the same
// way every frame, so repeats are reported once.
func (g *Game) report(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		g.lastErr = ""
		return
	}
	if msg := err.Error(); msg != g.lastErr {
		g.lastErr = msg
		if g.errorHandler != nil {
			g.errorHandler(err)
		}
	}
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	fs, ok := g.host.Backend().(frameSource)
	if !ok {
		return
	}
	if frame := fs.Output(); frame != nil {
		screen.DrawImage(frame, nil)
	}
}

// Layout implements ebiten.Game. A resizable window resizes the surface;
// otherwise ebiten scales the fixed surface into the window.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.host.Config().Window.Resizable {
		g.host.Resize(outsideWidth, outsideHeight)
	}
	return g.host.ScreenSize()
}

// configChanged applies window settings after a configuration reload.
func (g *Game) configChanged(old, updated config.Config) {
	if !g.IsRunning() {
		return
	}
	applyWindow(updated, old)
}

func applyWindow(cfg, old config.Config) {
	if cfg.Window.Title != old.Window.Title {
		ebiten.SetWindowTitle(cfg.Window.Title)
	}
	if cfg.Window.Width != old.Window.Width || cfg.Window.Height != old.Window.Height {
		ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.Resizable != old.Window.Resizable {
		ebiten.SetWindowResizingMode(resizingMode(cfg.Window.Resizable))
	}
	if cfg.Render.TPS != old.Render.TPS {
		ebiten.SetTPS(cfg.Render.TPS)
	}
}

func resizingMode(resizable bool) ebiten.WindowResizingModeType {
	if resizable {
		return ebiten.WindowResizingModeEnabled
	}
	return ebiten.WindowResizingModeDisabled
}

// Run opens the window and blocks until it is closed or the context is
// cancelled. Cancellation is not reported as an error.
func (g *Game) Run() error {
	cfg := g.host.Config()
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(resizingMode(cfg.Window.Resizable))
	ebiten.SetTPS(cfg.Render.TPS)

	g.mu.Lock()
	g.running = true
	g.mu.Unlock()

	err := ebiten.RunGame(g)

	g.mu.Lock()
	g.running = false
	g.mu.Unlock()

	if errors.Is(err, ErrGameTerminated) {
		return nil
	}
	return err
}

// IsRunning reports whether the game loop is running.
func (g *Game) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
