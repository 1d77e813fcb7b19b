package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/config"
	"github.com/gogpu/fractal/gpu"
)

// frameInterval paces the tick loop at about 30 Hz.
const frameInterval = time.Second / 30

// Key-press increments.
const (
	parameterStep  = 0.01
	iterationStep  = 10
	colorShiftStep = 0.05
)

var exploreMute bool

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Explore the fractal in the terminal",
	Long: `Explore the fractal in the terminal. Each cell shows two pixels.

Keys:
  arrows, w a s d   pan
  PgUp, +           zoom in
  PgDn, -           zoom out
  i j k l           move the singularity parameter
  [ ]               iteration cap -/+10
  c                 shift colours
  m                 toggle CPU/GPU
  h                 reset the view
  q, Esc            quit`,
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().BoolVar(&exploreMute, "mute", false, "disable the chime")
}

func runExplore(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("explore: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("explore: %w", err)
	}
	var finiOnce sync.Once
	fini := func() { finiOnce.Do(screen.Fini) }
	defer fini()

	w, h := viewportFor(screen.Size())
	r, err := newRenderer(cfg, w, h)
	if err != nil {
		return err
	}
	defer r.Close()

	x := newExplorer(r, screen, cfg)
	if !exploreMute {
		if c, err := newChime(); err == nil {
			defer c.Close()
			x.chime = c.Play
		} else {
			fractal.Logger().Warn("escape: audio unavailable", "err", err)
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return nil
			}
			if x.handleEvent(ev) {
				return nil
			}
		}
	})
	g.Go(func() error {
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := x.frame(ctx); err != nil {
					return err
				}
			}
		}
	})
	g.Go(func() error {
		<-ctx.Done()
		fini()
		return nil
	})
	return g.Wait()
}

// viewportFor returns the pixel viewport for a terminal of cols × rows
// cells. The bottom row is kept for the status line.
func viewportFor(cols, rows int) (width, height int) {
	return max(cols, 1), max(2*(rows-1), 1)
}

// explorer maps terminal input onto renderer operations and draws frames
// with half-block cells.
type explorer struct {
	r      *fractal.Renderer
	screen tcell.Screen
	cfg    config.Config

	chime        func()
	newEvaluator func() (fractal.GPUEvaluator, error)

	mu     sync.Mutex
	status string
}

func newExplorer(r *fractal.Renderer, screen tcell.Screen, cfg config.Config) *explorer {
	return &explorer{
		r:            r,
		screen:       screen,
		cfg:          cfg,
		chime:        func() {},
		newEvaluator: newGPUEvaluator,
	}
}

func newGPUEvaluator() (fractal.GPUEvaluator, error) {
	eval, err := gpu.NewEvaluator()
	if err != nil {
		return nil, err
	}
	return eval, nil
}

func (x *explorer) setStatus(s string) {
	x.mu.Lock()
	x.status = s
	x.mu.Unlock()
}

func (x *explorer) statusText() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.status
}

// handleEvent applies one terminal event and reports whether to quit.
func (x *explorer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		w, h := viewportFor(ev.Size())
		x.report(x.r.SetViewport(w, h))
		x.screen.Sync()
	case *tcell.EventKey:
		return x.handleKey(ev)
	}
	return false
}

func (x *explorer) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		x.pan(0, 1)
	case tcell.KeyDown:
		x.pan(0, -1)
	case tcell.KeyLeft:
		x.pan(-1, 0)
	case tcell.KeyRight:
		x.pan(1, 0)
	case tcell.KeyPgUp:
		x.zoomIn()
	case tcell.KeyPgDn:
		x.report(x.r.ZoomOut(x.cfg.ZoomStep))
	case tcell.KeyRune:
		return x.handleRune(ev.Rune())
	}
	return false
}

func (x *explorer) handleRune(ch rune) bool {
	switch ch {
	case 'q':
		return true
	case 'w':
		x.pan(0, 1)
	case 's':
		x.pan(0, -1)
	case 'a':
		x.pan(-1, 0)
	case 'd':
		x.pan(1, 0)
	case '+', '=':
		x.zoomIn()
	case '-':
		x.report(x.r.ZoomOut(x.cfg.ZoomStep))
	case 'h':
		x.r.Reset()
		x.setStatus("view reset")
	case 'i':
		x.moveParameter(0, parameterStep)
	case 'k':
		x.moveParameter(0, -parameterStep)
	case 'j':
		x.moveParameter(-parameterStep, 0)
	case 'l':
		x.moveParameter(parameterStep, 0)
	case '[':
		x.adjustRender(-iterationStep, 0)
	case ']':
		x.adjustRender(iterationStep, 0)
	case 'c':
		x.adjustRender(0, colorShiftStep)
	case 'm':
		x.toggleMode()
	}
	return false
}

func (x *explorer) pan(dx, dy float64) {
	step := x.cfg.PanStep * x.r.State().Zoom
	x.report(x.r.Pan(dx*step, dy*step))
}

func (x *explorer) zoomIn() {
	x.report(x.r.ZoomIn(x.r.State().Center, x.cfg.ZoomStep))
}

func (x *explorer) moveParameter(dre, dim float64) {
	v := x.r.State().Params.Singularity
	x.report(x.r.SetRecurrenceParameter(v.Re+dre, v.Im+dim))
}

func (x *explorer) adjustRender(dIter int, dShift float64) {
	st := x.r.State()
	x.report(x.r.SetRenderParams(max(st.MaxIterations+dIter, 1), st.ColorRange, st.ColorShift+dShift, st.SmoothColoring))
}

func (x *explorer) toggleMode() {
	if x.r.Mode() == fractal.ModeGPU {
		x.r.SetMode(fractal.ModeCPU)
		x.setStatus("CPU mode")
		return
	}
	if !x.r.HasEvaluator() {
		eval, err := x.newEvaluator()
		if err != nil {
			x.setStatus("GPU unavailable: " + err.Error())
			return
		}
		if err := x.r.SetEvaluator(eval); err != nil {
			eval.Close()
			x.report(err)
			return
		}
	}
	x.r.SetMode(fractal.ModeGPU)
	x.setStatus("GPU mode")
}

func (x *explorer) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, fractal.ErrInvalidParameter):
		x.setStatus("refused: " + err.Error())
	default:
		x.setStatus(err.Error())
	}
}

// frame ticks the renderer, announces a new singularity and redraws.
func (x *explorer) frame(ctx context.Context) error {
	if err := x.r.Tick(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if ev, ok := x.r.ConsumeSingularity(); ok {
		x.setStatus(fmt.Sprintf("DIVISION BY ZERO at z = %v", ev.Point))
		x.chime()
	}
	x.draw()
	return nil
}

func (x *explorer) draw() {
	img := x.r.PixelBuffer()
	b := img.Bounds()
	cols, rows := x.screen.Size()

	for cy := 0; cy < rows-1; cy++ {
		for cx := 0; cx < cols; cx++ {
			top := cellColor(img, b, cx, 2*cy)
			bottom := cellColor(img, b, cx, 2*cy+1)
			x.screen.SetContent(cx, cy, '▀', nil, tcell.StyleDefault.Foreground(top).Background(bottom))
		}
	}

	st := x.r.State()
	line := fmt.Sprintf(" %s  iter %d  zoom %.4g  v %.3f%+.3fi  %s",
		x.r.Mode(), st.MaxIterations, st.Zoom,
		st.Params.Singularity.Re, st.Params.Singularity.Im, x.statusText())
	x.drawStatus(line, rows-1, cols)
	x.screen.Show()
}

func (x *explorer) drawStatus(line string, row, cols int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	col := 0
	for _, ch := range line {
		if col >= cols {
			break
		}
		x.screen.SetContent(col, row, ch, nil, style)
		col++
	}
	for ; col < cols; col++ {
		x.screen.SetContent(col, row, ' ', nil, style)
	}
}

func cellColor(img image.Image, b image.Rectangle, x, y int) tcell.Color {
	p := image.Pt(b.Min.X+x, b.Min.Y+y)
	if !p.In(b) {
		return tcell.ColorBlack
	}
	r, g, bl, _ := img.At(p.X, p.Y).RGBA()
	return tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(bl>>8))
}
