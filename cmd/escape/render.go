package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/hud"
	"github.com/gogpu/fractal/surface"
)

var (
	renderOut   string
	renderScale int
	renderHUD   bool
	renderW     int
	renderH     int
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one frame to a PNG file",
	RunE:  runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOut, "out", "o", "escape.png", "output PNG file")
	f.IntVar(&renderScale, "scale", 1, "integer upscale factor")
	f.BoolVar(&renderHUD, "hud", false, "draw the status overlay")
	f.IntVar(&renderW, "width", 0, "viewport width (overrides config)")
	f.IntVar(&renderH, "height", 0, "viewport height (overrides config)")
}

func runRender(cmd *cobra.Command, _ []string) error {
	if renderScale < 1 {
		return fmt.Errorf("scale must be at least 1, got %d", renderScale)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	w, h := cfg.Width, cfg.Height
	if renderW > 0 {
		w = renderW
	}
	if renderH > 0 {
		h = renderH
	}

	frames := surface.NewImageSurface()
	r, err := newRenderer(cfg, w, h, fractal.WithDisplay(frames))
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.Tick(cmd.Context()); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	img := upscale(frames.Snapshot(), renderScale)
	if renderHUD {
		overlay, err := hud.New()
		if err != nil {
			return err
		}
		defer func() { _ = overlay.Close() }()
		overlay.Draw(img, r.State())
	}
	if err := writePNG(renderOut, img); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ev, ok := r.LastSingularity(); ok {
		fmt.Fprintf(out, "%s: division by zero at pixel (%d, %d), z = %v, step %d\n",
			renderOut, ev.X, ev.Y, ev.Point, ev.Iteration)
	} else {
		fmt.Fprintf(out, "%s: no singularity\n", renderOut)
	}
	return nil
}

func upscale(img *image.RGBA, scale int) *image.RGBA {
	if scale == 1 {
		return img
	}
	p := fractal.NewPixmap(img.Bounds().Dx(), img.Bounds().Dy())
	copy(p.Data(), img.Pix)
	return p.Scaled(p.Width()*scale, p.Height()*scale)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // output path from the command line
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

