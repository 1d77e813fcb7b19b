// Package hud draws the status overlay onto rendered frames.
//
// The overlay shows the iteration cap, zoom, view centre and the editable
// singularity parameter on a bar along the bottom edge. When the
// singularity flag is set a centred banner announces the division by zero.
package hud

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/fractal"
)

// BannerText is shown while the singularity flag is set.
const BannerText = "DIVISION BY ZERO"

// Font sizes in pixels.
const (
	StatusSize = 12.0
	BannerSize = 24.0
)

// Overlay colours.
var (
	StatusBackground = color.RGBA{A: 192}
	StatusForeground = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	BannerBackground = color.RGBA{R: 200, A: 255}
	BannerForeground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Overlay renders the HUD. Faces are not safe for concurrent use, so Draw
// serializes callers.
type Overlay struct {
	mu      sync.Mutex
	status  font.Face
	banner  font.Face
	shapeFc *gotext.Face
	shaper  shaping.HarfbuzzShaper
	printer *message.Printer
}

// New loads the Go Regular font at the status and banner sizes.
func New() (*Overlay, error) {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("hud: parse font: %w", err)
	}
	status, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: StatusSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("hud: status face: %w", err)
	}
	banner, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: BannerSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		_ = status.Close()
		return nil, fmt.Errorf("hud: banner face: %w", err)
	}
	shapeFc, err := gotext.ParseTTF(bytes.NewReader(goregular.TTF))
	if err != nil {
		_ = status.Close()
		_ = banner.Close()
		return nil, fmt.Errorf("hud: parse shaping font: %w", err)
	}
	return &Overlay{
		status:  status,
		banner:  banner,
		shapeFc: shapeFc,
		printer: message.NewPrinter(xlanguage.English),
	}, nil
}

// Close releases the font faces.
func (o *Overlay) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	err1 := o.status.Close()
	err2 := o.banner.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Status returns the status line for st.
func (o *Overlay) Status(st fractal.State) string {
	return o.printer.Sprintf("iter %d  zoom %.4g  center %.5f, %.5f  v %.3f, %.3f",
		st.MaxIterations, st.Zoom,
		st.Center.Re, st.Center.Im,
		st.Params.Singularity.Re, st.Params.Singularity.Im)
}

// Draw paints the overlay for st onto dst.
func (o *Overlay) Draw(dst *image.RGBA, st fractal.State) {
	o.mu.Lock()
	defer o.mu.Unlock()

	b := dst.Bounds()
	if b.Empty() {
		return
	}

	m := o.status.Metrics()
	barHeight := (m.Ascent + m.Descent).Ceil() + 4
	bar := image.Rect(b.Min.X, b.Max.Y-barHeight, b.Max.X, b.Max.Y).Intersect(b)
	draw.Draw(dst, bar, image.NewUniform(StatusBackground), image.Point{}, draw.Over)
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(StatusForeground),
		Face: o.status,
		Dot:  fixed.P(b.Min.X+4, b.Max.Y-2-m.Descent.Ceil()),
	}
	d.DrawString(o.Status(st))

	if !st.SingularityOccurred {
		return
	}
	box := o.bannerRect(b)
	draw.Draw(dst, box, image.NewUniform(BannerBackground), image.Point{}, draw.Src)
	o.drawBanner(dst, b)
}

// drawBanner places each banner glyph at its shaped position so the drawn
// width is the shaped advance the box was sized from.
func (o *Overlay) drawBanner(dst *image.RGBA, b image.Rectangle) {
	runes := []rune(BannerText)
	out := o.shapeBanner(runes)
	bm := o.banner.Metrics()

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(BannerForeground),
		Face: o.banner,
	}
	x := fixed.I(b.Min.X + (b.Dx()-out.Advance.Ceil())/2)
	y := fixed.I(b.Min.Y + b.Dy()/2 + (bm.Ascent.Ceil()-bm.Descent.Ceil())/2)
	for _, g := range out.Glyphs {
		if g.ClusterIndex >= 0 && g.ClusterIndex < len(runes) {
			d.Dot = fixed.Point26_6{X: x + g.XOffset, Y: y - g.YOffset}
			d.DrawString(string(runes[g.ClusterIndex]))
		}
		x += g.XAdvance
	}
}

// BannerRect returns the banner box for a frame with bounds b.
func (o *Overlay) BannerRect(b image.Rectangle) image.Rectangle {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.bannerRect(b)
}

func (o *Overlay) bannerRect(b image.Rectangle) image.Rectangle {
	bm := o.banner.Metrics()
	w := o.bannerAdvance().Ceil() + 16
	h := (bm.Ascent + bm.Descent).Ceil() + 8
	cx, cy := b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2
	return image.Rect(cx-w/2, cy-h/2, cx+w/2, cy+h/2).Intersect(b)
}

// bannerAdvance returns the shaped horizontal advance of BannerText.
func (o *Overlay) bannerAdvance() fixed.Int26_6 {
	return o.shapeBanner([]rune(BannerText)).Advance
}

func (o *Overlay) shapeBanner(runes []rune) shaping.Output {
	return o.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      gotext.NewFace(o.shapeFc.Font),
		Size:      fixed.Int26_6(BannerSize * 64),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	})
}
