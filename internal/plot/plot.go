// Package plot rasterizes a format.Bundle into a PNG chart.
package plot

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/njchilds90/integrand/internal/format"
)

// Default canvas size, 6x4 inches at 100 dpi.
const (
	DefaultWidth  = 600
	DefaultHeight = 400
)

const (
	marginLeft   = 60
	marginRight  = 20
	marginTop    = 36
	marginBottom = 44
	ticks        = 5
	dashOn       = 6
	dashOff      = 4
)

var palette = map[string]color.RGBA{
	"blue":    {0x1f, 0x3f, 0xd0, 0xff},
	"green":   {0x20, 0x90, 0x30, 0xff},
	"red":     {0xd0, 0x20, 0x20, 0xff},
	"skyblue": {0x87, 0xce, 0xeb, 0xff},
	"black":   {0x00, 0x00, 0x00, 0xff},
	"grid":    {0xdd, 0xdd, 0xdd, 0xff},
}

func colorOf(name string) color.RGBA {
	if c, ok := palette[name]; ok {
		return c
	}
	return palette["black"]
}

type canvas struct {
	img       *image.RGBA
	x0, x1    float64
	y0, y1    float64
	plotRect  image.Rectangle
	face      font.Face
	textColor *image.Uniform
}

func (c *canvas) px(x float64) float64 {
	r := c.plotRect
	return float64(r.Min.X) + (x-c.x0)/(c.x1-c.x0)*float64(r.Dx()-1)
}

func (c *canvas) py(y float64) float64 {
	r := c.plotRect
	return float64(r.Max.Y-1) - (y-c.y0)/(c.y1-c.y0)*float64(r.Dy()-1)
}

// Render draws b onto a new width x height image. Invalid samples leave
// gaps in their curve.
func Render(b format.Bundle, width, height int) *image.RGBA {
	if width <= marginLeft+marginRight {
		width = DefaultWidth
	}
	if height <= marginTop+marginBottom {
		height = DefaultHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	c := &canvas{
		img:       img,
		plotRect:  image.Rect(marginLeft, marginTop, width-marginRight, height-marginBottom),
		face:      basicfont.Face7x13,
		textColor: image.NewUniform(colorOf("black")),
	}
	c.x0, c.x1 = xRange(b)
	c.y0, c.y1 = yRange(b)

	c.grid()
	if b.Shade != nil && b.Shade.Series < len(b.Series) {
		c.shade(b.X, b.Series[b.Shade.Series].Y, b.Shade)
	}
	c.axes()
	for _, v := range b.VLines {
		c.vline(v)
	}
	for _, s := range b.Series {
		c.series(b.X, s)
	}
	c.frame()
	c.labels(b)
	c.legend(b)
	return img
}

// WritePNG renders b and encodes it as PNG.
func WritePNG(w io.Writer, b format.Bundle, width, height int) error {
	return errors.Wrap(png.Encode(w, Render(b, width, height)), "encode plot")
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func xRange(b format.Bundle) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range b.X {
		if finite(x) {
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
	}
	for _, v := range b.VLines {
		lo, hi = math.Min(lo, v.X), math.Max(hi, v.X)
	}
	return pad(lo, hi)
}

func yRange(b format.Bundle) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, s := range b.Series {
		for _, y := range s.Y {
			if finite(y) {
				lo, hi = math.Min(lo, y), math.Max(hi, y)
			}
		}
	}
	lo, hi = pad(lo, hi)
	span := hi - lo
	return lo - span*0.05, hi + span*0.05
}

// pad widens an empty or degenerate range so it can be mapped to pixels.
func pad(lo, hi float64) (float64, float64) {
	switch {
	case !finite(lo) || !finite(hi):
		return -1, 1
	case lo == hi:
		return lo - 1, hi + 1
	}
	return lo, hi
}

// ============================================================
// Primitives
// ============================================================

func (c *canvas) set(x, y int, col color.Color) {
	if image.Pt(x, y).In(c.plotRect) {
		c.img.Set(x, y, col)
	}
}

// line draws a segment of the given width. When dashed, the pattern phase
// is carried in *phase so consecutive segments continue the same dash.
func (c *canvas) line(x0, y0, x1, y1 float64, col color.Color, width int, dashed bool, phase *int) {
	dx, dy := x1-x0, y1-y0
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		if dashed {
			on := *phase%(dashOn+dashOff) < dashOn
			*phase++
			if !on {
				continue
			}
		}
		t := float64(i) / float64(steps)
		x := int(math.Round(x0 + t*dx))
		y := int(math.Round(y0 + t*dy))
		for o := 0; o < width; o++ {
			if math.Abs(dx) >= math.Abs(dy) {
				c.set(x, y+o, col)
			} else {
				c.set(x+o, y, col)
			}
		}
	}
}

func (c *canvas) text(s string, x, y int) {
	d := font.Drawer{Dst: c.img, Src: c.textColor, Face: c.face, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

func (c *canvas) textWidth(s string) int {
	return font.MeasureString(c.face, s).Round()
}

// ============================================================
// Chart elements
// ============================================================

func (c *canvas) grid() {
	col := colorOf("grid")
	r := c.plotRect
	for i := 0; i <= ticks; i++ {
		var phase int
		x := c.px(c.x0 + float64(i)*(c.x1-c.x0)/ticks)
		c.line(x, float64(r.Min.Y), x, float64(r.Max.Y-1), col, 1, true, &phase)
		phase = 0
		y := c.py(c.y0 + float64(i)*(c.y1-c.y0)/ticks)
		c.line(float64(r.Min.X), y, float64(r.Max.X-1), y, col, 1, true, &phase)
	}
}

func (c *canvas) axes() {
	black := colorOf("black")
	r := c.plotRect
	if c.y0 <= 0 && c.y1 >= 0 {
		var phase int
		y := c.py(0)
		c.line(float64(r.Min.X), y, float64(r.Max.X-1), y, black, 1, false, &phase)
	}
	if c.x0 <= 0 && c.x1 >= 0 {
		phase := 0
		x := c.px(0)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			if phase%3 == 0 {
				c.set(int(math.Round(x)), y, black)
			}
			phase++
		}
	}
}

func (c *canvas) frame() {
	black := colorOf("black")
	r := c.plotRect
	for x := r.Min.X; x < r.Max.X; x++ {
		c.img.Set(x, r.Min.Y, black)
		c.img.Set(x, r.Max.Y-1, black)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		c.img.Set(r.Min.X, y, black)
		c.img.Set(r.Max.X-1, y, black)
	}
}

func (c *canvas) series(xs format.Floats, s format.Series) {
	col := colorOf(s.Color)
	var phase int
	for i := 1; i < len(xs) && i < len(s.Y); i++ {
		xa, ya, xb, yb := xs[i-1], s.Y[i-1], xs[i], s.Y[i]
		if !finite(xa) || !finite(ya) || !finite(xb) || !finite(yb) {
			continue
		}
		c.line(c.px(xa), c.py(ya), c.px(xb), c.py(yb), col, 2, s.Dashed, &phase)
	}
}

func (c *canvas) vline(v format.VLine) {
	var phase int
	x := c.px(v.X)
	r := c.plotRect
	c.line(x, float64(r.Min.Y), x, float64(r.Max.Y-1), colorOf(v.Color), 2, v.Dashed, &phase)
}

// shade fills between the curve and y=0 for every pixel column inside the
// shaded interval, interpolating the curve between samples.
func (c *canvas) shade(xs, ys format.Floats, s *format.Shade) {
	base := colorOf(s.Color)
	fill := color.NRGBA{R: base.R, G: base.G, B: base.B, A: uint8(math.Round(255 * s.Alpha))}
	zero := c.py(0)
	for i := 1; i < len(xs) && i < len(ys); i++ {
		xa, ya, xb, yb := xs[i-1], ys[i-1], xs[i], ys[i]
		if !finite(ya) || !finite(yb) {
			continue
		}
		pa, pb := int(math.Round(c.px(xa))), int(math.Round(c.px(xb)))
		for px := pa; px <= pb; px++ {
			t := 0.0
			if pb > pa {
				t = float64(px-pa) / float64(pb-pa)
			}
			x := xa + t*(xb-xa)
			if !s.Contains(x) {
				continue
			}
			top := c.py(ya + t*(yb-ya))
			from, to := int(math.Round(math.Min(top, zero))), int(math.Round(math.Max(top, zero)))
			for py := from; py <= to; py++ {
				if image.Pt(px, py).In(c.plotRect) {
					blend(c.img, px, py, fill)
				}
			}
		}
	}
}

func blend(img *image.RGBA, x, y int, src color.NRGBA) {
	dst := img.RGBAAt(x, y)
	a := float64(src.A) / 255
	mix := func(s, d uint8) uint8 { return uint8(math.Round(float64(s)*a + float64(d)*(1-a))) }
	img.SetRGBA(x, y, color.RGBA{mix(src.R, dst.R), mix(src.G, dst.G), mix(src.B, dst.B), 0xff})
}

func (c *canvas) labels(b format.Bundle) {
	w, h := c.img.Bounds().Dx(), c.img.Bounds().Dy()
	r := c.plotRect
	c.text(b.Title, (w-c.textWidth(b.Title))/2, marginTop-14)
	c.text(b.XLabel, r.Min.X+(r.Dx()-c.textWidth(b.XLabel))/2, h-8)
	c.text(b.YLabel, 4, marginTop-14)

	for i := 0; i <= ticks; i++ {
		xv := c.x0 + float64(i)*(c.x1-c.x0)/ticks
		label := tick(xv)
		c.text(label, int(c.px(xv))-c.textWidth(label)/2, r.Max.Y+14)

		yv := c.y0 + float64(i)*(c.y1-c.y0)/ticks
		label = tick(yv)
		c.text(label, r.Min.X-6-c.textWidth(label), int(c.py(yv))+4)
	}
}

func tick(v float64) string {
	if math.Abs(v) < 1e-9 {
		v = 0
	}
	return strconv.FormatFloat(v, 'g', 3, 64)
}

func (c *canvas) legend(b format.Bundle) {
	r := c.plotRect
	y := r.Min.Y + 16
	for _, s := range b.Series {
		label := s.Label
		x := r.Max.X - 30 - c.textWidth(label) - 8
		var phase int
		c.line(float64(x), float64(y-4), float64(x+22), float64(y-4), colorOf(s.Color), 2, s.Dashed, &phase)
		c.text(label, x+28, y)
		y += 16
	}
}
