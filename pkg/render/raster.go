package render

import (
	"image"
	"image/color"
	"io"

	"git.sr.ht/~sbinet/gg"
)

// RasterCanvas draws into an RGBA image.
type RasterCanvas struct {
	dc         *gg.Context
	tf         Transform
	background color.RGBA
	lineWidth  float64
	minRadius  float64
}

// RasterOption configures a RasterCanvas.
type RasterOption func(*RasterCanvas)

// WithBackground sets the clear color.
func WithBackground(c string) RasterOption {
	return func(rc *RasterCanvas) {
		rc.background = ParseColor(c)
	}
}

// WithLineWidth sets the edge stroke width in pixels.
func WithLineWidth(w float64) RasterOption {
	return func(rc *RasterCanvas) {
		rc.lineWidth = w
	}
}

// WithMinRadius keeps circles at least r pixels wide after scaling.
func WithMinRadius(r float64) RasterOption {
	return func(rc *RasterCanvas) {
		rc.minRadius = r
	}
}

// NewRasterCanvas returns a width by height pixel canvas.
func NewRasterCanvas(width, height int, tf Transform, opts ...RasterOption) *RasterCanvas {
	rc := &RasterCanvas{
		dc:         gg.NewContext(width, height),
		tf:         tf,
		background: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		lineWidth:  1,
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Context exposes the drawing context for decorations outside the graph.
func (rc *RasterCanvas) Context() *gg.Context {
	return rc.dc
}

// Image returns the drawn image.
func (rc *RasterCanvas) Image() image.Image {
	return rc.dc.Image()
}

// Background returns the clear color.
func (rc *RasterCanvas) Background() color.RGBA {
	return rc.background
}

// EncodePNG writes the image as PNG.
func (rc *RasterCanvas) EncodePNG(w io.Writer) error {
	return rc.dc.EncodePNG(w)
}

func (rc *RasterCanvas) Clear() {
	rc.dc.SetColor(rc.background)
	rc.dc.Clear()
}

func (rc *RasterCanvas) Line(x1, y1, x2, y2 float64, stroke string) {
	ax, ay := rc.tf.Apply(x1, y1)
	bx, by := rc.tf.Apply(x2, y2)
	rc.dc.SetColor(ParseColor(stroke))
	rc.dc.SetLineWidth(rc.lineWidth)
	rc.dc.DrawLine(ax, ay, bx, by)
	rc.dc.Stroke()
}

func (rc *RasterCanvas) Polygon(xs, ys []float64, fill string) {
	if len(xs) < 3 || len(xs) != len(ys) {
		return
	}
	rc.dc.SetColor(ParseColor(fill))
	rc.dc.NewSubPath()
	for i := range xs {
		x, y := rc.tf.Apply(xs[i], ys[i])
		if i == 0 {
			rc.dc.MoveTo(x, y)
		} else {
			rc.dc.LineTo(x, y)
		}
	}
	rc.dc.ClosePath()
	rc.dc.Fill()
}

func (rc *RasterCanvas) Circle(x, y, r float64, fill, _ string) {
	cx, cy := rc.tf.Apply(x, y)
	pr := rc.tf.Radius(r)
	if pr < rc.minRadius {
		pr = rc.minRadius
	}
	rc.dc.SetColor(ParseColor(fill))
	rc.dc.DrawCircle(cx, cy, pr)
	rc.dc.Fill()
}
