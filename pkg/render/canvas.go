// Package render draws graph frames onto pluggable canvases and feeds the
// colors it draws into a colorindex.Buffer.
//
// Layout runs in world units. Each canvas maps world coordinates onto its own
// device space through a Transform, so the same frame can be drawn to a PNG,
// an SVG document or a block of terminal cells.
package render

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Canvas receives the primitives of one frame in world coordinates.
type Canvas interface {
	// Clear starts a new frame.
	Clear()
	Line(x1, y1, x2, y2 float64, stroke string)
	Polygon(xs, ys []float64, fill string)
	// Circle draws a filled node. title is the node label, used where the
	// output format supports tooltips.
	Circle(x, y, r float64, fill, title string)
}

// Viewport is the layout area in world units.
type Viewport struct {
	Width  float64
	Height float64
}

// Transform maps world coordinates to device coordinates.
type Transform struct {
	ScaleX, ScaleY   float64
	OffsetX, OffsetY float64
}

// Identity leaves coordinates unchanged.
var Identity = Transform{ScaleX: 1, ScaleY: 1}

// Fit maps the world viewport onto the device rectangle at (x, y) of size
// w by h. Each axis is scaled independently.
func Fit(world Viewport, x, y, w, h float64) Transform {
	tf := Transform{ScaleX: 1, ScaleY: 1, OffsetX: x, OffsetY: y}
	if world.Width > 0 {
		tf.ScaleX = w / world.Width
	}
	if world.Height > 0 {
		tf.ScaleY = h / world.Height
	}
	return tf
}

// Apply converts a world point.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.ScaleX + t.OffsetX, y*t.ScaleY + t.OffsetY
}

// Radius converts a world length using the smaller axis scale.
func (t Transform) Radius(r float64) float64 {
	s := t.ScaleX
	if t.ScaleY < s {
		s = t.ScaleY
	}
	return r * s
}

var namedColors = map[string]color.RGBA{
	"grey":  {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"gray":  {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"black": {A: 0xff},
	"white": {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
}

// ParseColor converts "#rgb", "#rrggbb" or a few CSS names to RGBA.
// Unknown values come back grey.
func ParseColor(s string) color.RGBA {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return namedColors["grey"]
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// css renders c as a hex color for SVG styles.
func css(c color.RGBA) string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}
