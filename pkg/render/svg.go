package render

import (
	"fmt"
	"io"
	"math"

	"github.com/ajstarks/svgo"
)

// SVGCanvas streams primitives into an SVG document. Every circle is
// wrapped in a group carrying the node id as its <title> tooltip.
type SVGCanvas struct {
	svg        *svg.SVG
	tf         Transform
	width      int
	height     int
	background string
	started    bool
}

// NewSVGCanvas writes a width by height document to w. Call End when done.
func NewSVGCanvas(w io.Writer, width, height int, tf Transform, background string) *SVGCanvas {
	if background == "" {
		background = "#ffffff"
	}
	return &SVGCanvas{svg: svg.New(w), tf: tf, width: width, height: height, background: background}
}

// SVG exposes the document for decorations outside the graph.
func (sc *SVGCanvas) SVG() *svg.SVG {
	return sc.svg
}

// Clear opens the document and paints the background. An SVG document holds
// one frame, so only the first call has an effect.
func (sc *SVGCanvas) Clear() {
	if sc.started {
		return
	}
	sc.started = true
	sc.svg.Start(sc.width, sc.height)
	sc.svg.Rect(0, 0, sc.width, sc.height, fmt.Sprintf("fill:%s", css(ParseColor(sc.background))))
}

// End closes the document.
func (sc *SVGCanvas) End() {
	if !sc.started {
		sc.Clear()
	}
	sc.svg.End()
}

func (sc *SVGCanvas) Line(x1, y1, x2, y2 float64, stroke string) {
	ax, ay := sc.point(x1, y1)
	bx, by := sc.point(x2, y2)
	sc.svg.Line(ax, ay, bx, by, fmt.Sprintf("stroke:%s;stroke-width:1", css(ParseColor(stroke))))
}

func (sc *SVGCanvas) Polygon(xs, ys []float64, fill string) {
	if len(xs) < 3 || len(xs) != len(ys) {
		return
	}
	px := make([]int, len(xs))
	py := make([]int, len(ys))
	for i := range xs {
		px[i], py[i] = sc.point(xs[i], ys[i])
	}
	sc.svg.Polygon(px, py, fmt.Sprintf("fill:%s", css(ParseColor(fill))))
}

func (sc *SVGCanvas) Circle(x, y, r float64, fill, title string) {
	cx, cy := sc.point(x, y)
	pr := int(math.Max(1, math.Round(sc.tf.Radius(r))))
	sc.svg.Group(`class="node"`)
	if title != "" {
		sc.svg.Title(title)
	}
	sc.svg.Circle(cx, cy, pr, fmt.Sprintf("fill:%s", css(ParseColor(fill))))
	sc.svg.Gend()
}

func (sc *SVGCanvas) point(x, y float64) (int, int) {
	px, py := sc.tf.Apply(x, y)
	return int(math.Round(px)), int(math.Round(py))
}
