package render

import (
	"github.com/vanderheijden86/depview/pkg/colorindex"
	"github.com/vanderheijden86/depview/pkg/metrics"
	"github.com/vanderheijden86/depview/pkg/model"
	"github.com/vanderheijden86/depview/pkg/palette"

	"gonum.org/v1/gonum/spatial/r2"
)

// Options controls the look of a frame. Zero fields other than ArrowRelPos
// take defaults.
type Options struct {
	NodeRadius  float64 // default 5
	ArrowLength float64 // default 6
	ArrowRelPos float64 // 0..1; 1 puts the tip on the target boundary
	EdgeColor   string  // default "#999999"
	ArrowColor  string  // default "#666666"
}

// DefaultOptions returns the default frame options.
func DefaultOptions() Options {
	return Options{ArrowRelPos: 1}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.NodeRadius <= 0 {
		o.NodeRadius = 5
	}
	if o.ArrowLength <= 0 {
		o.ArrowLength = 6
	}
	if o.EdgeColor == "" {
		o.EdgeColor = "#999999"
	}
	if o.ArrowColor == "" {
		o.ArrowColor = "#666666"
	}
	return o
}

// FrameStats describes one drawn frame.
type FrameStats struct {
	Frame   int64
	Circles int
	Arrows  int
}

// Loop draws frames of a graph session. The buffer belongs to the loop: it
// records every node color drawn, and the caller commits it once per frame.
type Loop struct {
	palette *palette.Assigner
	buffer  *colorindex.Buffer
	opts    Options
	frame   int64
}

// NewLoop returns a loop that colors nodes with p and records into buf.
func NewLoop(p *palette.Assigner, buf *colorindex.Buffer, opts Options) *Loop {
	if p == nil {
		p = palette.New()
	}
	if buf == nil {
		buf = colorindex.NewBuffer()
	}
	return &Loop{palette: p, buffer: buf, opts: opts.withDefaults()}
}

// Frames returns the number of frames drawn.
func (l *Loop) Frames() int64 {
	return l.frame
}

// ColorOf returns the color node n is drawn with: its committed color once
// published, otherwise the palette color of its group.
func (l *Loop) ColorOf(n model.Node) string {
	if c, ok := l.buffer.Published().Color(n.ID); ok {
		return c
	}
	return l.palette.ColorFor(n.Group)
}

// DrawFrame draws edges, then nodes, and records each node's color.
// It does not commit; the caller schedules one commit per returned frame.
func (l *Loop) DrawFrame(c Canvas, snap *model.Snapshot) FrameStats {
	defer metrics.FrameRender.Time()()

	stats := FrameStats{Frame: l.frame}
	l.frame++
	c.Clear()
	if snap == nil {
		return stats
	}

	r := l.opts.NodeRadius
	for _, e := range snap.Edges {
		s, t := snap.Node(e.Source), snap.Node(e.Target)
		if s == nil || t == nil {
			continue
		}
		c.Line(s.X, s.Y, t.X, t.Y, l.opts.EdgeColor)
		pts := ArrowHead(r2.Vec{X: s.X, Y: s.Y}, r2.Vec{X: t.X, Y: t.Y}, r, r, l.opts.ArrowLength, l.opts.ArrowRelPos)
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for i, p := range pts {
			xs[i], ys[i] = p.X, p.Y
		}
		c.Polygon(xs, ys, l.opts.ArrowColor)
		stats.Arrows++
	}

	for _, n := range snap.Nodes {
		color := l.ColorOf(n)
		c.Circle(n.X, n.Y, r, color, n.ID)
		l.buffer.Record(n.ID, color)
		stats.Circles++
	}
	return stats
}
