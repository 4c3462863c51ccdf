package render

// CircleCall is one recorded Circle.
type CircleCall struct {
	X, Y, R     float64
	Fill, Title string
}

// Recorder is a Canvas that keeps the primitives of the current frame.
type Recorder struct {
	Frames   int
	Lines    int
	Polygons int
	Circles  []CircleCall
}

func (r *Recorder) Clear() {
	r.Frames++
	r.Lines = 0
	r.Polygons = 0
	r.Circles = r.Circles[:0]
}

func (r *Recorder) Line(x1, y1, x2, y2 float64, stroke string) {
	r.Lines++
}

func (r *Recorder) Polygon(xs, ys []float64, fill string) {
	r.Polygons++
}

func (r *Recorder) Circle(x, y, rad float64, fill, title string) {
	r.Circles = append(r.Circles, CircleCall{X: x, Y: y, R: rad, Fill: fill, Title: title})
}

// Fills returns the distinct fill colors drawn this frame.
func (r *Recorder) Fills() map[string]int {
	out := make(map[string]int)
	for _, c := range r.Circles {
		out[c.Fill]++
	}
	return out
}
