package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	arrowWidthRatio = 1.6 // length / width
	arrowNotchRatio = 0.2 // notch depth / length
)

// ArrowHead returns the four corners of an arrowhead on the edge from src to
// dst: tip, left wing, notch, right wing.
//
// relPos places the arrow along the part of the line outside both node
// circles: 0 puts the tail at the source boundary, 1 puts the tip at the
// target boundary. A zero-length edge points along +X.
func ArrowHead(src, dst r2.Vec, srcR, dstR, length, relPos float64) [4]r2.Vec {
	relPos = math.Max(0, math.Min(1, relPos))

	d := r2.Sub(dst, src)
	lineLen := r2.Norm(d)
	dir := r2.Vec{X: 1}
	if lineLen > 0 {
		dir = r2.Scale(1/lineLen, d)
	}
	along := func(dist float64) r2.Vec {
		return r2.Add(src, r2.Scale(dist, dir))
	}

	pos := srcR + length + (lineLen-srcR-dstR-length)*relPos
	tip := along(pos)
	tail := along(pos - length)
	notch := along(pos - length*(1-arrowNotchRatio))

	halfWidth := length / arrowWidthRatio / 2
	normal := r2.Vec{X: -dir.Y, Y: dir.X}
	return [4]r2.Vec{
		tip,
		r2.Add(tail, r2.Scale(halfWidth, normal)),
		notch,
		r2.Sub(tail, r2.Scale(halfWidth, normal)),
	}
}
