// Package layout implements the force-directed layout that positions graph
// nodes: pairwise repulsion, springs along edges and a weak pull toward the
// viewport center.
//
// The engine never finishes on its own. Each Step integrates velocities once;
// displacement shrinks as the system reaches equilibrium. Callers stop it
// explicitly when the view goes away.
package layout

import (
	"math"

	"github.com/vanderheijden86/depview/pkg/metrics"
	"github.com/vanderheijden86/depview/pkg/model"

	"gonum.org/v1/gonum/spatial/r2"
)

// State is the engine lifecycle state.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Options holds simulation parameters. Zero fields take defaults.
type Options struct {
	Repulsion       float64 // default 2000
	SpringLength    float64 // default 80
	SpringStiffness float64 // default 0.05
	Damping         float64 // default 0.85, velocity retained per step
	Gravity         float64 // default 0.01, centering strength
	MaxVelocity     float64 // default 40
	MinDistance     float64 // default 0.01
}

// DefaultOptions returns the default simulation parameters.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	d := Options{
		Repulsion:       2000,
		SpringLength:    80,
		SpringStiffness: 0.05,
		Damping:         0.85,
		Gravity:         0.01,
		MaxVelocity:     40,
		MinDistance:     0.01,
	}
	if o.Repulsion > 0 {
		d.Repulsion = o.Repulsion
	}
	if o.SpringLength > 0 {
		d.SpringLength = o.SpringLength
	}
	if o.SpringStiffness > 0 {
		d.SpringStiffness = o.SpringStiffness
	}
	if o.Damping > 0 && o.Damping < 1 {
		d.Damping = o.Damping
	}
	if o.Gravity > 0 {
		d.Gravity = o.Gravity
	}
	if o.MaxVelocity > 0 {
		d.MaxVelocity = o.MaxVelocity
	}
	if o.MinDistance > 0 {
		d.MinDistance = o.MinDistance
	}
	return d
}

type spring struct {
	from, to int
	strength float64
}

// Engine owns node positions and velocities of one snapshot while running.
type Engine struct {
	opts   Options
	width  float64
	height float64

	state   State
	snap    *model.Snapshot
	springs []spring
	force   []r2.Vec
	steps   int
}

// New returns a stopped engine.
func New(opts Options) *Engine {
	return &Engine{
		opts:   opts.withDefaults(),
		width:  800,
		height: 600,
	}
}

// Options returns the effective parameters.
func (e *Engine) Options() Options {
	return e.opts
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Steps returns how many steps ran since the last Start.
func (e *Engine) Steps() int {
	return e.steps
}

// Snapshot returns the graph being laid out, or nil.
func (e *Engine) Snapshot() *model.Snapshot {
	return e.snap
}

// SetViewport sets the area whose center the nodes are pulled toward.
func (e *Engine) SetViewport(width, height float64) {
	if width > 0 {
		e.width = width
	}
	if height > 0 {
		e.height = height
	}
}

// Center returns the viewport center.
func (e *Engine) Center() r2.Vec {
	return r2.Vec{X: e.width / 2, Y: e.height / 2}
}

// Start takes ownership of snap's positions and begins a new simulation.
// Nodes are seeded on a phyllotaxis spiral around the center. A nil snapshot
// leaves the engine stopped.
func (e *Engine) Start(snap *model.Snapshot) {
	e.Stop()
	if snap == nil {
		return
	}
	e.snap = snap
	e.steps = 0
	e.force = make([]r2.Vec, len(snap.Nodes))

	c := e.Center()
	golden := math.Pi * (3 - math.Sqrt(5))
	for i := range snap.Nodes {
		r := 10 * math.Sqrt(0.5+float64(i))
		a := float64(i) * golden
		n := &snap.Nodes[i]
		n.X = c.X + r*math.Cos(a)
		n.Y = c.Y + r*math.Sin(a)
		n.VX, n.VY = 0, 0
	}

	deg := snap.Degrees()
	e.springs = e.springs[:0]
	for _, edge := range snap.Edges {
		if edge.IsSelfLoop() {
			continue
		}
		from, ok1 := snap.Index(edge.Source)
		to, ok2 := snap.Index(edge.Target)
		if !ok1 || !ok2 {
			continue
		}
		lo := deg[from]
		if deg[to] < lo {
			lo = deg[to]
		}
		if lo < 1 {
			lo = 1
		}
		e.springs = append(e.springs, spring{from: from, to: to, strength: e.opts.SpringStiffness / float64(lo)})
	}
	e.state = Running
}

// Stop ends the simulation. No position is mutated afterwards.
func (e *Engine) Stop() {
	e.state = Stopped
}

// Step advances the simulation by one tick and returns the total distance
// moved by all nodes. It is a no-op returning 0 when stopped.
func (e *Engine) Step() float64 {
	if e.state != Running || e.snap == nil {
		return 0
	}
	defer metrics.LayoutStep.Time()()

	nodes := e.snap.Nodes
	for i := range e.force {
		e.force[i] = r2.Vec{}
	}

	e.applyRepulsion(nodes)
	e.applySprings(nodes)
	e.applyCentering(nodes)

	var moved float64
	c := e.Center()
	for i := range nodes {
		n := &nodes[i]
		v := r2.Scale(e.opts.Damping, r2.Add(r2.Vec{X: n.VX, Y: n.VY}, e.force[i]))
		if speed := r2.Norm(v); speed > e.opts.MaxVelocity {
			v = r2.Scale(e.opts.MaxVelocity/speed, v)
		}
		if !finite(v) {
			v = r2.Vec{}
		}
		n.VX, n.VY = v.X, v.Y
		n.X += v.X
		n.Y += v.Y
		if !finite(r2.Vec{X: n.X, Y: n.Y}) {
			n.X, n.Y = c.X, c.Y
			n.VX, n.VY = 0, 0
			continue
		}
		moved += r2.Norm(v)
	}
	e.steps++
	return moved
}

func (e *Engine) applyRepulsion(nodes []model.Node) {
	minD2 := e.opts.MinDistance * e.opts.MinDistance
	for i := 0; i < len(nodes); i++ {
		pi := r2.Vec{X: nodes[i].X, Y: nodes[i].Y}
		for j := i + 1; j < len(nodes); j++ {
			d := r2.Sub(pi, r2.Vec{X: nodes[j].X, Y: nodes[j].Y})
			d2 := r2.Norm2(d)
			if d2 < minD2 {
				// Coincident nodes: separate along a direction fixed by the pair.
				d = separation(i, j)
				d2 = minD2
			}
			dist := math.Sqrt(d2)
			f := r2.Scale(e.opts.Repulsion/d2/dist, d)
			f = clampVec(f, e.opts.MaxVelocity)
			e.force[i] = r2.Add(e.force[i], f)
			e.force[j] = r2.Sub(e.force[j], f)
		}
	}
}

func (e *Engine) applySprings(nodes []model.Node) {
	for _, s := range e.springs {
		a := r2.Vec{X: nodes[s.from].X, Y: nodes[s.from].Y}
		b := r2.Vec{X: nodes[s.to].X, Y: nodes[s.to].Y}
		d := r2.Sub(b, a)
		dist := r2.Norm(d)
		if dist < e.opts.MinDistance {
			continue
		}
		f := r2.Scale(s.strength*(dist-e.opts.SpringLength)/dist, d)
		e.force[s.from] = r2.Add(e.force[s.from], f)
		e.force[s.to] = r2.Sub(e.force[s.to], f)
	}
}

func (e *Engine) applyCentering(nodes []model.Node) {
	c := e.Center()
	for i := range nodes {
		d := r2.Sub(c, r2.Vec{X: nodes[i].X, Y: nodes[i].Y})
		e.force[i] = r2.Add(e.force[i], r2.Scale(e.opts.Gravity, d))
	}
}

// separation returns a unit vector that depends only on the pair indices.
func separation(i, j int) r2.Vec {
	a := float64(i*31+j*17) * 2.399963229728653
	return r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
}

func clampVec(v r2.Vec, max float64) r2.Vec {
	if n := r2.Norm(v); n > max {
		return r2.Scale(max/n, v)
	}
	return v
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
