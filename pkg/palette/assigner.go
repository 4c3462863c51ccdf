// Package palette maps node groups to display colors.
//
// An Assigner is immutable once built, so ColorFor is a pure function of the
// group for the lifetime of a graph session. Groups announced with
// WithGroups take scheme slots in order, so the first twelve are always
// distinct; unannounced groups fall back to a hash of their name.
package palette

import (
	"hash/fnv"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Placeholder is the color used for nodes that have not been drawn yet.
const Placeholder = "grey"

// Mode selects how unpinned groups are colored.
type Mode string

const (
	// Categorical uses the 12-color paired scheme, then the hue circle.
	Categorical Mode = "categorical"
	// Hue spaces groups around the hue circle by the golden ratio.
	Hue Mode = "hue"
)

// ParseMode returns the mode named s, defaulting to Categorical.
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == Hue {
		return Hue
	}
	return Categorical
}

// Paired is the 12-color qualitative "paired" scheme.
var Paired = []string{
	"#a6cee3", "#1f78b4", "#b2df8a", "#33a02c",
	"#fb9a99", "#e31a1c", "#fdbf6f", "#ff7f00",
	"#cab2d6", "#6a3d9a", "#ffff99", "#b15928",
}

// Option configures an Assigner.
type Option func(*Assigner)

// WithMode selects the coloring mode.
func WithMode(m Mode) Option {
	return func(a *Assigner) {
		a.mode = m
	}
}

// WithPinned fixes colors for specific groups. Invalid colors are ignored.
func WithPinned(pinned map[string]string) Option {
	return func(a *Assigner) {
		for g, c := range pinned {
			if hex, ok := normalizeHex(c); ok {
				a.pinned[g] = hex
			}
		}
	}
}

// WithGroups announces the session's groups in first-appearance order.
// Each unpinned group takes the next free slot of the scheme.
func WithGroups(groups ...string) Option {
	return func(a *Assigner) {
		a.groups = append(a.groups, groups...)
	}
}

// Assigner resolves group names to colors.
type Assigner struct {
	mode     Mode
	pinned   map[string]string
	groups   []string
	assigned map[string]string
}

// New returns an Assigner in Categorical mode unless overridden.
func New(opts ...Option) *Assigner {
	a := &Assigner{
		mode:     Categorical,
		pinned:   make(map[string]string),
		assigned: make(map[string]string),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.assignSlots()
	return a
}

// assignSlots gives every announced, unpinned group its own color. Paired
// entries already used by a pin are skipped.
func (a *Assigner) assignSlots() {
	taken := make(map[string]bool, len(a.pinned))
	for _, c := range a.pinned {
		taken[c] = true
	}
	next, n := 0, 0
	for _, g := range a.groups {
		if _, ok := a.pinned[g]; ok {
			continue
		}
		if _, ok := a.assigned[g]; ok {
			continue
		}
		var c string
		if a.mode == Categorical {
			for next < len(Paired) && taken[Paired[next]] {
				next++
			}
			if next < len(Paired) {
				c = Paired[next]
				next++
			}
		}
		if c == "" {
			c = hueAt(float64(n))
		}
		taken[c] = true
		a.assigned[g] = c
		n++
	}
}

// Mode returns the coloring mode.
func (a *Assigner) Mode() Mode {
	return a.mode
}

// Pinned reports the pinned color for group, if any.
func (a *Assigner) Pinned(group string) (string, bool) {
	c, ok := a.pinned[group]
	return c, ok
}

// ColorFor returns the "#rrggbb" color for group.
func (a *Assigner) ColorFor(group string) string {
	if c, ok := a.pinned[group]; ok {
		return c
	}
	if c, ok := a.assigned[group]; ok {
		return c
	}
	h := hash(group)
	if a.mode == Hue {
		return hueAt(float64(h))
	}
	return Paired[h%uint32(len(Paired))]
}

// hueAt returns the color at golden-ratio step x around the hue circle.
func hueAt(x float64) string {
	hue := math.Mod(x*0.618033988749895, 1) * 360
	return colorful.Hsv(hue, 0.65, 0.9).Hex()
}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func normalizeHex(s string) (string, bool) {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return c.Hex(), true
}
