// Package testutil provides test fixture generators for various graph topologies.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/vanderheijden86/depview/pkg/model"

	json "github.com/goccy/go-json"
)

// GraphFixture is an abstract graph: node names and index pairs.
type GraphFixture struct {
	Description string   `json:"description"`
	Nodes       []string `json:"nodes"`
	Edges       [][2]int `json:"edges"` // [source_idx, target_idx]
}

// GeneratorConfig controls how fixtures become payloads.
type GeneratorConfig struct {
	Seed     int64  // Random seed for determinism (0 = use current time)
	Groups   int    // Number of distinct groups (default 3)
	Prefix   string // Node id prefix (default "src/file")
	EdgeKey  string // "links" (default) or "edges"
	Shuffled bool   // Assign groups randomly instead of round-robin
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:    42, // Deterministic
		Groups:  3,
		Prefix:  "src/file",
		EdgeKey: "links",
	}
}

// Generator creates test fixtures with various topologies.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.Groups <= 0 {
		cfg.Groups = 3
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "src/file"
	}
	if cfg.EdgeKey != "edges" {
		cfg.EdgeKey = "links"
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func names(size int) []string {
	nodes := make([]string, size)
	for i := range nodes {
		nodes[i] = fmt.Sprintf("n%d", i)
	}
	return nodes
}

// Chain creates n0 -> n1 -> ... -> n{size-1}.
func (g *Generator) Chain(size int) GraphFixture {
	gf := GraphFixture{Description: fmt.Sprintf("chain of %d", size), Nodes: names(size)}
	for i := 1; i < size; i++ {
		gf.Edges = append(gf.Edges, [2]int{i - 1, i})
	}
	return gf
}

// Star creates a hub n0 pointing at every spoke.
func (g *Generator) Star(spokes int) GraphFixture {
	gf := GraphFixture{Description: fmt.Sprintf("star with %d spokes", spokes), Nodes: names(spokes + 1)}
	for i := 1; i <= spokes; i++ {
		gf.Edges = append(gf.Edges, [2]int{0, i})
	}
	return gf
}

// Cycle creates a ring of size nodes.
func (g *Generator) Cycle(size int) GraphFixture {
	gf := GraphFixture{Description: fmt.Sprintf("cycle of %d", size), Nodes: names(size)}
	for i := 0; i < size && size > 1; i++ {
		gf.Edges = append(gf.Edges, [2]int{i, (i + 1) % size})
	}
	return gf
}

// SelfLoop creates one node pointing at itself.
func (g *Generator) SelfLoop() GraphFixture {
	return GraphFixture{Description: "self loop", Nodes: names(1), Edges: [][2]int{{0, 0}}}
}

// Tree creates a complete tree with the given depth and branching factor.
func (g *Generator) Tree(depth, breadth int) GraphFixture {
	gf := GraphFixture{Description: fmt.Sprintf("tree depth %d breadth %d", depth, breadth)}
	gf.Nodes = append(gf.Nodes, "n0")
	level := []int{0}
	for d := 0; d < depth; d++ {
		var next []int
		for _, parent := range level {
			for b := 0; b < breadth; b++ {
				idx := len(gf.Nodes)
				gf.Nodes = append(gf.Nodes, fmt.Sprintf("n%d", idx))
				gf.Edges = append(gf.Edges, [2]int{parent, idx})
				next = append(next, idx)
			}
		}
		level = next
	}
	return gf
}

// Disconnected creates separate chains.
func (g *Generator) Disconnected(components, componentSize int) GraphFixture {
	gf := GraphFixture{Description: fmt.Sprintf("%d chains of %d", components, componentSize)}
	gf.Nodes = names(components * componentSize)
	for c := 0; c < components; c++ {
		base := c * componentSize
		for i := 1; i < componentSize; i++ {
			gf.Edges = append(gf.Edges, [2]int{base + i - 1, base + i})
		}
	}
	return gf
}

// Complete connects every ordered pair i < j.
func (g *Generator) Complete(size int) GraphFixture {
	gf := GraphFixture{Description: fmt.Sprintf("complete graph of %d", size), Nodes: names(size)}
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			gf.Edges = append(gf.Edges, [2]int{i, j})
		}
	}
	return gf
}

// RandomDAG adds each forward edge with probability density.
func (g *Generator) RandomDAG(size int, density float64) GraphFixture {
	gf := GraphFixture{Description: fmt.Sprintf("random DAG of %d, density %.2f", size, density), Nodes: names(size)}
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			if g.rng.Float64() < density {
				gf.Edges = append(gf.Edges, [2]int{i, j})
			}
		}
	}
	return gf
}

// group returns the group assigned to node i.
func (g *Generator) group(i int) string {
	if g.cfg.Shuffled {
		return fmt.Sprintf("g%d", g.rng.Intn(g.cfg.Groups))
	}
	return fmt.Sprintf("g%d", i%g.cfg.Groups)
}

// ID returns the payload id of fixture node name.
func (g *Generator) ID(name string) string {
	return g.cfg.Prefix + "/" + name + ".go"
}

type payloadNode struct {
	ID    string `json:"id"`
	Group string `json:"group"`
}

type payloadEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Nodes returns the fixture's nodes with groups assigned.
func (g *Generator) Nodes(gf GraphFixture) []model.Node {
	nodes := make([]model.Node, len(gf.Nodes))
	for i, n := range gf.Nodes {
		nodes[i] = model.Node{ID: g.ID(n), Group: g.group(i)}
	}
	return nodes
}

// Edges returns the fixture's edges by node id.
func (g *Generator) Edges(gf GraphFixture) []model.Edge {
	edges := make([]model.Edge, len(gf.Edges))
	for i, e := range gf.Edges {
		edges[i] = model.Edge{Source: g.ID(gf.Nodes[e[0]]), Target: g.ID(gf.Nodes[e[1]])}
	}
	return edges
}

// Payload encodes the fixture as a dependency graph response body.
func (g *Generator) Payload(gf GraphFixture) []byte {
	nodes := g.Nodes(gf)
	pn := make([]payloadNode, len(nodes))
	for i, n := range nodes {
		pn[i] = payloadNode{ID: n.ID, Group: n.Group}
	}
	edges := g.Edges(gf)
	pe := make([]payloadEdge, len(edges))
	for i, e := range edges {
		pe[i] = payloadEdge{Source: e.Source, Target: e.Target}
	}
	data, err := json.Marshal(map[string]any{"nodes": pn, g.cfg.EdgeKey: pe})
	if err != nil {
		panic(fmt.Sprintf("testutil: encoding payload: %v", err))
	}
	return data
}

// Snapshot builds a snapshot of the fixture without going through a loader.
func (g *Generator) Snapshot(gf GraphFixture) *model.Snapshot {
	return model.NewSnapshot(fmt.Sprintf("fixture-%d", g.rng.Int63()), gf.Description, g.Nodes(gf), g.Edges(gf))
}

// ============================================================================
// Quick helpers
// ============================================================================

// QuickChain returns the payload of a default chain.
func QuickChain(size int) []byte {
	g := NewDefault()
	return g.Payload(g.Chain(size))
}

// QuickStar returns the payload of a default star.
func QuickStar(spokes int) []byte {
	g := NewDefault()
	return g.Payload(g.Star(spokes))
}

// QuickRandom returns the payload of a default random DAG.
func QuickRandom(size int, density float64) []byte {
	g := NewDefault()
	return g.Payload(g.RandomDAG(size, density))
}

// ScenarioPayload is the three-node, two-group example graph.
const ScenarioPayload = `{
  "nodes": [{"id":"a","group":"g1"},{"id":"b","group":"g1"},{"id":"c","group":"g2"}],
  "links": [{"source":"a","target":"b"},{"source":"b","target":"c"}]
}`

// DanglingEdgePayload references a node that is not in the node list.
const DanglingEdgePayload = `{
  "nodes": [{"id":"a","group":"g1"},{"id":"b","group":"g1"},{"id":"c","group":"g2"}],
  "links": [{"source":"a","target":"z"}]
}`
