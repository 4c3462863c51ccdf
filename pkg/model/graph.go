// Package model defines the dependency graph types shared by the loader,
// the layout engine and the renderers.
package model

import (
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
)

// Node is one file in the dependency graph.
//
// X, Y, VX and VY are owned by the layout engine while a simulation runs;
// every other component only reads them.
type Node struct {
	ID    string `json:"id"`
	Group string `json:"group"`

	X  float64 `json:"-"`
	Y  float64 `json:"-"`
	VX float64 `json:"-"`
	VY float64 `json:"-"`
}

// Edge is a directed dependency from Source to Target (both node ids).
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// IsSelfLoop reports whether the edge starts and ends at the same node.
func (e Edge) IsSelfLoop() bool {
	return e.Source == e.Target
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s", e.Source, e.Target)
}

// Snapshot is one loaded graph. Nodes keep the order in which they arrived
// from the loader; that order is the canonical display order.
type Snapshot struct {
	Session string // unique per successful load
	Repo    string
	Nodes   []Node
	Edges   []Edge
	Dropped []Edge // edges discarded at load time for unknown endpoints

	index map[string]int
}

// NewSnapshot builds a snapshot and its id index. Callers are expected to have
// validated ids and edges already (see pkg/loader).
func NewSnapshot(session, repo string, nodes []Node, edges []Edge) *Snapshot {
	s := &Snapshot{
		Session: session,
		Repo:    repo,
		Nodes:   nodes,
		Edges:   edges,
	}
	s.reindex()
	return s
}

func (s *Snapshot) reindex() {
	s.index = make(map[string]int, len(s.Nodes))
	for i := range s.Nodes {
		s.index[s.Nodes[i].ID] = i
	}
}

// Index returns the position of id in Nodes.
func (s *Snapshot) Index(id string) (int, bool) {
	if s == nil {
		return 0, false
	}
	if s.index == nil {
		s.reindex()
	}
	i, ok := s.index[id]
	return i, ok
}

// Node returns a pointer to the node with the given id, or nil.
func (s *Snapshot) Node(id string) *Node {
	i, ok := s.Index(id)
	if !ok {
		return nil
	}
	return &s.Nodes[i]
}

// Order returns node ids in canonical display order.
func (s *Snapshot) Order() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, len(s.Nodes))
	for i := range s.Nodes {
		ids[i] = s.Nodes[i].ID
	}
	return ids
}

// Groups returns the distinct group values in first-appearance order.
func (s *Snapshot) Groups() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]bool)
	var groups []string
	for _, n := range s.Nodes {
		if seen[n.Group] {
			continue
		}
		seen[n.Group] = true
		groups = append(groups, n.Group)
	}
	return groups
}

// Len returns the number of nodes.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Nodes)
}

// Graph returns a gonum view of the snapshot where node i has graph id i.
// Self-loops are left out because gonum's simple graphs reject them.
func (s *Snapshot) Graph() *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	if s == nil {
		return g
	}
	for i := range s.Nodes {
		g.AddNode(simple.Node(int64(i)))
	}
	for _, e := range s.Edges {
		if e.IsSelfLoop() {
			continue
		}
		from, ok1 := s.Index(e.Source)
		to, ok2 := s.Index(e.Target)
		if !ok1 || !ok2 {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(int64(from)), simple.Node(int64(to))))
	}
	return g
}

// Degrees returns the undirected degree of every node (in + out), indexed
// like Nodes.
func (s *Snapshot) Degrees() []int {
	if s == nil {
		return nil
	}
	g := s.Graph()
	deg := make([]int, len(s.Nodes))
	for i := range s.Nodes {
		id := int64(i)
		deg[i] = g.From(id).Len() + g.To(id).Len()
	}
	return deg
}
