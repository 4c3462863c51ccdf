package testutil

import (
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestChain(t *testing.T) {
	gen := NewDefault()

	tests := []struct {
		name      string
		size      int
		wantNodes int
		wantEdges int
	}{
		{"chain_1", 1, 1, 0},
		{"chain_2", 2, 2, 1},
		{"chain_5", 5, 5, 4},
		{"chain_10", 10, 10, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gf := gen.Chain(tt.size)

			if len(gf.Nodes) != tt.wantNodes {
				t.Errorf("Chain(%d) nodes = %d, want %d", tt.size, len(gf.Nodes), tt.wantNodes)
			}
			if len(gf.Edges) != tt.wantEdges {
				t.Errorf("Chain(%d) edges = %d, want %d", tt.size, len(gf.Edges), tt.wantEdges)
			}
			for i, e := range gf.Edges {
				if e[0] != i || e[1] != i+1 {
					t.Errorf("Edge %d: got [%d,%d], want [%d,%d]", i, e[0], e[1], i, i+1)
				}
			}
		})
	}
}

func TestTopologyCounts(t *testing.T) {
	gen := NewDefault()

	tests := []struct {
		name      string
		gf        GraphFixture
		wantNodes int
		wantEdges int
	}{
		{"star", gen.Star(4), 5, 4},
		{"cycle", gen.Cycle(4), 4, 4},
		{"cycle_1", gen.Cycle(1), 1, 0},
		{"self_loop", gen.SelfLoop(), 1, 1},
		{"tree", gen.Tree(2, 2), 7, 6},
		{"disconnected", gen.Disconnected(3, 2), 6, 3},
		{"complete", gen.Complete(5), 5, 10},
		{"random_dense", gen.RandomDAG(6, 1), 6, 15},
		{"random_empty", gen.RandomDAG(6, 0), 6, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.gf.Nodes) != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", len(tt.gf.Nodes), tt.wantNodes)
			}
			if len(tt.gf.Edges) != tt.wantEdges {
				t.Errorf("edges = %d, want %d", len(tt.gf.Edges), tt.wantEdges)
			}
			for _, e := range tt.gf.Edges {
				if e[0] < 0 || e[0] >= len(tt.gf.Nodes) || e[1] < 0 || e[1] >= len(tt.gf.Nodes) {
					t.Errorf("edge %v out of range", e)
				}
			}
		})
	}
}

func TestNodes_RoundRobinGroups(t *testing.T) {
	gen := NewDefault()
	nodes := gen.Nodes(gen.Chain(6))
	for i, n := range nodes {
		want := []string{"g0", "g1", "g2"}[i%3]
		if n.Group != want {
			t.Errorf("node %d group = %q, want %q", i, n.Group, want)
		}
		if !strings.HasPrefix(n.ID, "src/file/") || !strings.HasSuffix(n.ID, ".go") {
			t.Errorf("node %d id = %q", i, n.ID)
		}
	}
}

func TestPayload_Decodes(t *testing.T) {
	for _, key := range []string{"links", "edges"} {
		t.Run(key, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.EdgeKey = key
			gen := New(cfg)
			data := gen.Payload(gen.Star(3))

			var decoded map[string][]map[string]string
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("payload does not decode: %v", err)
			}
			if len(decoded["nodes"]) != 4 {
				t.Errorf("nodes = %d, want 4", len(decoded["nodes"]))
			}
			if len(decoded[key]) != 3 {
				t.Errorf("%s = %d, want 3", key, len(decoded[key]))
			}
			if decoded[key][0]["source"] != gen.ID("n0") {
				t.Errorf("first edge source = %q", decoded[key][0]["source"])
			}
		})
	}
}

func TestSnapshot_Fixture(t *testing.T) {
	gen := NewDefault()
	snap := gen.Snapshot(gen.Tree(2, 3))

	AssertNodeCount(t, snap, 13)
	AssertNoDuplicateIDs(t, snap)
	AssertEdgesResolved(t, snap)
	AssertFinitePositions(t, snap)
	if len(snap.Edges) != 12 {
		t.Errorf("edges = %d, want 12", len(snap.Edges))
	}
	if snap.Repo != "tree depth 2 breadth 3" {
		t.Errorf("repo = %q", snap.Repo)
	}
}

func TestDeterminism(t *testing.T) {
	cfg := DefaultConfig()

	gen1 := New(cfg)
	p1 := gen1.Payload(gen1.RandomDAG(20, 0.4))

	gen2 := New(cfg)
	p2 := gen2.Payload(gen2.RandomDAG(20, 0.4))

	if string(p1) != string(p2) {
		t.Error("same seed produced different payloads")
	}
}

func TestQuickHelpers(t *testing.T) {
	for name, data := range map[string][]byte{
		"chain":  QuickChain(5),
		"star":   QuickStar(5),
		"random": QuickRandom(10, 0.3),
	} {
		if !json.Valid(data) {
			t.Errorf("%s payload is not valid JSON", name)
		}
	}
	if !json.Valid([]byte(ScenarioPayload)) || !json.Valid([]byte(DanglingEdgePayload)) {
		t.Error("scenario payloads are not valid JSON")
	}
}

func TestWritePayload(t *testing.T) {
	dir := t.TempDir()
	path := WritePayload(t, dir, "graph.json", QuickChain(3))
	if !strings.HasSuffix(path, "graph.json") {
		t.Errorf("path = %q", path)
	}
}

// Benchmarks

func BenchmarkRandomDAG500(b *testing.B) {
	gen := NewDefault()
	for i := 0; i < b.N; i++ {
		_ = gen.Payload(gen.RandomDAG(500, 0.1))
	}
}

func BenchmarkComplete50(b *testing.B) {
	gen := NewDefault()
	for i := 0; i < b.N; i++ {
		_ = gen.Snapshot(gen.Complete(50))
	}
}
