package loader_test

import (
	"testing"

	"github.com/vanderheijden86/depview/pkg/loader"
	"github.com/vanderheijden86/depview/pkg/testutil"
)

func TestParse_GeneratedTopologies(t *testing.T) {
	gen := testutil.NewDefault()

	tests := []struct {
		name      string
		fixture   testutil.GraphFixture
		wantEdges int
	}{
		{"chain", gen.Chain(10), 9},
		{"star", gen.Star(8), 8},
		{"cycle", gen.Cycle(5), 5},
		{"self_loop", gen.SelfLoop(), 1},
		{"tree", gen.Tree(3, 2), 14},
		{"disconnected", gen.Disconnected(4, 3), 8},
		{"complete", gen.Complete(6), 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := loader.Parse(gen.Payload(tt.fixture), loader.ParseOptions{})
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			testutil.AssertNodeCount(t, snap, len(tt.fixture.Nodes))
			testutil.AssertNoDuplicateIDs(t, snap)
			testutil.AssertEdgesResolved(t, snap)
			if len(snap.Edges) != tt.wantEdges || len(snap.Dropped) != 0 {
				t.Errorf("edges = %d dropped = %d, want %d and 0", len(snap.Edges), len(snap.Dropped), tt.wantEdges)
			}
			for i, n := range snap.Nodes {
				if n.ID != gen.ID(tt.fixture.Nodes[i]) {
					t.Errorf("node %d = %q, order not preserved", i, n.ID)
					break
				}
			}
		})
	}
}

func TestParse_EdgesKeyFromGenerator(t *testing.T) {
	cfg := testutil.DefaultConfig()
	cfg.EdgeKey = "edges"
	gen := testutil.New(cfg)

	snap, err := loader.Parse(gen.Payload(gen.Chain(4)), loader.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(snap.Edges) != 3 {
		t.Errorf("edges = %d, want 3", len(snap.Edges))
	}
}

func BenchmarkParse_RandomDAG500(b *testing.B) {
	data := testutil.QuickRandom(500, 0.02)
	opts := loader.ParseOptions{WarningHandler: func(string) {}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := loader.Parse(data, opts); err != nil {
			b.Fatal(err)
		}
	}
}
