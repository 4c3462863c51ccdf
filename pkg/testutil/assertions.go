package testutil

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/depview/pkg/model"
)

// AssertNodeCount verifies the expected number of nodes.
func AssertNodeCount(t *testing.T, snap *model.Snapshot, expected int) {
	t.Helper()
	if got := snap.Len(); got != expected {
		t.Errorf("expected %d nodes, got %d", expected, got)
	}
}

// AssertNoDuplicateIDs verifies all node IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, snap *model.Snapshot) {
	t.Helper()
	seen := make(map[string]bool)
	for _, n := range snap.Nodes {
		if seen[n.ID] {
			t.Errorf("duplicate node ID: %s", n.ID)
		}
		seen[n.ID] = true
	}
}

// AssertEdgesResolved verifies every kept edge references known nodes.
func AssertEdgesResolved(t *testing.T, snap *model.Snapshot) {
	t.Helper()
	for _, e := range snap.Edges {
		if snap.Node(e.Source) == nil || snap.Node(e.Target) == nil {
			t.Errorf("edge %s references an unknown node", e)
		}
	}
}

// AssertFinitePositions verifies no node position or velocity is NaN or Inf.
func AssertFinitePositions(t *testing.T, snap *model.Snapshot) {
	t.Helper()
	for _, n := range snap.Nodes {
		for _, v := range []float64{n.X, n.Y, n.VX, n.VY} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("node %s has non-finite state (%v,%v) v=(%v,%v)", n.ID, n.X, n.Y, n.VX, n.VY)
				break
			}
		}
	}
}

// GoldenFile compares test output against a stored file.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()
	if g.update {
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}
	if string(expected) == actual {
		return
	}

	expectedLines := strings.Split(string(expected), "\n")
	actualLines := strings.Split(actual, "\n")
	for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
		var expLine, actLine string
		if i < len(expectedLines) {
			expLine = expectedLines[i]
		}
		if i < len(actualLines) {
			actLine = actualLines[i]
		}
		if expLine != actLine {
			g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s", i+1, expLine, actLine)
			return
		}
	}
	g.t.Errorf("golden file mismatch (length differs)")
}

// WritePayload writes a graph payload to name inside dir and returns the path.
func WritePayload(t *testing.T, dir, name string, payload []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, payload, 0644); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}
	return path
}
