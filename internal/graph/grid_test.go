package graph

import "testing"

func TestBuildGridShape(t *testing.T) {
	g := BuildGrid(GridSpec{Rows: 3, Cols: 4, CenterLat: 13.0, CenterLon: 77.6, Spacing: 0.001, Seed: 7})
	if g.NumNodes() != 12 {
		t.Fatalf("nodes = %d, want 12", g.NumNodes())
	}
	// 3 rows of 3 horizontal edges plus 4 columns of 2 vertical edges.
	if g.NumEdges() != 17 {
		t.Fatalf("edges = %d, want 17", g.NumEdges())
	}
	corner := g.Node(1)
	if corner == nil {
		t.Fatal("node 1 missing")
	}
	if len(g.Neighbors(1)) != 2 {
		t.Errorf("corner degree = %d", len(g.Neighbors(1)))
	}
	if corner.Elevation < 0 || corner.Elevation > 12 {
		t.Errorf("elevation out of range: %v", corner.Elevation)
	}
}

func TestBuildGridDeterministic(t *testing.T) {
	spec := GridSpec{Rows: 4, Cols: 4, CenterLat: 12.9, CenterLon: 77.5, Seed: 42}
	a := BuildGrid(spec)
	b := BuildGrid(spec)
	for _, id := range a.NodeIDs() {
		na, nb := a.Node(id), b.Node(id)
		if na.Elevation != nb.Elevation {
			t.Fatalf("node %d elevation differs: %v vs %v", id, na.Elevation, nb.Elevation)
		}
	}
}

func TestBuildGridConnected(t *testing.T) {
	g := BuildGrid(GridSpec{Rows: 5, Cols: 5, Seed: 1})
	dist := g.ShortestFrom(1, func(_ int, e *Edge) float64 { return e.Length })
	if len(dist) != g.NumNodes() {
		t.Fatalf("reachable = %d of %d", len(dist), g.NumNodes())
	}
}
