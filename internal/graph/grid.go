package graph

import "math/rand"

// GridSpec describes a synthetic road lattice centered on a coordinate.
// Spacing is in degrees; elevations are drawn from the seeded source so a
// region always gets the same terrain.
type GridSpec struct {
	Rows, Cols int
	CenterLat  float64
	CenterLon  float64
	Spacing    float64
	BaseElev   float64
	ElevRange  float64
	Seed       int64
}

// BuildGrid constructs an undirected lattice graph with 4-connectivity.
// Node IDs are assigned row-major starting at 1.
func BuildGrid(spec GridSpec) *Graph {
	if spec.Rows < 2 {
		spec.Rows = 2
	}
	if spec.Cols < 2 {
		spec.Cols = 2
	}
	if spec.Spacing <= 0 {
		spec.Spacing = 0.002
	}
	if spec.ElevRange <= 0 {
		spec.ElevRange = 12
	}
	rng := rand.New(rand.NewSource(spec.Seed))
	g := New()
	id := func(r, c int) int64 { return int64(r*spec.Cols + c + 1) }
	lat0 := spec.CenterLat - spec.Spacing*float64(spec.Rows-1)/2
	lon0 := spec.CenterLon - spec.Spacing*float64(spec.Cols-1)/2
	for r := 0; r < spec.Rows; r++ {
		for c := 0; c < spec.Cols; c++ {
			g.AddNode(Node{
				ID:        id(r, c),
				Y:         lat0 + spec.Spacing*float64(r),
				X:         lon0 + spec.Spacing*float64(c),
				Elevation: spec.BaseElev + rng.Float64()*spec.ElevRange,
			})
		}
	}
	segLen := spec.Spacing * 111_000
	for r := 0; r < spec.Rows; r++ {
		for c := 0; c < spec.Cols; c++ {
			if c+1 < spec.Cols {
				g.AddEdge(Edge{U: id(r, c), V: id(r, c+1), Length: segLen})
			}
			if r+1 < spec.Rows {
				g.AddEdge(Edge{U: id(r, c), V: id(r+1, c), Length: segLen})
			}
		}
	}
	return g
}
