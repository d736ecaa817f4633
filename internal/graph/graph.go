// Package graph holds the in-memory road network consumed by the evacuation
// planner and the flood simulator. The graph is an undirected multigraph:
// parallel edges between the same node pair are kept and disambiguated by Key.
package graph

import "errors"

var (
	// ErrEmptyGraph is returned when an operation needs at least one node.
	ErrEmptyGraph = errors.New("graph has no nodes")
	// ErrNoPath is returned when two nodes are not connected.
	ErrNoPath = errors.New("no path between nodes")
)

// Node is a road intersection. X is longitude, Y is latitude.
// WaterDepth is written by the flood simulator between planning runs.
type Node struct {
	ID         int64
	X, Y       float64
	Elevation  float64
	WaterDepth float64
}

// Edge is a road segment between U and V. TrafficTime, when > 0, is an
// observed real-world traversal duration in seconds. Geometry, when present,
// is the ordered polyline of the segment as [lon, lat] pairs.
type Edge struct {
	U, V        int64
	Key         int
	Length      float64
	TrafficTime float64
	Geometry    [][2]float64
}

// WeightFunc returns the traversal cost of the edge at index i.
// Implementations must return strictly positive values.
type WeightFunc func(i int, e *Edge) float64

// Graph is not safe for concurrent mutation; planning runs that share a
// region must operate on their own copy or coordinate externally.
type Graph struct {
	nodes map[int64]*Node
	order []int64 // node insertion order, for deterministic scans
	edges []Edge
	adj   map[int64][]int // node id -> indices into edges

	grid *cellGrid // lazy spatial index for NearestNode
}

func New() *Graph {
	return &Graph{
		nodes: map[int64]*Node{},
		adj:   map[int64][]int{},
	}
}

// AddNode inserts or replaces a node.
func (g *Graph) AddNode(n Node) {
	if _, ok := g.nodes[n.ID]; !ok {
		g.order = append(g.order, n.ID)
	}
	cp := n
	g.nodes[n.ID] = &cp
	g.grid = nil
}

// AddEdge appends an edge and returns its index. Both endpoints must exist.
func (g *Graph) AddEdge(e Edge) int {
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.adj[e.U] = append(g.adj[e.U], idx)
	if e.V != e.U {
		g.adj[e.V] = append(g.adj[e.V], idx)
	}
	return idx
}

func (g *Graph) NumNodes() int { return len(g.nodes) }
func (g *Graph) NumEdges() int { return len(g.edges) }

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id int64) *Node { return g.nodes[id] }

// HasNode reports whether id is present.
func (g *Graph) HasNode(id int64) bool { return g.nodes[id] != nil }

// NodeIDs returns node ids in insertion order.
func (g *Graph) NodeIDs() []int64 { return g.order }

// EdgeAt returns a pointer into the edge slice; callers must not hold it
// across AddEdge calls.
func (g *Graph) EdgeAt(i int) *Edge { return &g.edges[i] }

// Incident returns the indices of edges touching id.
func (g *Graph) Incident(id int64) []int { return g.adj[id] }

// Neighbors returns the distinct opposite endpoints of id's incident edges.
func (g *Graph) Neighbors(id int64) []int64 {
	seen := map[int64]bool{}
	var out []int64
	for _, ei := range g.adj[id] {
		o := other(&g.edges[ei], id)
		if o == id || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}

// Clone returns a deep copy. Simulation runs copy the region graph so
// concurrent requests never share mutable node depths.
func (g *Graph) Clone() *Graph {
	c := New()
	for _, id := range g.order {
		c.AddNode(*g.nodes[id])
	}
	for _, e := range g.edges {
		ec := e
		if e.Geometry != nil {
			ec.Geometry = append([][2]float64(nil), e.Geometry...)
		}
		c.AddEdge(ec)
	}
	return c
}

func other(e *Edge, id int64) int64 {
	if e.U == id {
		return e.V
	}
	return e.U
}
