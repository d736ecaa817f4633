package evac

import (
	"fmt"

	"evacnav/internal/graph"
)

// Record is one line of the final evacuation plan. Path is an ordered list
// of [lon, lat] pairs; Fallback marks a straight-line path emitted when no
// road route exists between the resolved nodes. FromCluster and ToShelter
// carry the caller's original identifiers, not snapped node ids.
type Record struct {
	FromCluster int64        `json:"fromCluster"`
	ToShelter   string       `json:"toShelter"`
	Pop         int          `json:"pop"`
	Path        [][2]float64 `json:"path"`
	Fallback    bool         `json:"fallback"`
}

// Decode renders the chromosome into per-cluster routes on the weighted
// graph. Missing node references are recovered by nearest-node snapping;
// pathfinding failures degrade to a flagged straight line. The only hard
// error is a graph with no nodes at all.
func Decode(g *graph.Graph, chrom []int, clusters []Cluster, shelters []Shelter, wt WeightTable) ([]Record, error) {
	records := make([]Record, 0, len(chrom))
	for i, j := range chrom {
		c := clusters[i]
		s := shelters[j]

		rec := Record{
			FromCluster: c.ID,
			ToShelter:   s.ID,
			Pop:         c.Pop,
			Path:        [][2]float64{{c.Lon, c.Lat}, {s.Lon, s.Lat}},
			Fallback:    true,
		}

		cNode := c.ID
		if !g.HasNode(cNode) {
			id, err := g.NearestNode(c.Lon, c.Lat)
			if err != nil {
				return nil, fmt.Errorf("decode cluster %d: %w", c.ID, err)
			}
			cNode = id
		}
		sNode, err := resolveShelterNode(g, s)
		if err != nil {
			return nil, fmt.Errorf("decode shelter %s: %w", s.ID, err)
		}

		if nodes, hops, perr := g.ShortestPath(cNode, sNode, wt.Weight); perr == nil {
			rec.Path = expandPath(g, nodes, hops)
			rec.Fallback = false
		}
		records = append(records, rec)
	}
	return records, nil
}

func resolveShelterNode(g *graph.Graph, s Shelter) (int64, error) {
	if s.NodeID != nil && g.HasNode(*s.NodeID) {
		return *s.NodeID, nil
	}
	return g.NearestNode(s.Lon, s.Lat)
}

// expandPath concatenates each hop's stored polyline so routes follow road
// curvature instead of jumping intersection to intersection. Shared junction
// coordinates are not duplicated; edges without geometry contribute a
// straight two-point segment.
func expandPath(g *graph.Graph, nodes []int64, hops []int) [][2]float64 {
	if len(nodes) == 1 {
		n := g.Node(nodes[0])
		return [][2]float64{{n.X, n.Y}}
	}
	var coords [][2]float64
	for k, ei := range hops {
		e := g.EdgeAt(ei)
		seg := edgeSegment(g, e, nodes[k])
		if k == 0 {
			coords = append(coords, seg...)
		} else {
			coords = append(coords, seg[1:]...)
		}
	}
	return coords
}

// edgeSegment returns the edge polyline oriented to start at from.
func edgeSegment(g *graph.Graph, e *graph.Edge, from int64) [][2]float64 {
	if len(e.Geometry) >= 2 {
		seg := append([][2]float64(nil), e.Geometry...)
		if e.V == from && e.U != from {
			for i, j := 0, len(seg)-1; i < j; i, j = i+1, j-1 {
				seg[i], seg[j] = seg[j], seg[i]
			}
		}
		return seg
	}
	u := g.Node(e.U)
	v := g.Node(e.V)
	if e.V == from && e.U != from {
		u, v = v, u
	}
	return [][2]float64{{u.X, u.Y}, {v.X, v.Y}}
}
