package evac

import (
	"math"

	"evacnav/internal/graph"
)

// degreesToMeters approximates metres per degree at city scale; good enough
// for the straight-line fallback when a shelter has no usable graph node.
const degreesToMeters = 111_000.0

// Matrices holds the precomputed cluster×shelter cost lookups: Dist in
// flood/congestion-weighted units, Time in walking seconds over raw length.
// Entries are +Inf for unreachable pairs. Both are computed once per planning
// run and read-only afterwards.
type Matrices struct {
	Dist [][]float64
	Time [][]float64
}

// ComputeMatrices runs one weighted and one raw-length single-source Dijkstra
// per shelter. Shelters without a resolvable node fall back to straight-line
// distance per cluster. Complexity is O(S·E log V), amortized before the
// generational loop ever runs.
func ComputeMatrices(g *graph.Graph, clusters []Cluster, shelters []Shelter, wt WeightTable, cfg PlanConfig) *Matrices {
	cfg = cfg.withDefaults()
	m := &Matrices{
		Dist: fullMatrix(len(clusters), len(shelters), math.Inf(1)),
		Time: fullMatrix(len(clusters), len(shelters), math.Inf(1)),
	}
	for j, s := range shelters {
		if s.NodeID == nil || !g.HasNode(*s.NodeID) {
			for i, c := range clusters {
				d := straightLineMeters(c.Lat, c.Lon, s.Lat, s.Lon)
				m.Dist[i][j] = d
				m.Time[i][j] = d / cfg.WalkingSpeedMS
			}
			continue
		}
		weighted := g.ShortestFrom(*s.NodeID, wt.Weight)
		raw := g.ShortestFrom(*s.NodeID, rawLength)
		for i, c := range clusters {
			if d, ok := weighted[c.ID]; ok {
				m.Dist[i][j] = d
			}
			if d, ok := raw[c.ID]; ok {
				m.Time[i][j] = d / cfg.WalkingSpeedMS
			}
		}
	}
	return m
}

// nearestShelters returns shelter indices for cluster i ordered by ascending
// weighted distance, ties broken by index, truncated to k.
func (m *Matrices) nearestShelters(i, k int) []int {
	n := len(m.Dist[i])
	order := make([]int, n)
	for j := range order {
		order[j] = j
	}
	insertionSortByDist(order, m.Dist[i])
	if k < n {
		order = order[:k]
	}
	return order
}

// insertionSortByDist is stable and avoids pulling sort.SliceStable into the
// per-cluster hot path; shelter counts are small.
func insertionSortByDist(order []int, dist []float64) {
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && dist[order[j]] < dist[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
}

func fullMatrix(rows, cols int, v float64) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		row := make([]float64, cols)
		for j := range row {
			row[j] = v
		}
		m[i] = row
	}
	return m
}

func straightLineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat1 - lat2
	dLon := lon1 - lon2
	return math.Sqrt(dLat*dLat+dLon*dLon) * degreesToMeters
}
