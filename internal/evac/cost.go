// Package evac implements the flood-aware evacuation planning engine:
// a cost model over the road graph, precomputed shelter distance matrices,
// a capacity-aware greedy seeder, a generational genetic search over
// cluster-to-shelter assignments, and a route decoder for the winning plan.
package evac

import "evacnav/internal/graph"

// Reference defaults; every knob is overridable per run through PlanConfig.
const (
	defaultPopSize            = 60
	defaultGenerations        = 40
	defaultMutationRate       = 0.15
	defaultFloodPenaltyFactor = 5.0
	defaultCapacityPenalty    = 100_000.0
	defaultWalkingSpeedMS     = 1.2
	defaultReferenceSpeedMS   = 13.8 // ~50 km/h free-flow
	defaultCongestionCap      = 5.0

	// infeasibleSentinel replaces +Inf matrix entries inside fitness so
	// unreachable assignments stay comparable instead of poisoning sums.
	infeasibleSentinel = 1_000_000.0

	minEdgeWeight = 1e-9
)

// Cluster is a flood-affected population attached to one graph node.
type Cluster struct {
	ID  int64
	Pop int
	Lat float64
	Lon float64
}

// Shelter is a safe destination with a people capacity. NodeID is the road
// node it is attached to; nil means the decoder must snap by coordinates.
type Shelter struct {
	ID       string
	Capacity int
	Lat      float64
	Lon      float64
	NodeID   *int64
}

// PlanConfig carries the per-run engine parameters. Zero values are replaced
// by the reference defaults above.
type PlanConfig struct {
	PopSize            int
	Generations        int
	MutationRate       float64
	FloodPenaltyFactor float64
	CapacityPenalty    float64
	WalkingSpeedMS     float64
	ReferenceSpeedMS   float64
	CongestionCap      float64
	Seed               int64
}

func (c PlanConfig) withDefaults() PlanConfig {
	if c.PopSize <= 0 {
		c.PopSize = defaultPopSize
	}
	if c.Generations <= 0 {
		c.Generations = defaultGenerations
	}
	if c.MutationRate <= 0 {
		c.MutationRate = defaultMutationRate
	}
	if c.FloodPenaltyFactor <= 0 {
		c.FloodPenaltyFactor = defaultFloodPenaltyFactor
	}
	if c.CapacityPenalty <= 0 {
		c.CapacityPenalty = defaultCapacityPenalty
	}
	if c.WalkingSpeedMS <= 0 {
		c.WalkingSpeedMS = defaultWalkingSpeedMS
	}
	if c.ReferenceSpeedMS <= 0 {
		c.ReferenceSpeedMS = defaultReferenceSpeedMS
	}
	if c.CongestionCap <= 0 {
		c.CongestionCap = defaultCongestionCap
	}
	return c
}

// WeightTable is the per-run traversal cost of every edge, indexed by edge
// position in the graph. Building a table instead of annotating shared edge
// storage keeps concurrent planning runs from interfering.
type WeightTable []float64

// BuildWeightTable computes the flood- and congestion-penalized cost of each
// edge: length × (1 + floodPenalty × avgDepth), multiplied by the observed
// congestion factor when the edge carries a real-world traversal time.
func BuildWeightTable(g *graph.Graph, cfg PlanConfig) WeightTable {
	cfg = cfg.withDefaults()
	t := make(WeightTable, g.NumEdges())
	for i := 0; i < g.NumEdges(); i++ {
		e := g.EdgeAt(i)
		t[i] = edgeWeight(g, e, cfg)
	}
	return t
}

func edgeWeight(g *graph.Graph, e *graph.Edge, cfg PlanConfig) float64 {
	var depthU, depthV float64
	if n := g.Node(e.U); n != nil {
		depthU = n.WaterDepth
	}
	if n := g.Node(e.V); n != nil {
		depthV = n.WaterDepth
	}
	avgDepth := (depthU + depthV) / 2
	w := e.Length * (1 + cfg.FloodPenaltyFactor*avgDepth)
	if e.TrafficTime > 0 && e.Length > 0 {
		freeFlow := e.Length / cfg.ReferenceSpeedMS
		factor := e.TrafficTime / freeFlow
		if factor < 1 {
			factor = 1
		}
		if factor > cfg.CongestionCap {
			factor = cfg.CongestionCap
		}
		w *= factor
	}
	if w < minEdgeWeight {
		w = minEdgeWeight
	}
	return w
}

// Weight satisfies graph.WeightFunc.
func (t WeightTable) Weight(i int, _ *graph.Edge) float64 { return t[i] }

func rawLength(_ int, e *graph.Edge) float64 {
	if e.Length < minEdgeWeight {
		return minEdgeWeight
	}
	return e.Length
}
