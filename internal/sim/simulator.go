// Package sim is a simplified hydraulic flood simulator over the road graph.
// Water carries a head of elevation + depth and flows step by step from high
// head to lower-head neighbours. It produces the per-node water depths and
// at-risk population clusters the evacuation engine consumes.
package sim

import (
	"log"
	"sort"

	"evacnav/internal/evac"
	"evacnav/internal/graph"
)

const (
	// drainHeadFactor converts rainfall (mm) into the initial head at
	// overflowing drains; lakes breach with a much larger head to force
	// outward spread.
	drainHeadFactor = 25.0
	lakeHeadFactor  = 100.0

	minWetDepth = 0.001

	// DefaultDecay is the fraction of a node's depth that moves to lower
	// neighbours per step.
	DefaultDecay = 0.5

	// DefaultRiskThreshold is the depth (m) above which a populated node
	// counts as at risk.
	DefaultRiskThreshold = 0.15
)

// Simulator owns one graph copy and mutates its node depths across steps.
// Callers wanting isolation between runs pass g.Clone().
type Simulator struct {
	G          *graph.Graph
	DrainNodes []int64
	LakeNodes  []int64

	populations map[int64]int
}

func New(g *graph.Graph, drains, lakes []int64) *Simulator {
	return &Simulator{G: g, DrainNodes: drains, LakeNodes: lakes, populations: map[int64]int{}}
}

// InitializeFromDrains resets all depths and seeds flooding at drain and
// lake nodes proportional to rainfall. With no known drains or lakes the ten
// lowest-elevation nodes stand in for drains.
func (s *Simulator) InitializeFromDrains(rainfallMM float64) {
	for _, id := range s.G.NodeIDs() {
		s.G.Node(id).WaterDepth = 0
	}
	if len(s.DrainNodes) == 0 && len(s.LakeNodes) == 0 {
		s.DrainNodes = s.lowestNodes(10)
	}
	drainHead := rainfallMM / 1000 * drainHeadFactor
	for _, id := range s.DrainNodes {
		if n := s.G.Node(id); n != nil {
			n.WaterDepth = drainHead
		}
	}
	lakeHead := rainfallMM / 1000 * lakeHeadFactor
	for _, id := range s.LakeNodes {
		if n := s.G.Node(id); n != nil {
			n.WaterDepth = lakeHead
		}
	}
}

func (s *Simulator) lowestNodes(k int) []int64 {
	ids := append([]int64(nil), s.G.NodeIDs()...)
	sort.SliceStable(ids, func(a, b int) bool {
		return s.G.Node(ids[a]).Elevation < s.G.Node(ids[b]).Elevation
	})
	if len(ids) > k {
		ids = ids[:k]
	}
	return ids
}

// Step propagates one tick: every wet node sheds depth×decay to neighbours
// with lower hydraulic head, split proportionally to the head difference.
// Depth updates are staged so a step sees a consistent snapshot.
func (s *Simulator) Step(decay float64) {
	if decay <= 0 {
		decay = DefaultDecay
	}
	delta := map[int64]float64{}
	for _, id := range s.G.NodeIDs() {
		n := s.G.Node(id)
		if n.WaterDepth <= minWetDepth {
			continue
		}
		head := n.Elevation + n.WaterDepth
		var lower []int64
		var diffs []float64
		totalDiff := 0.0
		for _, nb := range s.G.Neighbors(id) {
			m := s.G.Node(nb)
			nbHead := m.Elevation + m.WaterDepth
			if nbHead < head {
				lower = append(lower, nb)
				diffs = append(diffs, head-nbHead)
				totalDiff += head - nbHead
			}
		}
		if len(lower) == 0 {
			continue
		}
		flowOut := n.WaterDepth * decay
		for i, nb := range lower {
			amount := flowOut * diffs[i] / totalDiff
			delta[id] -= amount
			delta[nb] += amount
		}
	}
	for id, d := range delta {
		s.G.Node(id).WaterDepth += d
	}
}

// DistributePopulation spreads people evenly across the network, remainder
// going to the earliest nodes. A degree- or land-use-weighted spread would
// slot in here without touching callers.
func (s *Simulator) DistributePopulation(total int) {
	ids := s.G.NodeIDs()
	if len(ids) == 0 {
		return
	}
	per := total / len(ids)
	rem := total % len(ids)
	s.populations = make(map[int64]int, len(ids))
	for i, id := range ids {
		p := per
		if i < rem {
			p++
		}
		s.populations[id] = p
	}
	log.Printf("[sim] distributed %d people across %d nodes", total, len(ids))
}

// SetPopulation pins an explicit population at a node, for callers with real
// census-derived counts instead of the uniform spread.
func (s *Simulator) SetPopulation(node int64, pop int) {
	s.populations[node] = pop
}

// AtRisk returns the population clusters standing in water deeper than the
// threshold, ready to hand to the evacuation planner.
func (s *Simulator) AtRisk(threshold float64) []evac.Cluster {
	if threshold <= 0 {
		threshold = DefaultRiskThreshold
	}
	var out []evac.Cluster
	for _, id := range s.G.NodeIDs() {
		n := s.G.Node(id)
		pop := s.populations[id]
		if n.WaterDepth > threshold && pop > 0 {
			out = append(out, evac.Cluster{ID: id, Pop: pop, Lat: n.Y, Lon: n.X})
		}
	}
	return out
}

// RoadRisk tiers for flooded edges, by average endpoint depth in cm.
const (
	RiskLow    = "low"    // < 20 cm, passable
	RiskMedium = "medium" // < 50 cm, caution
	RiskHigh   = "high"   // deeper, dangerous
)

// FloodedRoad is a reporting record for one edge with meaningful water.
type FloodedRoad struct {
	Edge    int     `json:"edge"`
	U       int64   `json:"u"`
	V       int64   `json:"v"`
	DepthCM float64 `json:"depthCm"`
	Risk    string  `json:"risk"`
}

// RoadRisk reports edges whose average endpoint depth exceeds 5 cm.
func (s *Simulator) RoadRisk() []FloodedRoad {
	var out []FloodedRoad
	for i := 0; i < s.G.NumEdges(); i++ {
		e := s.G.EdgeAt(i)
		du := s.G.Node(e.U).WaterDepth
		dv := s.G.Node(e.V).WaterDepth
		cm := (du + dv) / 2 * 100
		if cm <= 5 {
			continue
		}
		risk := RiskHigh
		if cm < 20 {
			risk = RiskLow
		} else if cm < 50 {
			risk = RiskMedium
		}
		out = append(out, FloodedRoad{Edge: i, U: e.U, V: e.V, DepthCM: cm, Risk: risk})
	}
	return out
}

// MaxDepth returns the deepest node water level, a cheap convergence signal
// for stream consumers.
func (s *Simulator) MaxDepth() float64 {
	max := 0.0
	for _, id := range s.G.NodeIDs() {
		if d := s.G.Node(id).WaterDepth; d > max {
			max = d
		}
	}
	return max
}
