package evac

import (
	"testing"

	"evacnav/internal/graph"
)

func floodedPair(depthU, depthV float64) *graph.Graph {
	g := graph.New()
	g.AddNode(graph.Node{ID: 1, X: 0, Y: 0, WaterDepth: depthU})
	g.AddNode(graph.Node{ID: 2, X: 1, Y: 1, WaterDepth: depthV})
	return g
}

func TestWeightTableFloodPenalty(t *testing.T) {
	g := floodedPair(0.2, 0.2)
	g.AddEdge(graph.Edge{U: 1, V: 2, Length: 100})
	wt := BuildWeightTable(g, PlanConfig{})
	// 0.2 m average depth doubles effective cost at the reference factor.
	if got, want := wt[0], 200.0; got != want {
		t.Fatalf("weight = %v, want %v", got, want)
	}
}

func TestWeightTableDeterministic(t *testing.T) {
	g := floodedPair(0.3, 0.1)
	g.AddEdge(graph.Edge{U: 1, V: 2, Length: 42, TrafficTime: 9})
	a := BuildWeightTable(g, PlanConfig{})
	b := BuildWeightTable(g, PlanConfig{})
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("weight %d differs between identical builds: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestWeightTableCongestionFactor(t *testing.T) {
	g := floodedPair(0, 0)
	// free-flow = 138/13.8 = 10 s; observed 30 s -> 3x multiplier.
	g.AddEdge(graph.Edge{U: 1, V: 2, Length: 138, TrafficTime: 30})
	wt := BuildWeightTable(g, PlanConfig{})
	if got, want := wt[0], 138.0*3; got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("weight = %v, want %v", got, want)
	}
}

func TestWeightTableCongestionCapped(t *testing.T) {
	g := floodedPair(0, 0)
	// observed 100x free-flow must clamp at the 5x cap.
	g.AddEdge(graph.Edge{U: 1, V: 2, Length: 138, TrafficTime: 1000})
	wt := BuildWeightTable(g, PlanConfig{})
	if got, want := wt[0], 138.0*5; got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("weight = %v, want %v", got, want)
	}
}

func TestWeightTableFasterThanFreeFlowNotRewarded(t *testing.T) {
	g := floodedPair(0, 0)
	g.AddEdge(graph.Edge{U: 1, V: 2, Length: 138, TrafficTime: 1})
	wt := BuildWeightTable(g, PlanConfig{})
	if got := wt[0]; got != 138.0 {
		t.Fatalf("weight = %v, want unchanged 138", got)
	}
}

func TestWeightTablePositiveFloor(t *testing.T) {
	g := floodedPair(0, 0)
	g.AddEdge(graph.Edge{U: 1, V: 2, Length: 0})
	wt := BuildWeightTable(g, PlanConfig{})
	if wt[0] <= 0 {
		t.Fatalf("weight = %v, want strictly positive", wt[0])
	}
}
