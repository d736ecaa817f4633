package evac

import (
	"errors"

	"evacnav/internal/graph"
)

// ErrNoGraph is returned when planning is requested against a graph with no
// nodes while clusters exist; there is nothing sensible to decode onto.
var ErrNoGraph = errors.New("road graph has no nodes")

// Plan runs the full pipeline for one request: weight table, distance
// matrices, greedy seed, genetic search, route decoding. Each call owns its
// own population and matrices, so concurrent runs over independent graph
// copies do not interfere.
//
// No clusters or no shelters is not an error: the plan is simply empty.
func Plan(g *graph.Graph, clusters []Cluster, shelters []Shelter, cfg PlanConfig) ([]Record, Metrics, error) {
	cfg = cfg.withDefaults()
	if len(clusters) == 0 || len(shelters) == 0 {
		return []Record{}, Metrics{}, nil
	}
	if g == nil || g.NumNodes() == 0 {
		return nil, Metrics{}, ErrNoGraph
	}
	wt := BuildWeightTable(g, cfg)
	m := ComputeMatrices(g, clusters, shelters, wt, cfg)
	best, met := Evolve(m, clusters, shelters, cfg)
	records, err := Decode(g, best, clusters, shelters, wt)
	if err != nil {
		return nil, met, err
	}
	return records, met, nil
}
