package evac

import (
	"math"
	"sort"
)

// GreedyChromosome builds the seed assignment: clusters are processed in
// descending population (ties by ascending ID, so the seed is reproducible
// regardless of input order) and each takes the nearest shelter with room
// left. When every shelter would overflow, the one with the lowest overflow
// ratio (occupied+incoming)/capacity is taken, spreading excess instead of
// piling it onto the nearest shelter.
//
// The returned slice is indexed by input cluster position; only the
// processing order is population-sorted.
func GreedyChromosome(m *Matrices, clusters []Cluster, shelters []Shelter) []int {
	if len(clusters) == 0 || len(shelters) == 0 {
		return nil
	}
	order := make([]int, len(clusters))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := clusters[order[a]], clusters[order[b]]
		if ca.Pop != cb.Pop {
			return ca.Pop > cb.Pop
		}
		return ca.ID < cb.ID
	})

	occupied := make([]int, len(shelters))
	chromosome := make([]int, len(clusters))
	for _, i := range order {
		pop := clusters[i].Pop
		byDist := m.nearestShelters(i, len(shelters))

		chosen := -1
		overflowJ := byDist[0]
		minRatio := math.Inf(1)
		for _, j := range byDist {
			cap := shelters[j].Capacity
			if cap < 1 {
				cap = 1
			}
			ratio := float64(occupied[j]+pop) / float64(cap)
			if ratio <= 1 {
				chosen = j
				break
			}
			if ratio < minRatio {
				minRatio = ratio
				overflowJ = j
			}
		}
		if chosen < 0 {
			chosen = overflowJ
		}
		occupied[chosen] += pop
		chromosome[i] = chosen
	}
	return chromosome
}
