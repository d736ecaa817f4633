package evac

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

const (
	greedySeedFraction = 0.8
	perturbProbability = 0.15
	tournamentSize     = 3
	nearestPoolSize    = 3
	timeWeight         = 0.5
)

// Metrics describes one engine run, in the spirit of the optimizer metrics
// the admin endpoints expose.
type Metrics struct {
	Generations int           `json:"generations"`
	PopSize     int           `json:"popSize"`
	Evaluations int           `json:"evaluations"`
	SeedFitness float64       `json:"seedFitness"`
	BestFitness float64       `json:"bestFitness"`
	Elapsed     time.Duration `json:"elapsedNs"`
	Snapshots   []GenSnapshot `json:"snapshots,omitempty"`
}

// GenSnapshot records the best and mean fitness after a generation.
type GenSnapshot struct {
	Generation int     `json:"generation"`
	Best       float64 `json:"best"`
	Mean       float64 `json:"mean"`
}

// Evolve runs the generational search and returns the best chromosome found.
// Empty inputs short-circuit to a nil chromosome without entering the loop.
func Evolve(m *Matrices, clusters []Cluster, shelters []Shelter, cfg PlanConfig) ([]int, Metrics) {
	cfg = cfg.withDefaults()
	met := Metrics{Generations: cfg.Generations, PopSize: cfg.PopSize}
	if len(clusters) == 0 || len(shelters) == 0 {
		return nil, met
	}
	start := time.Now()
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	// Per-cluster top-3 shelters, shared by init and mutation.
	nearest := make([][]int, len(clusters))
	for i := range clusters {
		nearest[i] = m.nearestShelters(i, nearestPoolSize)
	}

	greedy := GreedyChromosome(m, clusters, shelters)
	met.SeedFitness = fitness(greedy, m, clusters, shelters, cfg)

	population := initPopulation(rng, greedy, nearest, len(shelters), cfg)
	eliteN := cfg.PopSize / 10
	if eliteN < 1 {
		eliteN = 1
	}

	scores := make([]float64, len(population))
	for gen := 0; gen < cfg.Generations; gen++ {
		for i, c := range population {
			scores[i] = fitness(c, m, clusters, shelters, cfg)
		}
		met.Evaluations += len(population)
		met.Snapshots = append(met.Snapshots, snapshot(gen, scores))

		elites := bestIndices(scores, eliteN)
		next := make([][]int, 0, cfg.PopSize)
		for _, i := range elites {
			next = append(next, cloneChromosome(population[i]))
		}
		for len(next) < cfg.PopSize {
			p1 := tournament(rng, population, scores)
			p2 := tournament(rng, population, scores)
			c1, c2 := twoPointCrossover(rng, p1, p2)
			next = append(next, mutate(rng, c1, nearest, cfg.MutationRate))
			if len(next) < cfg.PopSize {
				next = append(next, mutate(rng, c2, nearest, cfg.MutationRate))
			}
		}
		population = next
	}

	best := population[0]
	bestScore := math.Inf(1)
	for _, c := range population {
		s := fitness(c, m, clusters, shelters, cfg)
		met.Evaluations++
		if s < bestScore {
			bestScore = s
			best = c
		}
	}
	met.BestFitness = bestScore
	met.Elapsed = time.Since(start)
	return best, met
}

// initPopulation fills 80% of the population with perturbed copies of the
// greedy seed (each gene reassigned to one of its 3 nearest shelters with
// small probability) and the rest with uniform random chromosomes.
func initPopulation(rng *rand.Rand, greedy []int, nearest [][]int, nShelters int, cfg PlanConfig) [][]int {
	greedyCount := int(float64(cfg.PopSize) * greedySeedFraction)
	pop := make([][]int, 0, cfg.PopSize)
	for k := 0; k < greedyCount; k++ {
		c := cloneChromosome(greedy)
		for i := range c {
			if rng.Float64() < perturbProbability {
				c[i] = nearest[i][rng.Intn(len(nearest[i]))]
			}
		}
		pop = append(pop, c)
	}
	for len(pop) < cfg.PopSize {
		c := make([]int, len(greedy))
		for i := range c {
			c[i] = rng.Intn(nShelters)
		}
		pop = append(pop, c)
	}
	return pop
}

// fitness scores a chromosome; lower is better. Distance dominates, time is
// a secondary tie-breaker, and capacity overflow adds a penalty quadratic in
// the excess so concentrated overflow scores far worse than spread overflow.
func fitness(chrom []int, m *Matrices, clusters []Cluster, shelters []Shelter, cfg PlanConfig) float64 {
	totalDist := 0.0
	totalTime := 0.0
	assigned := make([]int, len(shelters))
	for i, j := range chrom {
		pop := float64(clusters[i].Pop)
		d := m.Dist[i][j]
		t := m.Time[i][j]
		if math.IsInf(d, 1) {
			d = infeasibleSentinel
		}
		if math.IsInf(t, 1) {
			t = infeasibleSentinel
		}
		totalDist += d * pop
		totalTime += t * pop
		assigned[j] += clusters[i].Pop
	}
	penalty := 0.0
	for j, count := range assigned {
		if excess := count - shelters[j].Capacity; excess > 0 {
			penalty += float64(excess) * float64(excess) * cfg.CapacityPenalty
		}
	}
	return totalDist + timeWeight*totalTime + penalty
}

// tournament samples 3 distinct chromosomes and returns the fittest.
func tournament(rng *rand.Rand, pop [][]int, scores []float64) []int {
	k := tournamentSize
	if len(pop) < k {
		k = len(pop)
	}
	picks := rng.Perm(len(pop))[:k]
	best := picks[0]
	for _, i := range picks[1:] {
		if scores[i] < scores[best] {
			best = i
		}
	}
	return pop[best]
}

// twoPointCrossover swaps the middle segment [a,b) between the parents.
// Chromosomes shorter than 3 genes are returned unchanged.
func twoPointCrossover(rng *rand.Rand, p1, p2 []int) ([]int, []int) {
	n := len(p1)
	if n < 3 {
		return cloneChromosome(p1), cloneChromosome(p2)
	}
	a := rng.Intn(n)
	b := rng.Intn(n)
	for b == a {
		b = rng.Intn(n)
	}
	if a > b {
		a, b = b, a
	}
	c1 := cloneChromosome(p1)
	c2 := cloneChromosome(p2)
	copy(c1[a:b], p2[a:b])
	copy(c2[a:b], p1[a:b])
	return c1, c2
}

// mutate reassigns each gene with probability rate to one of the cluster's 3
// nearest shelters, keeping mutations locally sensible rather than uniform.
func mutate(rng *rand.Rand, chrom []int, nearest [][]int, rate float64) []int {
	for i := range chrom {
		if rng.Float64() < rate {
			chrom[i] = nearest[i][rng.Intn(len(nearest[i]))]
		}
	}
	return chrom
}

func bestIndices(scores []float64, n int) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })
	if n > len(idx) {
		n = len(idx)
	}
	return idx[:n]
}

func cloneChromosome(c []int) []int {
	return append([]int(nil), c...)
}

func snapshot(gen int, scores []float64) GenSnapshot {
	best := math.Inf(1)
	sum := 0.0
	for _, s := range scores {
		if s < best {
			best = s
		}
		sum += s
	}
	return GenSnapshot{Generation: gen, Best: best, Mean: sum / float64(len(scores))}
}
