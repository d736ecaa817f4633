package evac

import (
	"math"
	"math/rand"
	"testing"
)

// uniformMatrices gives every cluster/shelter pair the same cost so fitness
// differences come from the capacity penalty alone.
func uniformMatrices(nClusters, nShelters int) *Matrices {
	return &Matrices{
		Dist: fullMatrix(nClusters, nShelters, 1),
		Time: fullMatrix(nClusters, nShelters, 1),
	}
}

func TestQuadraticOverflowPenalty(t *testing.T) {
	// 10 clusters of 20 people, 10 shelters of capacity 10. Spreading puts
	// 10 excess in each shelter; concentrating puts all 200 in one.
	m := uniformMatrices(10, 10)
	clusters := make([]Cluster, 10)
	shelters := make([]Shelter, 10)
	spread := make([]int, 10)
	concentrated := make([]int, 10)
	for i := 0; i < 10; i++ {
		clusters[i] = Cluster{ID: int64(i), Pop: 20}
		shelters[i] = Shelter{ID: "S", Capacity: 10}
		spread[i] = i
		concentrated[i] = 0
	}
	cfg := PlanConfig{}.withDefaults()
	fs := fitness(spread, m, clusters, shelters, cfg)
	fc := fitness(concentrated, m, clusters, shelters, cfg)
	if fc <= fs {
		t.Fatalf("concentrated overflow fitness %v should exceed spread %v", fc, fs)
	}
}

func TestFitnessUsesSentinelForInfeasible(t *testing.T) {
	m := uniformMatrices(1, 2)
	m.Dist[0][1] = math.Inf(1)
	m.Time[0][1] = math.Inf(1)
	clusters := []Cluster{{ID: 1, Pop: 2}}
	shelters := []Shelter{{ID: "A", Capacity: 10}, {ID: "B", Capacity: 10}}
	cfg := PlanConfig{}.withDefaults()
	f := fitness([]int{1}, m, clusters, shelters, cfg)
	want := infeasibleSentinel*2 + 0.5*infeasibleSentinel*2
	if f != want {
		t.Fatalf("fitness = %v, want sentinel-based %v", f, want)
	}
}

func TestChromosomeInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	nClusters, nShelters := 13, 4
	m := uniformMatrices(nClusters, nShelters)
	clusters := make([]Cluster, nClusters)
	for i := range clusters {
		clusters[i] = Cluster{ID: int64(i), Pop: 5}
	}
	shelters := make([]Shelter, nShelters)
	for j := range shelters {
		shelters[j] = Shelter{ID: "S", Capacity: 100}
	}
	cfg := PlanConfig{PopSize: 24}.withDefaults()
	nearest := make([][]int, nClusters)
	for i := range nearest {
		nearest[i] = m.nearestShelters(i, nearestPoolSize)
	}
	greedy := GreedyChromosome(m, clusters, shelters)

	check := func(name string, c []int) {
		t.Helper()
		if len(c) != nClusters {
			t.Fatalf("%s: length %d, want %d", name, len(c), nClusters)
		}
		for _, gene := range c {
			if gene < 0 || gene >= nShelters {
				t.Fatalf("%s: gene %d out of range", name, gene)
			}
		}
	}

	check("greedy", greedy)
	pop := initPopulation(rng, greedy, nearest, nShelters, cfg)
	if len(pop) != cfg.PopSize {
		t.Fatalf("population size %d, want %d", len(pop), cfg.PopSize)
	}
	for _, c := range pop {
		check("init", c)
	}
	c1, c2 := twoPointCrossover(rng, pop[0], pop[1])
	check("crossover child 1", c1)
	check("crossover child 2", c2)
	check("mutant", mutate(rng, cloneChromosome(pop[2]), nearest, 0.5))
}

func TestCrossoverSkipsShortChromosomes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p1 := []int{0, 1}
	p2 := []int{1, 0}
	c1, c2 := twoPointCrossover(rng, p1, p2)
	if c1[0] != 0 || c1[1] != 1 || c2[0] != 1 || c2[1] != 0 {
		t.Fatalf("short chromosomes must pass through unchanged: %v %v", c1, c2)
	}
}

func TestCrossoverDoesNotAliasParents(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	p1 := []int{0, 0, 0, 0, 0}
	p2 := []int{1, 1, 1, 1, 1}
	c1, _ := twoPointCrossover(rng, p1, p2)
	c1[0] = 9
	if p1[0] == 9 || p2[0] == 9 {
		t.Fatal("crossover children must not share backing arrays with parents")
	}
}

func TestElitismBestFitnessNonIncreasing(t *testing.T) {
	nClusters, nShelters := 8, 3
	m := uniformMatrices(nClusters, nShelters)
	// Make shelters unevenly attractive so the search has work to do.
	for i := 0; i < nClusters; i++ {
		for j := 0; j < nShelters; j++ {
			m.Dist[i][j] = float64((i*7+j*13)%11 + 1)
			m.Time[i][j] = m.Dist[i][j]
		}
	}
	clusters := make([]Cluster, nClusters)
	for i := range clusters {
		clusters[i] = Cluster{ID: int64(i), Pop: 10}
	}
	shelters := make([]Shelter, nShelters)
	for j := range shelters {
		shelters[j] = Shelter{ID: "S", Capacity: 40}
	}
	_, met := Evolve(m, clusters, shelters, PlanConfig{PopSize: 20, Generations: 15, Seed: 42})
	for k := 1; k < len(met.Snapshots); k++ {
		if met.Snapshots[k].Best > met.Snapshots[k-1].Best+1e-9 {
			t.Fatalf("best fitness regressed at generation %d: %v -> %v",
				k, met.Snapshots[k-1].Best, met.Snapshots[k].Best)
		}
	}
	if met.BestFitness > met.Snapshots[len(met.Snapshots)-1].Best+1e-9 {
		t.Fatalf("returned best %v worse than last generation best %v",
			met.BestFitness, met.Snapshots[len(met.Snapshots)-1].Best)
	}
}

func TestEvolveEmptyInputsShortCircuit(t *testing.T) {
	best, met := Evolve(uniformMatrices(0, 0), nil, nil, PlanConfig{Seed: 1})
	if best != nil {
		t.Fatalf("best = %v, want nil", best)
	}
	if met.Evaluations != 0 {
		t.Fatalf("evaluations = %d, want 0 (loop must not run)", met.Evaluations)
	}
}

func TestEvolveDeterministicWithSeed(t *testing.T) {
	m := uniformMatrices(6, 3)
	for i := 0; i < 6; i++ {
		for j := 0; j < 3; j++ {
			m.Dist[i][j] = float64(i + j + 1)
			m.Time[i][j] = m.Dist[i][j]
		}
	}
	clusters := make([]Cluster, 6)
	for i := range clusters {
		clusters[i] = Cluster{ID: int64(i), Pop: 3}
	}
	shelters := []Shelter{
		{ID: "A", Capacity: 10}, {ID: "B", Capacity: 10}, {ID: "C", Capacity: 10},
	}
	cfg := PlanConfig{PopSize: 12, Generations: 8, Seed: 99}
	a, _ := Evolve(m, clusters, shelters, cfg)
	b, _ := Evolve(m, clusters, shelters, cfg)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seeded runs diverged: %v vs %v", a, b)
		}
	}
}
