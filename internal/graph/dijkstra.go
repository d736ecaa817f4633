package graph

import "container/heap"

// pqItem is a pending node in the Dijkstra frontier. Stale entries are
// skipped on pop rather than re-prioritized in place.
type pqItem struct {
	node int64
	dist float64
}

type pq []pqItem

func (q pq) Len() int            { return len(q) }
func (q pq) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q pq) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *pq) Push(x any)         { *q = append(*q, x.(pqItem)) }
func (q *pq) Pop() any           { old := *q; n := len(old); it := old[n-1]; *q = old[:n-1]; return it }

// ShortestFrom runs single-source Dijkstra from src using w for edge costs
// and returns the cost to every reachable node. Nodes absent from the result
// are unreachable. Weights must be non-negative.
func (g *Graph) ShortestFrom(src int64, w WeightFunc) map[int64]float64 {
	dist := map[int64]float64{}
	if !g.HasNode(src) {
		return dist
	}
	done := map[int64]bool{}
	dist[src] = 0
	q := &pq{{node: src, dist: 0}}
	for q.Len() > 0 {
		it := heap.Pop(q).(pqItem)
		if done[it.node] {
			continue
		}
		done[it.node] = true
		for _, ei := range g.adj[it.node] {
			e := &g.edges[ei]
			n := other(e, it.node)
			nd := it.dist + w(ei, e)
			if cur, ok := dist[n]; !ok || nd < cur {
				dist[n] = nd
				heap.Push(q, pqItem{node: n, dist: nd})
			}
		}
	}
	return dist
}

// ShortestPath returns the minimum-cost path from src to dst as a node
// sequence plus the edge index taken for each hop (so callers can recover
// which parallel edge the relaxation chose). Returns ErrNoPath when dst is
// unreachable and ErrEmptyGraph when either endpoint is missing.
func (g *Graph) ShortestPath(src, dst int64, w WeightFunc) ([]int64, []int, error) {
	if !g.HasNode(src) || !g.HasNode(dst) {
		return nil, nil, ErrEmptyGraph
	}
	if src == dst {
		return []int64{src}, nil, nil
	}
	dist := map[int64]float64{src: 0}
	prevNode := map[int64]int64{}
	prevEdge := map[int64]int{}
	done := map[int64]bool{}
	q := &pq{{node: src, dist: 0}}
	for q.Len() > 0 {
		it := heap.Pop(q).(pqItem)
		if done[it.node] {
			continue
		}
		if it.node == dst {
			break
		}
		done[it.node] = true
		for _, ei := range g.adj[it.node] {
			e := &g.edges[ei]
			n := other(e, it.node)
			nd := it.dist + w(ei, e)
			if cur, ok := dist[n]; !ok || nd < cur {
				dist[n] = nd
				prevNode[n] = it.node
				prevEdge[n] = ei
				heap.Push(q, pqItem{node: n, dist: nd})
			}
		}
	}
	if _, ok := dist[dst]; !ok {
		return nil, nil, ErrNoPath
	}
	var nodes []int64
	var hops []int
	for cur := dst; cur != src; cur = prevNode[cur] {
		nodes = append(nodes, cur)
		hops = append(hops, prevEdge[cur])
	}
	nodes = append(nodes, src)
	reverse64(nodes)
	reverseInt(hops)
	return nodes, hops, nil
}

func reverse64(s []int64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseInt(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
