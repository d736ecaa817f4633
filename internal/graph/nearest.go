package graph

import "math"

const gridCells = 64

// cellGrid is a uniform bucket index over node coordinates. It is good
// enough for snapping query points to road nodes without pulling in a full
// KD-tree; lookups fall back to widening ring scans.
type cellGrid struct {
	minX, minY float64
	cellW      float64
	cellH      float64
	cells      map[[2]int][]int64
}

func (g *Graph) buildGrid() *cellGrid {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, id := range g.order {
		n := g.nodes[id]
		minX = math.Min(minX, n.X)
		minY = math.Min(minY, n.Y)
		maxX = math.Max(maxX, n.X)
		maxY = math.Max(maxY, n.Y)
	}
	cg := &cellGrid{
		minX:  minX,
		minY:  minY,
		cellW: (maxX - minX) / gridCells,
		cellH: (maxY - minY) / gridCells,
		cells: map[[2]int][]int64{},
	}
	if cg.cellW <= 0 || cg.cellH <= 0 {
		// Degenerate bounds (single node or collinear axis); grid is useless.
		return nil
	}
	for _, id := range g.order {
		n := g.nodes[id]
		c := cg.cellOf(n.X, n.Y)
		cg.cells[c] = append(cg.cells[c], id)
	}
	return cg
}

func (cg *cellGrid) cellOf(x, y float64) [2]int {
	cx := int((x - cg.minX) / cg.cellW)
	cy := int((y - cg.minY) / cg.cellH)
	if cx < 0 {
		cx = 0
	} else if cx >= gridCells {
		cx = gridCells - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= gridCells {
		cy = gridCells - 1
	}
	return [2]int{cx, cy}
}

// NearestNode resolves (x, y) to a graph node through an ordered fallback
// chain: spatial grid lookup, then brute-force scan over all nodes, then an
// arbitrary node so the caller always gets *a* node. The only failure mode
// is an empty graph.
func (g *Graph) NearestNode(x, y float64) (int64, error) {
	if len(g.order) == 0 {
		return 0, ErrEmptyGraph
	}
	if g.grid == nil {
		g.grid = g.buildGrid()
	}
	if g.grid != nil {
		if id, ok := g.grid.nearest(g, x, y); ok {
			return id, nil
		}
	}
	if id, ok := g.bruteNearest(x, y); ok {
		return id, nil
	}
	return g.order[0], nil
}

// nearest scans the query cell and widening rings around it, stopping one
// ring after the first hit so a closer node in an adjacent cell is not missed.
func (cg *cellGrid) nearest(g *Graph, x, y float64) (int64, bool) {
	center := cg.cellOf(x, y)
	best := int64(0)
	bestD := math.Inf(1)
	firstHit := -1
	for ring := 0; ring < gridCells; ring++ {
		if firstHit >= 0 && ring > firstHit+1 {
			break
		}
		hit := false
		for cx := center[0] - ring; cx <= center[0]+ring; cx++ {
			for cy := center[1] - ring; cy <= center[1]+ring; cy++ {
				onRing := cx == center[0]-ring || cx == center[0]+ring ||
					cy == center[1]-ring || cy == center[1]+ring
				if !onRing {
					continue
				}
				for _, id := range cg.cells[[2]int{cx, cy}] {
					n := g.nodes[id]
					d := (n.X-x)*(n.X-x) + (n.Y-y)*(n.Y-y)
					if d < bestD {
						bestD = d
						best = id
						hit = true
					}
				}
			}
		}
		if hit && firstHit < 0 {
			firstHit = ring
		}
	}
	return best, firstHit >= 0
}

func (g *Graph) bruteNearest(x, y float64) (int64, bool) {
	best := int64(0)
	bestD := math.Inf(1)
	found := false
	for _, id := range g.order {
		n := g.nodes[id]
		d := (n.X-x)*(n.X-x) + (n.Y-y)*(n.Y-y)
		if d < bestD {
			bestD = d
			best = id
			found = true
		}
	}
	return best, found
}
