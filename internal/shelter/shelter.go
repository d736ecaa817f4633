// Package shelter turns raw shelter candidates (OSM amenity extracts or
// synthetic fallbacks) into capacity-annotated, graph-attached shelters and
// filters out the ones the current flood state has made unsafe.
package shelter

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"evacnav/internal/evac"
	"evacnav/internal/graph"
)

// Rule-based capacities by amenity type, people per shelter.
var capacityRules = map[string]int{
	"school":           500,
	"hospital":         200,
	"community_centre": 300,
	"townhall":         300,
	"police":           150,
	"fire_station":     150,
	"public":           250,
}

const (
	defaultCapacity       = 250
	syntheticCount        = 6
	syntheticCapacity     = 250
	defaultSafeDepthLimit = 0.15 // m of standing water at the attached node
)

// Candidate is a raw shelter-like feature before capacity assignment and
// graph attachment. Type is an OSM-style amenity value.
type Candidate struct {
	Name string  `json:"name"`
	Type string  `json:"type"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// CapacityFor applies the rule table, falling back to the default.
func CapacityFor(amenityType string) int {
	if c, ok := capacityRules[strings.ToLower(strings.TrimSpace(amenityType))]; ok {
		return c
	}
	return defaultCapacity
}

// Attach assigns capacities and snaps each candidate to its nearest road
// node. Candidates that cannot be snapped (empty graph) are dropped; with no
// candidates at all, synthetic shelters are scattered over road nodes so the
// planner always has somewhere to send people.
func Attach(g *graph.Graph, candidates []Candidate) []evac.Shelter {
	if len(candidates) == 0 {
		return Synthetic(g, syntheticCount)
	}
	out := make([]evac.Shelter, 0, len(candidates))
	for i, c := range candidates {
		id := fmt.Sprintf("shelter-%d-%s", i+1, shortID())
		if c.Name != "" {
			id = fmt.Sprintf("%s-%s", slug(c.Name), shortID())
		}
		s := evac.Shelter{
			ID:       id,
			Capacity: CapacityFor(c.Type),
			Lat:      c.Lat,
			Lon:      c.Lon,
		}
		if node, err := g.NearestNode(c.Lon, c.Lat); err == nil {
			s.NodeID = &node
		} else {
			log.Printf("[shelter] dropping %q: %v", id, err)
			continue
		}
		out = append(out, s)
	}
	return out
}

// Synthetic spreads n fallback shelters across evenly spaced road nodes.
func Synthetic(g *graph.Graph, n int) []evac.Shelter {
	ids := g.NodeIDs()
	if len(ids) == 0 || n <= 0 {
		return nil
	}
	if n > len(ids) {
		n = len(ids)
	}
	stride := len(ids) / n
	if stride < 1 {
		stride = 1
	}
	out := make([]evac.Shelter, 0, n)
	for k := 0; k < n; k++ {
		nodeID := ids[k*stride]
		node := g.Node(nodeID)
		id := nodeID
		out = append(out, evac.Shelter{
			ID:       fmt.Sprintf("synthetic-%s", shortID()),
			Capacity: syntheticCapacity,
			Lat:      node.Y,
			Lon:      node.X,
			NodeID:   &id,
		})
	}
	log.Printf("[shelter] no candidates, generated %d synthetic shelters", len(out))
	return out
}

// FilterSafe drops shelters whose attached node is under more water than
// maxDepth (<=0 selects the default limit). Shelters without a resolvable
// node are kept; the decoder will snap them and the planner's cost model
// already penalizes flooded approaches.
func FilterSafe(g *graph.Graph, shelters []evac.Shelter, maxDepth float64) []evac.Shelter {
	if maxDepth <= 0 {
		maxDepth = defaultSafeDepthLimit
	}
	out := make([]evac.Shelter, 0, len(shelters))
	for _, s := range shelters {
		if s.NodeID != nil {
			if n := g.Node(*s.NodeID); n != nil && n.WaterDepth > maxDepth {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func shortID() string {
	return uuid.NewString()[:8]
}

func slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, s)
	return strings.Trim(s, "-")
}
