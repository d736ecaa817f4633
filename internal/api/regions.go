package api

import (
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"path/filepath"
	"sync"

	"evacnav/internal/evac"
	"evacnav/internal/graph"
	"evacnav/internal/ingest"
	"evacnav/internal/model"
	"evacnav/internal/shelter"
)

// RegionCache holds the loaded region datasets plus lazily built road graphs
// and shelter sets. Graphs are deterministic per region key, so repeated
// simulate and plan calls over a region see the same terrain.
type RegionCache struct {
	mu       sync.Mutex
	coords   map[string]model.RegionCoord
	tree     model.RegionTree
	rainfall map[string][]model.RainfallRecord
	graphs   map[string]*graph.Graph
	shelters map[string][]evac.Shelter
}

// LoadRegions reads the coordinate map and rainfall tables under dataDir.
// A missing coords file leaves an empty cache rather than failing startup.
func LoadRegions(dataDir string) (*RegionCache, error) {
	rc := &RegionCache{
		coords:   map[string]model.RegionCoord{},
		tree:     model.RegionTree{},
		rainfall: map[string][]model.RainfallRecord{},
		graphs:   map[string]*graph.Graph{},
		shelters: map[string][]evac.Shelter{},
	}
	coordsPath := filepath.Join(dataDir, "region_coords.json")
	coords, err := ingest.LoadCoords(coordsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[ingest] coords file missing: %s", coordsPath)
		} else {
			return nil, err
		}
	} else {
		rc.coords = coords
		rc.tree = ingest.BuildRegionTree(coords)
	}
	rain, err := ingest.LoadRainfallDir(dataDir)
	if err != nil {
		return nil, err
	}
	rc.rainfall = rain
	log.Printf("[ingest] regions loaded: %d coords, %d rainfall keys", len(rc.coords), len(rc.rainfall))
	return rc, nil
}

func (rc *RegionCache) Tree() model.RegionTree {
	return rc.tree
}

func (rc *RegionCache) Coord(key string) (model.RegionCoord, bool) {
	c, ok := rc.coords[key]
	return c, ok
}

func (rc *RegionCache) Rainfall(key, month string) []model.RainfallRecord {
	recs := rc.rainfall[key]
	if month == "" {
		return recs
	}
	out := []model.RainfallRecord{}
	for _, r := range recs {
		if r.Month == month {
			out = append(out, r)
		}
	}
	return out
}

// Graph returns the region's road graph, building it on first use. The
// returned graph is shared; callers that mutate water depths must Clone.
func (rc *RegionCache) Graph(key string) (*graph.Graph, error) {
	coord, ok := rc.coords[key]
	if !ok {
		return nil, fmt.Errorf("unknown region %q", key)
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if g, ok := rc.graphs[key]; ok {
		return g, nil
	}
	g := graph.BuildGrid(graph.GridSpec{
		Rows:      15,
		Cols:      15,
		CenterLat: coord.Lat,
		CenterLon: coord.Lon,
		Spacing:   0.002,
		BaseElev:  890,
		ElevRange: 14,
		Seed:      regionSeed(key),
	})
	rc.graphs[key] = g
	return g, nil
}

// SetFloodState replaces the cached graph with one carrying simulated water
// depths, so later reads see the region's current flood state. Shelters are
// keyed by node ID and stay valid across the swap.
func (rc *RegionCache) SetFloodState(key string, g *graph.Graph) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if _, ok := rc.graphs[key]; ok {
		rc.graphs[key] = g
	}
}

// Shelters returns the region's shelter set, synthesizing one on first use.
func (rc *RegionCache) Shelters(key string) ([]evac.Shelter, error) {
	g, err := rc.Graph(key)
	if err != nil {
		return nil, err
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if s, ok := rc.shelters[key]; ok {
		return s, nil
	}
	s := shelter.Synthetic(g, 6)
	rc.shelters[key] = s
	return s, nil
}

func regionSeed(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}
