package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"evacnav/internal/model"
)

// LoadCoords reads the region coordinate map. The file is a JSON object of
// display name to {lat, lon, district, taluk}; keys are normalized on load.
func LoadCoords(path string) (map[string]model.RegionCoord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read coords: %w", err)
	}
	var raw map[string]model.RegionCoord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse coords: %w", err)
	}
	out := make(map[string]model.RegionCoord, len(raw))
	for name, rc := range raw {
		if rc.Name == "" {
			rc.Name = strings.TrimSpace(name)
		}
		out[NormKey(name)] = rc
	}
	return out, nil
}

// BuildRegionTree groups regions district > taluk > sorted hobli names for
// the region listing endpoint.
func BuildRegionTree(coords map[string]model.RegionCoord) model.RegionTree {
	tree := model.RegionTree{}
	for _, rc := range coords {
		district := rc.District
		if district == "" {
			district = "Unknown"
		}
		taluk := rc.Taluk
		if taluk == "" {
			taluk = "Unknown"
		}
		if tree[district] == nil {
			tree[district] = map[string][]string{}
		}
		tree[district][taluk] = append(tree[district][taluk], rc.Name)
	}
	for _, taluks := range tree {
		for t := range taluks {
			sort.Strings(taluks[t])
		}
	}
	return tree
}
