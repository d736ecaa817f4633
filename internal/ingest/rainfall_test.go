package ingest

import (
	"strings"
	"testing"

	"evacnav/internal/model"
)

const sampleCSV = `Date,District,Taluk,Hobli,Normal (mm),Actual (mm),Dep %
01-06-2024,Bengaluru Urban,Bengaluru North,Hebbal,12.4,30.1,143
2-6-2024,Bengaluru Urban,Bengaluru North,Hebbal,11.0,0,−100
01-06-2024,Bengaluru Urban,Anekal,Sarjapura,9.8,4.2,-57
`

func TestLoadRainfall(t *testing.T) {
	store := map[string][]model.RainfallRecord{}
	n, err := LoadRainfall(strings.NewReader(sampleCSV), "June", store)
	if err != nil {
		t.Fatalf("LoadRainfall: %v", err)
	}
	if n != 3 {
		t.Fatalf("rows = %d, want 3", n)
	}
	recs := store["hebbal"]
	if len(recs) != 2 {
		t.Fatalf("hebbal rows = %d, want 2", len(recs))
	}
	first := recs[0]
	if first.Date != "01-06-2024" {
		t.Errorf("date = %q", first.Date)
	}
	if first.ActualMM != 30.1 {
		t.Errorf("actual = %v", first.ActualMM)
	}
	if first.NormalMM == nil || *first.NormalMM != 12.4 {
		t.Errorf("normal = %v", first.NormalMM)
	}
	if first.Month != "June" {
		t.Errorf("month = %q", first.Month)
	}
	if recs[1].Date != "02-06-2024" {
		t.Errorf("short date not normalized: %q", recs[1].Date)
	}
	if len(store["sarjapura"]) != 1 {
		t.Errorf("sarjapura rows = %d", len(store["sarjapura"]))
	}
}

func TestDetectColumnsVariants(t *testing.T) {
	cols, err := detectColumns([]string{"DATE", " District ", "Taluk", "HOBLI", "normal-mm", "Actual mm rainfall", "Dep percent"})
	if err != nil {
		t.Fatalf("detectColumns: %v", err)
	}
	for name, want := range map[string]int{"date": 0, "district": 1, "taluk": 2, "hobli": 3, "normal_mm": 4, "actual_mm": 5, "dep_pct": 6} {
		if cols[name] != want {
			t.Errorf("%s = %d, want %d", name, cols[name], want)
		}
	}
}

func TestDetectColumnsMissingRequired(t *testing.T) {
	if _, err := detectColumns([]string{"District", "Taluk", "Hobli"}); err == nil {
		t.Fatal("expected error for missing date and actual columns")
	}
}

func TestNormKey(t *testing.T) {
	if got := NormKey("  Bengaluru   North "); got != "bengaluru_north" {
		t.Fatalf("NormKey = %q", got)
	}
}

func TestBuildRegionTree(t *testing.T) {
	coords := map[string]model.RegionCoord{
		"hebbal":    {Name: "Hebbal", District: "Bengaluru Urban", Taluk: "Bengaluru North", Lat: 13.03, Lon: 77.59},
		"yelahanka": {Name: "Yelahanka", District: "Bengaluru Urban", Taluk: "Bengaluru North", Lat: 13.10, Lon: 77.59},
		"sarjapura": {Name: "Sarjapura", District: "Bengaluru Urban", Taluk: "Anekal", Lat: 12.86, Lon: 77.78},
		"lost":      {Name: "Lost", Lat: 0, Lon: 0},
	}
	tree := BuildRegionTree(coords)
	north := tree["Bengaluru Urban"]["Bengaluru North"]
	if len(north) != 2 || north[0] != "Hebbal" || north[1] != "Yelahanka" {
		t.Fatalf("north = %v", north)
	}
	if len(tree["Bengaluru Urban"]["Anekal"]) != 1 {
		t.Errorf("anekal = %v", tree["Bengaluru Urban"]["Anekal"])
	}
	if len(tree["Unknown"]["Unknown"]) != 1 {
		t.Errorf("unknown bucket = %v", tree["Unknown"])
	}
}
