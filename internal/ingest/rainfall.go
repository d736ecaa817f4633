// Package ingest loads the static datasets the service is seeded with:
// monthly 24h rainfall tables (CSV) and the region coordinate map (JSON).
// Column matching is deliberately loose; the source spreadsheets shift
// headers between months.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"evacnav/internal/model"
)

// Months with published rainfall tables, in load order.
var rainfallFiles = map[string]string{
	"May":  "rainfall_24hrs_may.csv",
	"June": "rainfall_24hrs_june.csv",
	"July": "rainfall_24hrs_july.csv",
}

// LoadRainfallDir reads every known monthly file under dir into a map keyed
// by normalized region key. Missing files are skipped, not errors.
func LoadRainfallDir(dir string) (map[string][]model.RainfallRecord, error) {
	out := map[string][]model.RainfallRecord{}
	loaded := 0
	for month, name := range rainfallFiles {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				log.Printf("[ingest] rainfall file missing, skipping: %s", name)
				continue
			}
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		n, err := loadRainfallCSV(f, month, out)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		log.Printf("[ingest] loaded %d rainfall rows from %s", n, name)
		loaded++
	}
	if loaded == 0 {
		log.Printf("[ingest] no rainfall files found in %s", dir)
	}
	return out, nil
}

// LoadRainfall parses one CSV stream into the store map; exported for tests
// and for callers feeding uploads instead of disk files.
func LoadRainfall(r io.Reader, month string, store map[string][]model.RainfallRecord) (int, error) {
	return loadRainfallCSV(r, month, store)
}

func loadRainfallCSV(r io.Reader, month string, store map[string][]model.RainfallRecord) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	cols, err := detectColumns(header)
	if err != nil {
		return 0, err
	}
	count := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		rec := model.RainfallRecord{
			Date:     normalizeDate(field(row, cols, "date")),
			District: field(row, cols, "district"),
			Taluk:    field(row, cols, "taluk"),
			Month:    month,
			ActualMM: parseFloat(field(row, cols, "actual_mm")),
		}
		if _, ok := cols["normal_mm"]; ok {
			v := parseFloat(field(row, cols, "normal_mm"))
			rec.NormalMM = &v
		}
		if _, ok := cols["dep_pct"]; ok {
			v := parseFloat(field(row, cols, "dep_pct"))
			rec.DepPct = &v
		}
		region := field(row, cols, "hobli")
		if region == "" {
			continue
		}
		key := NormKey(region)
		store[key] = append(store[key], rec)
		count++
	}
	return count, nil
}

// detectColumns matches headers case-insensitively with the source sheets'
// drift in spacing and punctuation.
func detectColumns(header []string) (map[string]int, error) {
	cols := map[string]int{}
	for i, h := range header {
		c := strings.ToLower(strings.TrimSpace(h))
		c = strings.NewReplacer(" ", "_", "-", "_").Replace(c)
		switch {
		case c == "date":
			cols["date"] = i
		case c == "district":
			cols["district"] = i
		case c == "taluk":
			cols["taluk"] = i
		case c == "hobli":
			cols["hobli"] = i
		case strings.Contains(c, "normal") && strings.Contains(c, "mm"):
			cols["normal_mm"] = i
		case strings.Contains(c, "actual") && strings.Contains(c, "mm"):
			cols["actual_mm"] = i
		case strings.Contains(c, "dep") &&
			(strings.Contains(c, "pct") || strings.Contains(c, "percent") || strings.Contains(c, "%")):
			cols["dep_pct"] = i
		}
	}
	for _, req := range []string{"date", "hobli", "actual_mm"} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("required column %q not found in header %v", req, header)
		}
	}
	return cols, nil
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// normalizeDate re-renders day-first dates as DD-MM-YYYY, passing through
// anything it cannot parse.
func normalizeDate(s string) string {
	for _, layout := range []string{"02-01-2006", "2-1-2006", "02/01/2006", "2/1/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02-01-2006")
		}
	}
	return s
}

// NormKey normalizes a region display name into a lookup key.
func NormKey(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, " ", "_")
}
