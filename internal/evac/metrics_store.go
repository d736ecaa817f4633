package evac

import "sync"

type runKey struct {
	Region string
	RunID  string
}

var (
	runMu   sync.Mutex
	runByID = map[runKey]Metrics{}
)

// RecordRun stores the engine metrics of a finished planning run so the
// admin endpoints can report on them.
func RecordRun(region, runID string, m Metrics) {
	runMu.Lock()
	runByID[runKey{Region: region, RunID: runID}] = m
	runMu.Unlock()
}

// RunsForRegion returns recorded metrics keyed by run id.
func RunsForRegion(region string) map[string]Metrics {
	runMu.Lock()
	defer runMu.Unlock()
	out := map[string]Metrics{}
	for k, v := range runByID {
		if k.Region == region {
			out[k.RunID] = v
		}
	}
	return out
}
