package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"evacnav/internal/ingest"
	"evacnav/internal/metrics"
	"evacnav/internal/model"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type simFrame struct {
	Step         int                 `json:"step"`
	MaxDepthM    float64             `json:"maxDepthM"`
	AtRiskNodes  int                 `json:"atRiskNodes"`
	FloodedRoads []model.FloodedRoad `json:"floodedRoads"`
	Done         bool                `json:"done,omitempty"`
}

// SimStreamHandler handles GET /v1/simulate/stream. It upgrades to a
// websocket and pushes one frame per simulation step, paced so slow
// clients see the flood evolve rather than a burst of frames.
func (s *Server) SimStreamHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := ingest.NormKey(q.Get("region"))
	if key == "" {
		writeProblem(w, http.StatusBadRequest, "Missing region", "", r.URL.Path)
		return
	}
	rainfall, _ := strconv.ParseFloat(q.Get("rainfallMm"), 64)
	if rainfall < 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid rainfallMm", q.Get("rainfallMm"), r.URL.Path)
		return
	}
	steps := s.Cfg.Sim.Steps
	if v := q.Get("steps"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			steps = n
		}
	}
	sm, err := s.newSimulator(key, rainfall)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Unknown region", err.Error(), r.URL.Path)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(1 << 16)

	// Drain client frames so close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	lim := rate.NewLimiter(rate.Limit(5), 1)
	ctx := r.Context()
	for i := 1; i <= steps; i++ {
		if err := lim.Wait(ctx); err != nil {
			return
		}
		sm.Step(s.Cfg.Sim.Decay)
		metrics.SimSteps.WithLabelValues(key).Inc()
		frame := simFrame{
			Step:         i,
			MaxDepthM:    sm.MaxDepth(),
			AtRiskNodes:  len(sm.AtRisk(s.Cfg.Sim.RiskThreshold)),
			FloodedRoads: roadsOut(sm.RoadRisk()),
			Done:         i == steps,
		}
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(frame); err != nil {
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(time.Second))
}
