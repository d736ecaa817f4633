package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"evacnav/internal/alerts"
	"evacnav/internal/evac"
	"evacnav/internal/ingest"
	"evacnav/internal/metrics"
	"evacnav/internal/model"
	"evacnav/internal/shelter"
	"evacnav/internal/sim"
	"evacnav/internal/store"
)

// RegionsHandler handles GET /v1/regions
func (s *Server) RegionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"regions": s.Regions.Tree()})
}

// RegionByKeyHandler handles GET /v1/regions/{key}[/rainfall|/shelters] and
// POST /v1/regions/{key}/load
func (s *Server) RegionByKeyHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/regions/")
	parts := strings.SplitN(rest, "/", 2)
	key := ingest.NormKey(parts[0])
	if key == "" {
		writeProblem(w, http.StatusBadRequest, "Missing region", "", r.URL.Path)
		return
	}
	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}
	switch sub {
	case "load":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		g, err := s.Regions.Graph(key)
		if err != nil {
			writeProblem(w, http.StatusNotFound, "Unknown region", err.Error(), r.URL.Path)
			return
		}
		shelters, err := s.Regions.Shelters(key)
		if err != nil {
			writeProblem(w, http.StatusNotFound, "Unknown region", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"region":   key,
			"nodes":    g.NumNodes(),
			"edges":    g.NumEdges(),
			"shelters": len(shelters),
		})
		return
	case "rainfall":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, ok := s.Regions.Coord(key); !ok && len(s.Regions.Rainfall(key, "")) == 0 {
			writeProblem(w, http.StatusNotFound, "Unknown region", key, r.URL.Path)
			return
		}
		month := r.URL.Query().Get("month")
		writeJSON(w, http.StatusOK, map[string]any{"region": key, "records": s.Regions.Rainfall(key, month)})
	case "shelters":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		shelters, err := s.Regions.Shelters(key)
		if err != nil {
			writeProblem(w, http.StatusNotFound, "Unknown region", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"region": key, "shelters": sheltersOut(shelters)})
	case "":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		coord, ok := s.Regions.Coord(key)
		if !ok {
			writeProblem(w, http.StatusNotFound, "Unknown region", key, r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, coord)
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
	}
}

// SimulateHandler handles POST /v1/simulate
func (s *Server) SimulateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateSimulateRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid simulate request", err.Error(), r.URL.Path)
		return
	}
	key := ingest.NormKey(req.Region)
	sm, err := s.newSimulator(key, req.RainfallMM)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Unknown region", err.Error(), r.URL.Path)
		return
	}
	steps := req.Steps
	if steps <= 0 {
		steps = s.Cfg.Sim.Steps
	}
	decay := req.Decay
	if decay == 0 {
		decay = s.Cfg.Sim.Decay
	}
	for i := 0; i < steps; i++ {
		sm.Step(decay)
		s.Broker.Publish(key, SSEEvent{Type: "sim.step", Data: map[string]any{
			"region": key, "step": i + 1, "maxDepthM": sm.MaxDepth(),
		}})
	}
	metrics.SimSteps.WithLabelValues(key).Add(float64(steps))
	s.Regions.SetFloodState(key, sm.G)

	atRisk := sm.AtRisk(s.Cfg.Sim.RiskThreshold)
	roads := sm.RoadRisk()
	resp := model.SimulateResponse{
		Region:       key,
		Steps:        steps,
		MaxDepthM:    sm.MaxDepth(),
		AtRiskNodes:  len(atRisk),
		FloodedRoads: roadsOut(roads),
	}
	if len(atRisk) > 0 {
		evt := SSEEvent{Type: alerts.EventFloodAlert, Data: map[string]any{
			"region": key, "atRiskNodes": len(atRisk), "maxDepthM": resp.MaxDepthM,
		}}
		s.Broker.Publish(key, evt)
		s.Pub.Emit(r.Context(), alerts.EventFloodAlert, evt.Data)
	}
	writeJSON(w, http.StatusOK, resp)
}

// PlanHandler handles POST /v1/plan
func (s *Server) PlanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validatePlanRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid plan request", err.Error(), r.URL.Path)
		return
	}
	key := ingest.NormKey(req.Region)
	plan, err := s.runPlan(r.Context(), key, req)
	if err != nil {
		metrics.PlanRuns.WithLabelValues(key, "error").Inc()
		status := http.StatusInternalServerError
		if errors.Is(err, errUnknownRegion) {
			status = http.StatusNotFound
		}
		writeProblem(w, status, "Plan failed", err.Error(), r.URL.Path)
		return
	}
	metrics.PlanRuns.WithLabelValues(key, "ok").Inc()
	writeJSON(w, http.StatusOK, plan)
}

var errUnknownRegion = errors.New("unknown region")

func (s *Server) runPlan(ctx context.Context, key string, req model.PlanRequest) (model.Plan, error) {
	shared, err := s.Regions.Graph(key)
	if err != nil {
		return model.Plan{}, fmt.Errorf("%w: %s", errUnknownRegion, key)
	}
	// Work on a copy so concurrent plans see independent flood state.
	g := shared.Clone()
	sm := sim.New(g, nil, nil)
	sm.InitializeFromDrains(req.RainfallMM)
	for i := 0; i < s.Cfg.Sim.Steps; i++ {
		sm.Step(s.Cfg.Sim.Decay)
	}
	pop := req.Population
	if pop <= 0 {
		pop = 5000
	}
	sm.DistributePopulation(pop)
	clusters := sm.AtRisk(s.Cfg.Sim.RiskThreshold)

	shelters, err := s.Regions.Shelters(key)
	if err != nil {
		return model.Plan{}, err
	}
	shelters = shelter.FilterSafe(g, shelters, s.Cfg.Sim.RiskThreshold)

	popSize := req.PopSize
	if popSize <= 0 {
		popSize = s.Cfg.Engine.PopSize
	}
	gens := req.Generations
	if gens <= 0 {
		gens = s.Cfg.Engine.Generations
	}

	start := time.Now()
	records, m, err := evac.Plan(g, clusters, shelters, evac.PlanConfig{
		PopSize:            popSize,
		Generations:        gens,
		MutationRate:       s.Cfg.Engine.MutationRate,
		FloodPenaltyFactor: s.Cfg.Engine.FloodPenalty,
		CapacityPenalty:    s.Cfg.Engine.OverflowScale,
		Seed:               req.Seed,
	})
	if err != nil {
		return model.Plan{}, err
	}
	metrics.PlanDuration.WithLabelValues(key).Observe(time.Since(start).Seconds())
	metrics.PlanBestFitness.WithLabelValues(key).Set(m.BestFitness)

	plan := model.Plan{
		ID:        uuid.New().String(),
		Region:    key,
		Request:   req,
		Routes:    routesOut(records),
		Metrics:   metricsOut(m),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.SavePlan(ctx, plan); err != nil {
		return model.Plan{}, err
	}
	evac.RecordRun(key, plan.ID, m)

	evt := SSEEvent{Type: alerts.EventPlanCompleted, Data: map[string]any{
		"planId": plan.ID, "region": key, "routes": len(plan.Routes), "bestFitness": m.BestFitness,
	}}
	s.Broker.Publish(key, evt)
	s.Pub.Emit(ctx, alerts.EventPlanCompleted, evt.Data)
	return plan, nil
}

// PlansHandler handles GET /v1/plans
func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	region := ingest.NormKey(r.URL.Query().Get("region"))
	cursor := r.URL.Query().Get("cursor")
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, next, err := s.Store.ListPlans(r.Context(), region, cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List plans failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// PlanByIDHandler handles GET /v1/plans/{id}
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/plans/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	plan, err := s.Store.GetPlan(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Plan not found", id, r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Get plan failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// PlanMetricsHandler handles GET /v1/admin/plan-metrics?region=
func (s *Server) PlanMetricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	region := ingest.NormKey(r.URL.Query().Get("region"))
	if region == "" {
		writeProblem(w, http.StatusBadRequest, "Missing region", "", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"region": region, "runs": evac.RunsForRegion(region)})
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			URL    string   `json:"url"`
			Secret string   `json:"secret"`
			Events []string `json:"events"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.URL == "" {
			writeProblem(w, http.StatusBadRequest, "Missing url", "", r.URL.Path)
			return
		}
		if len(req.Events) == 0 {
			req.Events = []string{"*"}
		}
		sub, err := s.Store.CreateSubscription(r.Context(), model.AlertSubscription{URL: req.URL, Secret: req.Secret, Events: req.Events})
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		cursor := r.URL.Query().Get("cursor")
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		items, next, err := s.Store.ListSubscriptions(r.Context(), cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if r.Method != http.MethodDelete || id == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if err := s.Store.DeleteSubscription(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Subscription not found", id, r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Delete failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EventsStreamHandler handles GET /v1/regions/{key}/events/stream as SSE.
func (s *Server) EventsStreamHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	key := ingest.NormKey(r.URL.Query().Get("region"))
	if key == "" {
		writeProblem(w, http.StatusBadRequest, "Missing region", "", r.URL.Path)
		return
	}
	fl, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.Broker.Subscribe(key)
	defer s.Broker.Unsubscribe(key, ch)
	fl.Flush()
	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", data)
			fl.Flush()
		}
	}
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{"status": "ok", "build": buildInfo()})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB connectivity when using Postgres store
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, 200, map[string]string{"status": "ready"})
}

func (s *Server) newSimulator(key string, rainfallMM float64) (*sim.Simulator, error) {
	shared, err := s.Regions.Graph(key)
	if err != nil {
		return nil, err
	}
	sm := sim.New(shared.Clone(), nil, nil)
	sm.InitializeFromDrains(rainfallMM)
	return sm, nil
}

func sheltersOut(in []evac.Shelter) []model.ShelterOut {
	out := make([]model.ShelterOut, 0, len(in))
	for _, sh := range in {
		out = append(out, model.ShelterOut{ID: sh.ID, Capacity: sh.Capacity, Lat: sh.Lat, Lon: sh.Lon})
	}
	return out
}

func roadsOut(in []sim.FloodedRoad) []model.FloodedRoad {
	out := make([]model.FloodedRoad, 0, len(in))
	for _, fr := range in {
		out = append(out, model.FloodedRoad{U: fr.U, V: fr.V, DepthCM: fr.DepthCM, Risk: fr.Risk})
	}
	return out
}

func routesOut(in []evac.Record) []model.PlanRoute {
	out := make([]model.PlanRoute, 0, len(in))
	for _, rec := range in {
		out = append(out, model.PlanRoute{
			FromCluster: rec.FromCluster,
			ToShelter:   rec.ToShelter,
			Pop:         rec.Pop,
			Path:        rec.Path,
			Fallback:    rec.Fallback,
		})
	}
	return out
}

func metricsOut(m evac.Metrics) model.PlanMetrics {
	return model.PlanMetrics{
		Generations: m.Generations,
		PopSize:     m.PopSize,
		Evaluations: m.Evaluations,
		SeedFitness: m.SeedFitness,
		BestFitness: m.BestFitness,
		ElapsedMs:   m.Elapsed.Milliseconds(),
	}
}
