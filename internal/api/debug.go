package api

import (
	"encoding/json"
	"net/http"
	"time"

	"evacnav/internal/buildinfo"
)

func buildInfo() map[string]string { return buildinfo.Info() }

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"ADDR":             s.Cfg.Addr,
			"DATA_DIR":         s.Cfg.DataDir,
			"SIM_STEPS":        s.Cfg.Sim.Steps,
			"ENGINE_POP_SIZE":  s.Cfg.Engine.PopSize,
			"HAS_DATABASE_URL": s.Cfg.DatabaseURL != "",
			"HAS_REDIS_URL":    s.Cfg.RedisURL != "",
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}
