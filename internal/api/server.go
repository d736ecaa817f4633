package api

import (
	"os"
	"strings"

	"evacnav/internal/alerts"
	"evacnav/internal/config"
	"evacnav/internal/store"
)

type Server struct {
	Cfg     config.Config
	Store   store.Store
	Pub     *alerts.Publisher
	Broker  EventBroker
	Regions *RegionCache
}

// NewServer creates a Server. If DATABASE_URL is unset, uses in-memory store.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		// Run migrations (dev helper)
		if os.Getenv("DB_MIGRATE") != "false" {
			_ = sp.MigrateDir("db/migrations")
		}
		s = sp
	}
	var broker EventBroker
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}
	regions, err := LoadRegions(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return &Server{
		Cfg:     cfg,
		Store:   s,
		Pub:     alerts.NewPublisher(s),
		Broker:  broker,
		Regions: regions,
	}, nil
}

// NewAlertWorker creates a background worker for alert deliveries.
func (s *Server) NewAlertWorker() *alerts.Worker {
	return alerts.NewWorker(s.Store)
}
