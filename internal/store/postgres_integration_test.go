//go:build postgres_integration

package store

import (
	"os"
	"testing"
	"time"

	"evacnav/internal/model"
)

func TestPostgresConnectivityAndMigrate(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	if err := p.Ping(t.Context()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := p.MigrateDir("../../db/migrations"); err != nil {
		t.Fatalf("MigrateDir: %v", err)
	}
	plan := model.Plan{ID: "itest_plan", Region: "hebbal", CreatedAt: time.Now().UTC()}
	if err := p.SavePlan(t.Context(), plan); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	if _, _, err := p.ListPlans(t.Context(), "hebbal", "", 1); err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
}
