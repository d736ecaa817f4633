package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EVACNAV_CONFIG", "")
	t.Setenv("PORT", "")
	t.Setenv("DATA_DIR", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.Engine.PopSize != 60 || cfg.Engine.Generations != 40 {
		t.Errorf("engine defaults = %+v", cfg.Engine)
	}
	if cfg.Sim.Decay != 0.5 {
		t.Errorf("sim decay = %v", cfg.Sim.Decay)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := "addr: \":9000\"\ndataDir: /srv/data\nengine:\n  popSize: 80\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EVACNAV_CONFIG", path)
	t.Setenv("PORT", "7777")
	t.Setenv("DATA_DIR", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7777" {
		t.Errorf("env should win over file, addr = %q", cfg.Addr)
	}
	if cfg.DataDir != "/srv/data" {
		t.Errorf("dataDir = %q", cfg.DataDir)
	}
	if cfg.Engine.PopSize != 80 {
		t.Errorf("popSize = %d", cfg.Engine.PopSize)
	}
	if cfg.Engine.Generations != 40 {
		t.Errorf("unset file fields keep defaults, generations = %d", cfg.Engine.Generations)
	}
}

func TestLoadMissingRequestedFile(t *testing.T) {
	t.Setenv("EVACNAV_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for explicitly requested missing file")
	}
}
