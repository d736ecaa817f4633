// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

type Config struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"databaseUrl"`
	RedisURL    string `yaml:"redisUrl"`
	DataDir     string `yaml:"dataDir"`

	Engine EngineConfig `yaml:"engine"`
	Sim    SimConfig    `yaml:"sim"`
}

type EngineConfig struct {
	PopSize       int     `yaml:"popSize"`
	Generations   int     `yaml:"generations"`
	MutationRate  float64 `yaml:"mutationRate"`
	FloodPenalty  float64 `yaml:"floodPenalty"`
	OverflowScale float64 `yaml:"overflowScale"`
}

type SimConfig struct {
	Steps         int     `yaml:"steps"`
	Decay         float64 `yaml:"decay"`
	RiskThreshold float64 `yaml:"riskThreshold"`
}

// Load reads the file named by EVACNAV_CONFIG when set, then applies
// environment overrides and defaults. A missing config file is an error
// only when it was explicitly requested.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("EVACNAV_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		Addr:    ":8080",
		DataDir: "data",
		Engine: EngineConfig{
			PopSize:      60,
			Generations:  40,
			MutationRate: 0.15,
		},
		Sim: SimConfig{
			Steps:         30,
			Decay:         0.5,
			RiskThreshold: 0.15,
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
}
