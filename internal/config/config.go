package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Port string `yaml:"port" env:"PORT"`
}

// Storage selects the source of truth: memory, postgres, mongo or sqlite.
// Responses may be kept in redis instead by setting Responses to "redis".
type Storage struct {
	Driver    string `yaml:"driver" env:"STORAGE_DRIVER"`
	Responses string `yaml:"responses" env:"STORAGE_RESPONSES"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	TTL      string `yaml:"ttl" env:"REDIS_TTL"`
}

type Postgres struct {
	URL string `yaml:"url" env:"POSTGRES_URL"`
}

type Mongo struct {
	URI      string `yaml:"uri" env:"MONGO_URI"`
	Database string `yaml:"database" env:"MONGO_DATABASE"`
}

type SQLite struct {
	Path string `yaml:"path" env:"SQLITE_PATH"`
}

type Challenge struct {
	TTL string `yaml:"ttl" env:"CHALLENGE_TTL"`
}

type Scoring struct {
	Aggregate string `yaml:"aggregate" env:"SCORING_AGGREGATE"`
}

type Config struct {
	Server    Server    `yaml:"server"`
	Storage   Storage   `yaml:"storage"`
	Redis     Redis     `yaml:"redis"`
	Postgres  Postgres  `yaml:"postgres"`
	Mongo     Mongo     `yaml:"mongo"`
	SQLite    SQLite    `yaml:"sqlite"`
	Challenge Challenge `yaml:"challenge"`
	Scoring   Scoring   `yaml:"scoring"`
}

// Load reads YAML config from path, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "challenges"
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
