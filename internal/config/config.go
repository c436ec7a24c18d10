package config

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/viper"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/config"
)

// SearchConfig bounds provider searches.
type SearchConfig struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
}

// RateLimitConfig throttles per-client request rates.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// WorkerConfig drives the completion sweeper.
type WorkerConfig struct {
	SweepInterval time.Duration
	BatchSize     int
}

// ServiceConfig holds all configuration for the matching service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    config.DatabaseConfig
	JWTConfig   config.JWTConfig
	KafkaConfig config.KafkaConfig
	RedisConfig config.RedisConfig

	SnapshotTTL time.Duration
	Search      SearchConfig
	RateLimit   RateLimitConfig
	Worker      WorkerConfig

	// Location is the time zone whose calendar day counts as "today".
	Location *time.Location
	Holidays []civil.Date
}

// Load reads configuration from MATCHING_* environment variables and an
// optional config.yaml.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("MATCHING")
	if err != nil {
		return nil, err
	}
	setDefaults(v)

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	holidays, err := parseHolidays(v.GetString("HOLIDAYS"))
	if err != nil {
		return nil, err
	}

	cfg := &ServiceConfig{
		Port:        config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:      config.GetAppEnv(v),
		DBConfig:    config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:   config.LoadJWTConfig(v),
		KafkaConfig: config.LoadKafkaConfig(v),
		RedisConfig: config.LoadRedisConfig(v),
		SnapshotTTL: v.GetDuration("SNAPSHOT_TTL"),
		Search: SearchConfig{
			DefaultRadiusKm: v.GetFloat64("SEARCH_DEFAULT_RADIUS_KM"),
			MaxRadiusKm:     v.GetFloat64("SEARCH_MAX_RADIUS_KM"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Worker: WorkerConfig{
			SweepInterval: v.GetDuration("SWEEP_INTERVAL"),
			BatchSize:     v.GetInt("SWEEP_BATCH_SIZE"),
		},
		Location: loc,
		Holidays: holidays,
	}
	if cfg.Search.DefaultRadiusKm > cfg.Search.MaxRadiusKm {
		return nil, fmt.Errorf("SEARCH_DEFAULT_RADIUS_KM (%v) exceeds SEARCH_MAX_RADIUS_KM (%v)",
			cfg.Search.DefaultRadiusKm, cfg.Search.MaxRadiusKm)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", "8006")
	v.SetDefault("DB_NAME", "matching_db")
	v.SetDefault("SNAPSHOT_TTL", "5m")
	v.SetDefault("SEARCH_DEFAULT_RADIUS_KM", 20)
	v.SetDefault("SEARCH_MAX_RADIUS_KM", 200)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("SWEEP_INTERVAL", "10m")
	v.SetDefault("SWEEP_BATCH_SIZE", 100)
	v.SetDefault("TIMEZONE", "Asia/Kuala_Lumpur")
	v.SetDefault("HOLIDAYS", "")
}

// parseHolidays reads a comma-separated list of YYYY-MM-DD dates.
func parseHolidays(raw string) ([]civil.Date, error) {
	var out []civil.Date
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		d, err := civil.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday %q: %w", s, err)
		}
		out = append(out, d)
	}
	return out, nil
}
