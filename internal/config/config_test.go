package config

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8006", cfg.Port)
	assert.Equal(t, "matching_db", cfg.DBConfig.DBName)
	assert.Equal(t, 5*time.Minute, cfg.SnapshotTTL)
	assert.Equal(t, 20.0, cfg.Search.DefaultRadiusKm)
	assert.Equal(t, 200.0, cfg.Search.MaxRadiusKm)
	assert.Equal(t, 10*time.Minute, cfg.Worker.SweepInterval)
	assert.Equal(t, "Asia/Kuala_Lumpur", cfg.Location.String())
	assert.Empty(t, cfg.Holidays)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MATCHING_SERVICE_PORT", "9100")
	t.Setenv("MATCHING_HOLIDAYS", "2025-12-25, 2026-01-01")
	t.Setenv("MATCHING_TIMEZONE", "UTC")
	t.Setenv("MATCHING_SWEEP_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Port)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 30*time.Second, cfg.Worker.SweepInterval)
	assert.Equal(t, []civil.Date{{Year: 2025, Month: 12, Day: 25}, {Year: 2026, Month: 1, Day: 1}}, cfg.Holidays)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad holiday", "MATCHING_HOLIDAYS", "2025-13-01"},
		{"bad timezone", "MATCHING_TIMEZONE", "Mars/Olympus"},
		{"default radius above max", "MATCHING_SEARCH_DEFAULT_RADIUS_KM", "500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
