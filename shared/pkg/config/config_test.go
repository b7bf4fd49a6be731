package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/line-sim/shared/pkg/simulator"
)

// inTempDir runs the test from an empty directory so no local .env is read
func inTempDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8084", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 10000, cfg.SimulationIterations)
	assert.Equal(t, 4, cfg.SimulationWorkers)
	assert.Equal(t, "fanduel", cfg.PreferredBookmaker)
	assert.Equal(t, 20.0, cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CorsOrigins)
	assert.Equal(t, simulator.DefaultModelWeights(), cfg.ModelWeights())
	assert.Equal(t, simulator.DefaultConfig().Iterations, cfg.SimulatorConfig().Iterations)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	inTempDir(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("CACHE_TTL", "15m")
	t.Setenv("SIMULATION_ITERATIONS", "2500")
	t.Setenv("SIMULATION_WORKERS", "8")
	t.Setenv("HOME_COURT_ADVANTAGE", "3")
	t.Setenv("MODEL_SCORE_CORRELATION", "0")
	t.Setenv("MODEL_SIMULATION_STD_DEV", "11.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)

	engine := cfg.SimulatorConfig()
	assert.Equal(t, 2500, engine.Iterations)
	assert.Equal(t, 8, engine.Workers)
	assert.Equal(t, 3.0, engine.HomeCourtAdvantage)

	weights := cfg.ModelWeights()
	assert.Equal(t, 0.0, weights.ScoreCorrelation)
	assert.Equal(t, 11.5, weights.SimulationStdDev)
	assert.Equal(t, 0.2, weights.RecentForm)
}

func TestLoadConfig_RejectsInvalidWeights(t *testing.T) {
	inTempDir(t)
	t.Setenv("MODEL_SCORE_CORRELATION", "1.7")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.ErrorIs(t, err, simulator.ErrInvalidConfig)
}

func TestLoadConfig_RejectsInvalidIterations(t *testing.T) {
	inTempDir(t)
	t.Setenv("SIMULATION_ITERATIONS", "0")

	_, err := LoadConfig()
	assert.ErrorIs(t, err, simulator.ErrInvalidConfig)
}
