package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/stitts-dev/line-sim/shared/pkg/simulator"
	"github.com/stitts-dev/line-sim/shared/types"
)

type Config struct {
	// Server
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	LogLevel    string   `mapstructure:"LOG_LEVEL"`
	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Rate limiting for the simulation endpoints; RPS <= 0 disables it
	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	// Redis
	RedisURL string        `mapstructure:"REDIS_URL"`
	RedisDB  int           `mapstructure:"REDIS_DB"`
	CacheTTL time.Duration `mapstructure:"CACHE_TTL"`

	// Simulation
	SimulationIterations int     `mapstructure:"SIMULATION_ITERATIONS"`
	SimulationWorkers    int     `mapstructure:"SIMULATION_WORKERS"`
	HomeCourtAdvantage   float64 `mapstructure:"HOME_COURT_ADVANTAGE"`
	PreferredBookmaker   string  `mapstructure:"PREFERRED_BOOKMAKER"`

	// Model weights
	ModelRecentForm               float64 `mapstructure:"MODEL_RECENT_FORM"`
	ModelEFgPctWeight             float64 `mapstructure:"MODEL_EFG_PCT_WEIGHT"`
	ModelTurnoverPctWeight        float64 `mapstructure:"MODEL_TURNOVER_PCT_WEIGHT"`
	ModelReboundPctWeight         float64 `mapstructure:"MODEL_REBOUND_PCT_WEIGHT"`
	ModelFreeThrowRateWeight      float64 `mapstructure:"MODEL_FREE_THROW_RATE_WEIGHT"`
	ModelMatchupImpactWeight      float64 `mapstructure:"MODEL_MATCHUP_IMPACT_WEIGHT"`
	ModelVolatilityImpactWeight   float64 `mapstructure:"MODEL_VOLATILITY_IMPACT_WEIGHT"`
	ModelSimulationStdDev         float64 `mapstructure:"MODEL_SIMULATION_STD_DEV"`
	ModelScoreCorrelation         float64 `mapstructure:"MODEL_SCORE_CORRELATION"`
	ModelThreePointVarianceWeight float64 `mapstructure:"MODEL_THREE_POINT_VARIANCE_WEIGHT"`
	ModelEfficiencyDecay          float64 `mapstructure:"MODEL_EFFICIENCY_DECAY"`
}

// LoadConfig reads .env (if present) and the environment. Model weights and
// simulator settings are validated before returning.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if corsStr := v.GetString("CORS_ORIGINS"); corsStr != "" {
		config.CorsOrigins = strings.Split(corsStr, ",")
	}

	if err := config.SimulatorConfig().Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulator settings: %w", err)
	}
	if err := simulator.ValidateWeights(config.ModelWeights()); err != nil {
		return nil, fmt.Errorf("invalid model weights: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	engine := simulator.DefaultConfig()
	weights := simulator.DefaultModelWeights()

	v.SetDefault("PORT", "8084")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20.0)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "1h")

	v.SetDefault("SIMULATION_ITERATIONS", engine.Iterations)
	v.SetDefault("SIMULATION_WORKERS", engine.Workers)
	v.SetDefault("HOME_COURT_ADVANTAGE", engine.HomeCourtAdvantage)
	v.SetDefault("PREFERRED_BOOKMAKER", "fanduel")

	v.SetDefault("MODEL_RECENT_FORM", weights.RecentForm)
	v.SetDefault("MODEL_EFG_PCT_WEIGHT", weights.EFgPctWeight)
	v.SetDefault("MODEL_TURNOVER_PCT_WEIGHT", weights.TurnoverPctWeight)
	v.SetDefault("MODEL_REBOUND_PCT_WEIGHT", weights.ReboundPctWeight)
	v.SetDefault("MODEL_FREE_THROW_RATE_WEIGHT", weights.FreeThrowRateWeight)
	v.SetDefault("MODEL_MATCHUP_IMPACT_WEIGHT", weights.MatchupImpactWeight)
	v.SetDefault("MODEL_VOLATILITY_IMPACT_WEIGHT", weights.VolatilityImpactWeight)
	v.SetDefault("MODEL_SIMULATION_STD_DEV", weights.SimulationStdDev)
	v.SetDefault("MODEL_SCORE_CORRELATION", weights.ScoreCorrelation)
	v.SetDefault("MODEL_THREE_POINT_VARIANCE_WEIGHT", weights.ThreePointVarianceWeight)
	v.SetDefault("MODEL_EFFICIENCY_DECAY", weights.EfficiencyDecay)
}

// ModelWeights returns the configured default weights for requests that do
// not carry their own
func (c *Config) ModelWeights() types.ModelWeights {
	return types.ModelWeights{
		RecentForm:               c.ModelRecentForm,
		EFgPctWeight:             c.ModelEFgPctWeight,
		TurnoverPctWeight:        c.ModelTurnoverPctWeight,
		ReboundPctWeight:         c.ModelReboundPctWeight,
		FreeThrowRateWeight:      c.ModelFreeThrowRateWeight,
		MatchupImpactWeight:      c.ModelMatchupImpactWeight,
		VolatilityImpactWeight:   c.ModelVolatilityImpactWeight,
		SimulationStdDev:         c.ModelSimulationStdDev,
		ScoreCorrelation:         c.ModelScoreCorrelation,
		ThreePointVarianceWeight: c.ModelThreePointVarianceWeight,
		EfficiencyDecay:          c.ModelEfficiencyDecay,
	}
}

// SimulatorConfig applies the service overrides to the reference engine configuration
func (c *Config) SimulatorConfig() simulator.Config {
	engine := simulator.DefaultConfig()
	engine.Iterations = c.SimulationIterations
	engine.Workers = c.SimulationWorkers
	engine.HomeCourtAdvantage = c.HomeCourtAdvantage
	return engine
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
