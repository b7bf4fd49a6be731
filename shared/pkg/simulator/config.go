package simulator

import (
	"fmt"
	"math"

	"github.com/stitts-dev/line-sim/shared/types"
)

// Range is an inclusive clamp interval
type Range struct {
	Min float64
	Max float64
}

// Clamp bounds v to the range
func (r Range) Clamp(v float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, v))
}

// LeagueAverages are the reference values the model measures teams against
type LeagueAverages struct {
	Rating                float64
	Pace                  float64
	Volatility            float64
	ThreePointAttemptRate float64
}

// StatDefaults are substituted for missing or unparseable stats
type StatDefaults struct {
	OffensiveRating        float64
	DefensiveRating        float64
	Pace                   float64
	EffectiveFgPct         float64
	OpponentEffectiveFgPct float64
	TrueShootingPct        float64
	TurnoverPct            float64
	ForcedTurnoverPct      float64
	OffensiveReboundPct    float64
	DefensiveReboundPct    float64
	FreeThrowRate          float64
	OpponentFreeThrowRate  float64
	NetRatingVolatility    float64
	ThreePointAttemptRate  float64
	ThreePointPct          float64
}

// FourFactorTable converts percentage-point edges into rating points
type FourFactorTable struct {
	ShootingPoints  float64
	TurnoverPoints  float64
	ReboundPoints   float64
	FreeThrowPoints float64
	MaxAdjustment   float64
}

// RestTable maps days since the last game to a points adjustment
type RestTable struct {
	ByDays  map[int]float64
	Default float64
}

// Adjustment returns the rest adjustment for the given day gap
func (t RestTable) Adjustment(days int) float64 {
	if adj, ok := t.ByDays[days]; ok {
		return adj
	}
	return t.Default
}

// Config groups every basketball-specific constant the engine uses. It is
// passed by value into the simulator; nothing here is process-wide state.
type Config struct {
	Iterations int
	Workers    int

	League             LeagueAverages
	Defaults           StatDefaults
	HomeCourtAdvantage float64
	FourFactors        FourFactorTable
	Rest               RestTable

	PercentClamp Range
	RatingClamp  Range
	RosterClamp  Range
	PaceClamp    Range

	// RatingRepairBelow is the threshold under which a positive rating is
	// assumed to be on a decimal scale (1.15 instead of 115).
	RatingRepairBelow       float64
	MinRosterSize           int
	ThreePointVarianceScale float64
	MinStdDev               float64
}

// DefaultConfig returns the reference NBA configuration
func DefaultConfig() Config {
	league := LeagueAverages{
		Rating:                115.0,
		Pace:                  99.5,
		Volatility:            13.5,
		ThreePointAttemptRate: 0.39,
	}

	return Config{
		Iterations: 10000,
		Workers:    4,
		League:     league,
		Defaults: StatDefaults{
			OffensiveRating:        league.Rating,
			DefensiveRating:        league.Rating,
			Pace:                   league.Pace,
			EffectiveFgPct:         0.54,
			OpponentEffectiveFgPct: 0.54,
			TrueShootingPct:        0.57,
			TurnoverPct:            0.13,
			ForcedTurnoverPct:      0.13,
			OffensiveReboundPct:    0.23,
			DefensiveReboundPct:    0.77,
			FreeThrowRate:          0.20,
			OpponentFreeThrowRate:  0.20,
			NetRatingVolatility:    league.Volatility,
			ThreePointAttemptRate:  league.ThreePointAttemptRate,
			ThreePointPct:          0.36,
		},
		HomeCourtAdvantage: 2.5,
		FourFactors: FourFactorTable{
			ShootingPoints:  1.6,
			TurnoverPoints:  1.1,
			ReboundPoints:   0.6,
			FreeThrowPoints: 0.4,
			MaxAdjustment:   12.0,
		},
		Rest: RestTable{
			ByDays:  map[int]float64{1: -1.5, 2: 0.0, 3: 0.5},
			Default: 1.0,
		},
		PercentClamp:            Range{Min: 0.01, Max: 0.99},
		RatingClamp:             Range{Min: 103, Max: 125},
		RosterClamp:             Range{Min: 102, Max: 125},
		PaceClamp:               Range{Min: 90, Max: 110},
		RatingRepairBelow:       10,
		MinRosterSize:           5,
		ThreePointVarianceScale: 5,
		MinStdDev:               1.0,
	}
}

// DefaultModelWeights returns the calibrated default weights
func DefaultModelWeights() types.ModelWeights {
	return types.ModelWeights{
		RecentForm:               0.2,
		EFgPctWeight:             0.4,
		TurnoverPctWeight:        0.25,
		ReboundPctWeight:         0.20,
		FreeThrowRateWeight:      0.15,
		MatchupImpactWeight:      0.15,
		VolatilityImpactWeight:   1.0,
		SimulationStdDev:         12.5,
		ScoreCorrelation:         0.3,
		ThreePointVarianceWeight: 0.5,
		EfficiencyDecay:          0.05,
	}
}

// Validate checks the engine configuration
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return newConfigError("iterations", float64(c.Iterations), "must be positive")
	}
	if c.Workers < 0 {
		return newConfigError("workers", float64(c.Workers), "must not be negative")
	}
	if c.League.Pace <= 0 || !isFinite(c.League.Pace) {
		return newConfigError("league.pace", c.League.Pace, "must be positive")
	}
	if c.MinRosterSize <= 0 {
		return newConfigError("min_roster_size", float64(c.MinRosterSize), "must be positive")
	}
	ranges := []struct {
		name string
		r    Range
	}{
		{"percent_clamp", c.PercentClamp},
		{"rating_clamp", c.RatingClamp},
		{"roster_clamp", c.RosterClamp},
		{"pace_clamp", c.PaceClamp},
	}
	for _, nr := range ranges {
		if !isFinite(nr.r.Min) || !isFinite(nr.r.Max) || nr.r.Min > nr.r.Max {
			return newConfigError(nr.name, nr.r.Min, fmt.Sprintf("invalid range [%g, %g]", nr.r.Min, nr.r.Max))
		}
	}
	if c.FourFactors.MaxAdjustment < 0 || !isFinite(c.FourFactors.MaxAdjustment) {
		return newConfigError("four_factors.max_adjustment", c.FourFactors.MaxAdjustment, "must be a non-negative number")
	}
	return nil
}

// ValidateWeights rejects weights that would produce meaningless output. A
// correlation outside [-1, 1] makes sqrt(1-rho^2) undefined.
func ValidateWeights(w types.ModelWeights) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"recent_form", w.RecentForm},
		{"efg_pct_weight", w.EFgPctWeight},
		{"turnover_pct_weight", w.TurnoverPctWeight},
		{"rebound_pct_weight", w.ReboundPctWeight},
		{"free_throw_rate_weight", w.FreeThrowRateWeight},
		{"matchup_impact_weight", w.MatchupImpactWeight},
		{"volatility_impact_weight", w.VolatilityImpactWeight},
		{"simulation_std_dev", w.SimulationStdDev},
		{"score_correlation", w.ScoreCorrelation},
		{"three_point_variance_weight", w.ThreePointVarianceWeight},
		{"efficiency_decay", w.EfficiencyDecay},
	}
	for _, f := range fields {
		if !isFinite(f.value) {
			return newConfigError(f.name, f.value, "must be finite")
		}
	}

	if w.ScoreCorrelation < -1 || w.ScoreCorrelation > 1 {
		return newConfigError("score_correlation", w.ScoreCorrelation, "must be within [-1, 1]")
	}
	if w.RecentForm < 0 || w.RecentForm > 1 {
		return newConfigError("recent_form", w.RecentForm, "must be within [0, 1]")
	}
	if w.SimulationStdDev <= 0 {
		return newConfigError("simulation_std_dev", w.SimulationStdDev, "must be positive")
	}
	if w.EfficiencyDecay < 0 || w.EfficiencyDecay > 1 {
		return newConfigError("efficiency_decay", w.EfficiencyDecay, "must be within [0, 1]")
	}
	for _, f := range fields[1:7] {
		if f.value < 0 {
			return newConfigError(f.name, f.value, "must not be negative")
		}
	}
	if w.ThreePointVarianceWeight < 0 {
		return newConfigError("three_point_variance_weight", w.ThreePointVarianceWeight, "must not be negative")
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
