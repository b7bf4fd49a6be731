package simulator

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/line-sim/shared/types"
)

func baselineWeights() types.ModelWeights {
	w := DefaultModelWeights()
	w.ScoreCorrelation = 0
	w.SimulationStdDev = 12.5
	return w
}

func runBaseline(t *testing.T, gameID string) *types.SimulationResult {
	t.Helper()
	result, err := RunSimulation(
		types.TeamStats{},
		types.TeamStats{},
		types.MarketLine{Spread: -1.5, Total: 228.5},
		baselineWeights(),
		types.GameContext{ID: gameID, Date: "2024-01-15"},
	)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestRunSimulation_AverageTeamsBaseline(t *testing.T) {
	result := runBaseline(t, "TEST_GAME_1")

	assert.Equal(t, 10000, result.Iterations)
	assert.Equal(t, "TEST_GAME_1", result.GameID)
	assert.Equal(t, HashSeed("TEST_GAME_1"), result.Seed)

	assert.Greater(t, result.WinProbability.Home, 0.5)
	assert.Less(t, result.WinProbability.Home, 0.65)
	assert.InDelta(t, 0.55, result.WinProbability.Home, 0.005)

	assert.GreaterOrEqual(t, result.MedianSpread, -4.0)
	assert.LessOrEqual(t, result.MedianSpread, -1.0)
	assert.Equal(t, -3.0, result.MedianSpread)
	assert.Equal(t, 3.0, result.MedianMargin)
	assert.Equal(t, 229.0, result.MedianTotal)

	assert.InDelta(t, 0.527, result.CoverProbability.Home, 0.005)
	assert.InDelta(t, 0.5157, result.OverProbability, 0.005)
	assert.Equal(t, 0.0, result.PushProbability, "half-point market cannot push")
}

func TestRunSimulation_Deterministic(t *testing.T) {
	first := runBaseline(t, "2024-01-15_BOS_NYK")
	second := runBaseline(t, "2024-01-15_BOS_NYK")
	assert.Equal(t, first, second)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestRunSimulation_SeedSensitivity(t *testing.T) {
	a := runBaseline(t, "TEST_GAME_1")
	b := runBaseline(t, "TEST_GAME_2")

	assert.NotEqual(t, a.Outcomes.Spread, b.Outcomes.Spread)
	assert.NotEqual(t, a.WinProbability, b.WinProbability)
}

func TestRunSimulation_HistogramConservation(t *testing.T) {
	result := runBaseline(t, "TEST_GAME_1")

	sumCounts := func(buckets []types.OutcomeBucket) int {
		total := 0
		for i, b := range buckets {
			total += b.Count
			if i > 0 {
				assert.Greater(t, b.Value, buckets[i-1].Value, "buckets ascend")
			}
		}
		return total
	}

	assert.Equal(t, result.Iterations, sumCounts(result.Outcomes.Spread))
	assert.Equal(t, result.Iterations, sumCounts(result.Outcomes.Total))
}

func TestRunSimulation_ProbabilityBounds(t *testing.T) {
	markets := []types.MarketLine{{Spread: -7.5, Total: 220}, {Spread: 3, Total: 240}, {Spread: 0}}
	for _, market := range markets {
		result, err := RunSimulation(types.TeamStats{}, types.TeamStats{}, market, DefaultModelWeights(), types.GameContext{ID: "bounds"})
		require.NoError(t, err)

		assert.GreaterOrEqual(t, result.WinProbability.Home, 0.0)
		assert.LessOrEqual(t, result.WinProbability.Home, 1.0)
		assert.Equal(t, 1.0, result.WinProbability.Home+result.WinProbability.Away)
		assert.GreaterOrEqual(t, result.CoverProbability.Home, 0.0)
		assert.LessOrEqual(t, result.CoverProbability.Home, 1.0)
		assert.GreaterOrEqual(t, result.OverProbability, 0.0)
		assert.LessOrEqual(t, result.OverProbability, 1.0)
	}
}

func TestRunSimulation_CoverSignConvention(t *testing.T) {
	strong := types.TeamStats{StatLine: types.StatLine{OffensiveRating: statValue(121), DefensiveRating: statValue(110)}}
	weak := types.TeamStats{StatLine: types.StatLine{OffensiveRating: statValue(110), DefensiveRating: statValue(119)}}
	game := types.GameContext{ID: "cover-sign"}

	// home favored by 7.5: covering requires winning, so cover <= win
	favored, err := RunSimulation(strong, weak, types.MarketLine{Spread: -7.5}, DefaultModelWeights(), game)
	require.NoError(t, err)
	assert.Greater(t, favored.WinProbability.Home, 0.8)
	assert.Less(t, favored.CoverProbability.Home, favored.WinProbability.Home)
	assert.Greater(t, favored.CoverProbability.Home, 0.5)

	// an absurd line the favorite almost never covers
	huge, err := RunSimulation(strong, weak, types.MarketLine{Spread: -75.5}, DefaultModelWeights(), game)
	require.NoError(t, err)
	assert.Less(t, huge.CoverProbability.Home, 0.01)

	// home as a 7.5-point underdog covers more often than it wins
	underdog, err := RunSimulation(weak, strong, types.MarketLine{Spread: 7.5}, DefaultModelWeights(), game)
	require.NoError(t, err)
	assert.Greater(t, underdog.CoverProbability.Home, underdog.WinProbability.Home)
	assert.Less(t, underdog.WinProbability.Home, 0.2)
}

func TestRunSimulation_PushOnIntegerSpread(t *testing.T) {
	result, err := RunSimulation(types.TeamStats{}, types.TeamStats{}, types.MarketLine{Spread: -3}, baselineWeights(), types.GameContext{ID: "TEST_GAME_1"})
	require.NoError(t, err)

	expected := float64(result.SpreadCount(-3)) / float64(result.Iterations)
	assert.Greater(t, result.PushProbability, 0.0)
	assert.Equal(t, expected, result.PushProbability)
	assert.Equal(t, 0.0, result.OverProbability, "no total supplied")
}

func TestRunSimulation_MalformedStatsStayFinite(t *testing.T) {
	home := types.TeamStats{
		StatLine: types.StatLine{
			OffensiveRating:       types.Stat{Value: math.NaN(), Valid: true},
			EffectiveFgPct:        statValue(5430),
			Pace:                  statValue(-20),
			ThreePointAttemptRate: statValue(99),
		},
		NetRatingVolatility: types.Stat{Value: math.Inf(1), Valid: true},
		LastGameDate:        "garbage",
		Roster: []types.PlayerStat{
			{Name: "A", UsageRate: math.NaN(), OffensiveRating: math.Inf(-1)},
			{Name: "B", UsageRate: 40, OffensiveRating: 0},
			{Name: "C", UsageRate: 20, OffensiveRating: 1.1},
			{Name: "D", UsageRate: -10, OffensiveRating: 130},
			{Name: "E", UsageRate: 15, OffensiveRating: 112},
		},
	}
	away := types.TeamStats{StatLine: types.StatLine{DefensiveRating: statValue(0.9), TurnoverPct: statValue(-0.5)}}

	result, err := RunSimulation(home, away, types.MarketLine{Spread: math.NaN(), Total: math.Inf(1)}, DefaultModelWeights(), types.GameContext{ID: "malformed", Date: "??"})
	require.NoError(t, err)

	_, err = json.Marshal(result)
	require.NoError(t, err, "result must not contain NaN or Inf")

	for _, v := range []float64{
		result.WinProbability.Home, result.MedianSpread, result.MedianTotal,
		result.CoverProbability.Home, result.OverProbability,
		result.Projection.Home.MeanScore, result.Projection.Away.MeanScore,
		result.Distribution.Spread.StdDev, result.Distribution.ScoreCorrelation,
	} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestRunSimulation_DoesNotMutateInputs(t *testing.T) {
	home := messyStats()
	away := types.TeamStats{Roster: shortHandedRoster()}

	_, err := RunSimulation(home, away, types.MarketLine{Spread: -2.5}, DefaultModelWeights(), types.GameContext{ID: "immutable", Date: "2024-01-15"})
	require.NoError(t, err)

	assert.Equal(t, messyStats(), home)
	assert.Equal(t, types.TeamStats{Roster: shortHandedRoster()}, away)
}

func TestRunSimulation_MissingGameID(t *testing.T) {
	_, err := RunSimulation(types.TeamStats{}, types.TeamStats{}, types.MarketLine{}, DefaultModelWeights(), types.GameContext{ID: "  "})
	assert.ErrorIs(t, err, ErrMissingGameID)
}

func TestRunSimulation_InvalidWeights(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.ModelWeights)
		field  string
	}{
		{"correlation above one", func(w *types.ModelWeights) { w.ScoreCorrelation = 1.5 }, "score_correlation"},
		{"correlation NaN", func(w *types.ModelWeights) { w.ScoreCorrelation = math.NaN() }, "score_correlation"},
		{"zero deviation", func(w *types.ModelWeights) { w.SimulationStdDev = 0 }, "simulation_std_dev"},
		{"recent form above one", func(w *types.ModelWeights) { w.RecentForm = 2 }, "recent_form"},
		{"negative weight", func(w *types.ModelWeights) { w.EFgPctWeight = -0.1 }, "efg_pct_weight"},
		{"infinite decay", func(w *types.ModelWeights) { w.EfficiencyDecay = math.Inf(1) }, "efficiency_decay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DefaultModelWeights()
			tt.mutate(&w)

			_, err := RunSimulation(types.TeamStats{}, types.TeamStats{}, types.MarketLine{}, w, types.GameContext{ID: "weights"})
			require.ErrorIs(t, err, ErrInvalidConfig)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestRunSimulation_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 0
	_, err := NewMatchupSimulator(cfg, nil).RunSimulation(types.TeamStats{}, types.TeamStats{}, types.MarketLine{}, DefaultModelWeights(), types.GameContext{ID: "cfg"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunSimulation_SingleIteration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 1
	result, err := NewMatchupSimulator(cfg, nil).RunSimulation(types.TeamStats{}, types.TeamStats{}, types.MarketLine{Spread: -1.5}, DefaultModelWeights(), types.GameContext{ID: "one"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Iterations)
	require.Len(t, result.Outcomes.Spread, 1)
	assert.Equal(t, 1, result.Outcomes.Spread[0].Count)
	assert.Equal(t, 0.0, result.Distribution.Spread.StdDev)
	assert.Equal(t, 0.0, result.Distribution.ScoreCorrelation)
}

func TestRunSimulation_Distribution(t *testing.T) {
	independent := runBaseline(t, "TEST_GAME_1")
	assert.InDelta(t, -2.5, independent.Distribution.Spread.Mean, 0.5)
	assert.InDelta(t, 12.5*math.Sqrt2, independent.Distribution.Spread.StdDev, 0.7)
	assert.InDelta(t, 0.0, independent.Distribution.ScoreCorrelation, 0.05)
	assert.LessOrEqual(t, independent.Distribution.Spread.Percentile10, independent.Distribution.Spread.Percentile25)
	assert.LessOrEqual(t, independent.Distribution.Spread.Percentile75, independent.Distribution.Spread.Percentile90)

	correlated, err := RunSimulation(types.TeamStats{}, types.TeamStats{}, types.MarketLine{}, DefaultModelWeights(), types.GameContext{ID: "TEST_GAME_1"})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, correlated.Distribution.ScoreCorrelation, 0.05)
}
