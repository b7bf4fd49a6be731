package simulator

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/line-sim/shared/types"
)

func statValue(v float64) types.Stat {
	return types.StatOf(v)
}

func messyStats() types.TeamStats {
	return types.TeamStats{
		StatLine: types.StatLine{
			OffensiveRating:       statValue(1.18),
			DefensiveRating:       statValue(112.4),
			EffectiveFgPct:        statValue(54.3),
			TurnoverPct:           statValue(150),
			OffensiveReboundPct:   statValue(-5),
			ThreePointAttemptRate: statValue(0.42),
		},
		LastGameDate: "2024-01-13",
		RecentStats: &types.StatLine{
			EffectiveFgPct: statValue(57.0),
			Pace:           statValue(101.2),
		},
		Roster: []types.PlayerStat{
			{Name: "Tatum", UsageRate: 0.30, OffensiveRating: 1.21},
			{Name: "Brown", UsageRate: 0.27, OffensiveRating: 116},
			{Name: "White", UsageRate: 0.17, OffensiveRating: 122},
			{Name: "Holiday", UsageRate: 0.15, OffensiveRating: -3},
			{Name: "Porzingis", UsageRate: 0.11, OffensiveRating: 124},
		},
	}
}

func TestSanitizeStats_PercentageRescale(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"percent scale", 54.3, 0.543},
		{"decimal unchanged", 0.543, 0.543},
		{"clamped high", 150, 0.99},
		{"clamped low", -5, 0.01},
		{"exactly one", 1.0, 0.99},
		{"zero", 0, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SanitizeStats(types.TeamStats{StatLine: types.StatLine{EffectiveFgPct: statValue(tt.input)}}, "home")
			require.True(t, out.EffectiveFgPct.Valid)
			assert.InDelta(t, tt.want, out.EffectiveFgPct.Value, 1e-12)
		})
	}
}

func TestSanitizeStats_RatingRescale(t *testing.T) {
	out := SanitizeStats(types.TeamStats{StatLine: types.StatLine{
		OffensiveRating: statValue(1.15),
		DefensiveRating: statValue(115.0),
	}}, "home")

	assert.InDelta(t, 115.0, out.OffensiveRating.Value, 1e-9)
	assert.Equal(t, 115.0, out.DefensiveRating.Value)
}

func TestSanitizeStats_ImplausibleRatingFallsBackToDefault(t *testing.T) {
	out := SanitizeStats(types.TeamStats{StatLine: types.StatLine{OffensiveRating: statValue(0.05)}}, "away")
	assert.Equal(t, 115.0, out.OffensiveRating.Value)
}

func TestSanitizeStats_FillsDefaults(t *testing.T) {
	out := SanitizeStats(types.TeamStats{}, "home")
	d := DefaultConfig().Defaults

	assert.Equal(t, d.OffensiveRating, out.OffensiveRating.Value)
	assert.Equal(t, d.DefensiveRating, out.DefensiveRating.Value)
	assert.Equal(t, 0.0, out.NetRating.Value)
	assert.True(t, out.NetRating.Valid)
	assert.Equal(t, 99.5, out.Pace.Value)
	assert.Equal(t, 0.54, out.EffectiveFgPct.Value)
	assert.Equal(t, 0.54, out.OpponentEffectiveFgPct.Value)
	assert.Equal(t, 0.57, out.TrueShootingPct.Value)
	assert.Equal(t, 0.13, out.TurnoverPct.Value)
	assert.Equal(t, 0.13, out.ForcedTurnoverPct.Value)
	assert.Equal(t, 0.23, out.OffensiveReboundPct.Value)
	assert.Equal(t, 0.77, out.DefensiveReboundPct.Value)
	assert.Equal(t, 0.20, out.FreeThrowRate.Value)
	assert.Equal(t, 0.20, out.OpponentFreeThrowRate.Value)
	assert.Equal(t, 13.5, out.NetRatingVolatility.Value)
	assert.Equal(t, 0.39, out.ThreePointAttemptRate.Value)
	assert.Equal(t, 0.36, out.ThreePointPct.Value)
}

func TestSanitizeStats_NonPositivePaceFallsBackToDefault(t *testing.T) {
	for _, pace := range []float64{0, -5} {
		out := SanitizeStats(types.TeamStats{StatLine: types.StatLine{Pace: statValue(pace)}}, "home")
		assert.True(t, out.Pace.Valid)
		assert.Equal(t, 99.5, out.Pace.Value, "pace %v", pace)
	}

	out := SanitizeStats(types.TeamStats{StatLine: types.StatLine{Pace: statValue(101.2)}}, "home")
	assert.Equal(t, 101.2, out.Pace.Value)
}

func TestSanitizeStats_NegativeVolatilityFallsBackToDefault(t *testing.T) {
	out := SanitizeStats(types.TeamStats{NetRatingVolatility: statValue(-40)}, "away")
	assert.Equal(t, 13.5, out.NetRatingVolatility.Value)

	out = SanitizeStats(types.TeamStats{NetRatingVolatility: statValue(0)}, "away")
	assert.Equal(t, 0.0, out.NetRatingVolatility.Value)
}

func TestSanitizeStats_NetRatingDerivedFromRatings(t *testing.T) {
	out := SanitizeStats(types.TeamStats{StatLine: types.StatLine{
		OffensiveRating: statValue(120),
		DefensiveRating: statValue(110),
	}}, "home")
	assert.Equal(t, 10.0, out.NetRating.Value)
}

func TestSanitizeStats_RecentStatsRescaledWithoutDefaults(t *testing.T) {
	out := SanitizeStats(messyStats(), "home")

	require.NotNil(t, out.RecentStats)
	assert.InDelta(t, 0.57, out.RecentStats.EffectiveFgPct.Value, 1e-12)
	assert.Equal(t, 101.2, out.RecentStats.Pace.Value)
	assert.False(t, out.RecentStats.TurnoverPct.Valid)
}

func TestSanitizeStats_Roster(t *testing.T) {
	out := SanitizeStats(messyStats(), "home")

	require.Len(t, out.Roster, 5)
	assert.InDelta(t, 30.0, out.Roster[0].UsageRate, 1e-9)
	assert.InDelta(t, 121.0, out.Roster[0].OffensiveRating, 1e-9)
	assert.InDelta(t, 27.0, out.Roster[1].UsageRate, 1e-9)
	assert.Equal(t, 115.0, out.Roster[3].OffensiveRating)
	assert.Equal(t, 124.0, out.Roster[4].OffensiveRating)
}

func TestSanitizeStats_RosterInvalidUsageZeroed(t *testing.T) {
	roster := []types.PlayerStat{
		{Name: "A", UsageRate: 28, OffensiveRating: 118},
		{Name: "B", UsageRate: -4, OffensiveRating: 112},
	}
	out := SanitizeStats(types.TeamStats{Roster: roster}, "home")

	assert.Equal(t, 28.0, out.Roster[0].UsageRate)
	assert.Equal(t, 0.0, out.Roster[1].UsageRate)
}

func TestSanitizeStats_DoesNotMutateInput(t *testing.T) {
	raw := messyStats()
	before := messyStats()

	_ = SanitizeStats(raw, "home")

	assert.Equal(t, before, raw)
	assert.Equal(t, 54.3, raw.EffectiveFgPct.Value)
	assert.Equal(t, 57.0, raw.RecentStats.EffectiveFgPct.Value)
	assert.Equal(t, 0.30, raw.Roster[0].UsageRate)
}

func TestSanitizeStats_Idempotent(t *testing.T) {
	inputs := map[string]types.TeamStats{
		"messy": messyStats(),
		"empty": {},
		"clean": SanitizeStats(types.TeamStats{}, "home"),
		"extreme": {StatLine: types.StatLine{
			OffensiveRating: statValue(9.99),
			DefensiveRating: statValue(0.001),
			FreeThrowRate:   statValue(0.0001),
			Pace:            statValue(250),
		}},
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			once := SanitizeStats(raw, "home")
			twice := SanitizeStats(once, "home")
			assert.Equal(t, once, twice)
		})
	}
}

func TestSanitizeStats_LogsRepairs(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	sim := NewMatchupSimulator(DefaultConfig(), logger)

	_ = sim.SanitizeStats(types.TeamStats{StatLine: types.StatLine{EffectiveFgPct: statValue(54.3)}}, "BOS")

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Data["field"] == "effective_fg_pct" {
			found = true
			assert.Equal(t, "BOS", entry.Data["team"])
			assert.Equal(t, logrus.DebugLevel, entry.Level)
		}
	}
	assert.True(t, found, "expected a repair entry for effective_fg_pct")
}
