package simulator

import (
	"io"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/stitts-dev/line-sim/shared/types"
)

// MatchupSimulator runs Monte Carlo simulations for two-team matchups. It holds
// no mutable state, so one value can serve concurrent callers; every
// simulation creates its own generator from its game ID.
type MatchupSimulator struct {
	config Config
	logger *logrus.Logger
}

// NewMatchupSimulator creates a simulator. A nil logger discards output.
func NewMatchupSimulator(config Config, logger *logrus.Logger) *MatchupSimulator {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &MatchupSimulator{
		config: config,
		logger: logger,
	}
}

// Config returns the simulator configuration
func (s *MatchupSimulator) Config() Config {
	return s.config
}

// RunSimulation simulates one matchup with the reference configuration
func RunSimulation(
	home, away types.TeamStats,
	market types.MarketLine,
	weights types.ModelWeights,
	game types.GameContext,
) (*types.SimulationResult, error) {
	return NewMatchupSimulator(DefaultConfig(), nil).RunSimulation(home, away, market, weights, game)
}

// RunSimulation projects both teams and samples Config.Iterations correlated
// final scores. Stats are sanitized internally; only a missing game ID or an
// invalid configuration is reported as an error. The market line is used for
// the cover and over read-outs only.
func (s *MatchupSimulator) RunSimulation(
	home, away types.TeamStats,
	market types.MarketLine,
	weights types.ModelWeights,
	game types.GameContext,
) (*types.SimulationResult, error) {
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateWeights(weights); err != nil {
		return nil, err
	}
	rng, err := NewGameRNG(game.ID)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	model := s.project(home, away, weights, game)
	result := s.sample(rng, model.projection, market, weights.ScoreCorrelation)
	result.GameID = game.ID
	result.Seed = HashSeed(game.ID)

	s.logger.WithFields(logrus.Fields{
		"game_id":        game.ID,
		"iterations":     result.Iterations,
		"home_mean":      model.projection.Home.MeanScore,
		"away_mean":      model.projection.Away.MeanScore,
		"median_spread":  result.MedianSpread,
		"median_total":   result.MedianTotal,
		"home_win_prob":  result.WinProbability.Home,
		"execution_time": time.Since(startTime),
	}).Debug("Matchup simulation completed")

	return result, nil
}

// sample draws the correlated score pairs and aggregates them
func (s *MatchupSimulator) sample(
	rng *Mulberry32,
	projection types.Projection,
	market types.MarketLine,
	correlation float64,
) *types.SimulationResult {
	n := s.config.Iterations
	home, away := projection.Home, projection.Away

	spreads := make([]float64, n)
	totals := make([]float64, n)
	homeScores := make([]float64, n)
	awayScores := make([]float64, n)

	homeWins, homeCovers, pushes, overs := 0, 0, 0, 0
	for i := 0; i < n; i++ {
		homeZ, awayZ := correlatedNormals(rng, correlation)
		homeScore := roundHalfUp(home.MeanScore + homeZ*home.StdDev)
		awayScore := roundHalfUp(away.MeanScore + awayZ*away.StdDev)

		spread := awayScore - homeScore
		total := homeScore + awayScore

		spreads[i] = spread
		totals[i] = total
		homeScores[i] = homeScore
		awayScores[i] = awayScore

		if homeScore > awayScore {
			homeWins++
		}
		// market spread is home perspective: -7.5 covers when home wins by 8+
		if spread < market.Spread {
			homeCovers++
		}
		if spread == market.Spread {
			pushes++
		}
		if market.Total > 0 && total > market.Total {
			overs++
		}
	}

	sort.Float64s(spreads)
	sort.Float64s(totals)

	medianSpread := spreads[n/2]
	homeWinProb := float64(homeWins) / float64(n)

	return &types.SimulationResult{
		Iterations: n,
		WinProbability: types.WinProbability{
			Home: homeWinProb,
			Away: 1 - homeWinProb,
		},
		MedianSpread: medianSpread,
		MedianMargin: negate(medianSpread),
		MedianTotal:  totals[n/2],
		CoverProbability: types.CoverProbability{
			Home: float64(homeCovers) / float64(n),
		},
		PushProbability: float64(pushes) / float64(n),
		OverProbability: float64(overs) / float64(n),
		Outcomes: types.Outcomes{
			Spread: histogram(spreads),
			Total:  histogram(totals),
		},
		Projection: projection,
		Distribution: types.Distribution{
			Spread:           summarize(spreads),
			Total:            summarize(totals),
			ScoreCorrelation: finiteOrZero(stat.Correlation(homeScores, awayScores, nil)),
		},
	}
}

// correlatedNormals draws a standard normal pair via Box-Muller and correlates
// the second draw with the first
func correlatedNormals(rng *Mulberry32, rho float64) (float64, float64) {
	u1, u2 := 0.0, 0.0
	for u1 == 0 {
		u1 = rng.Float64()
	}
	for u2 == 0 {
		u2 = rng.Float64()
	}

	mag := math.Sqrt(-2.0 * math.Log(u1))
	z1 := mag * math.Cos(2.0*math.Pi*u2)
	z2 := mag * math.Sin(2.0*math.Pi*u2)

	return z1, rho*z1 + math.Sqrt(1-rho*rho)*z2
}

// histogram buckets sorted integer samples into ascending value counts
func histogram(sorted []float64) []types.OutcomeBucket {
	buckets := make([]types.OutcomeBucket, 0, 64)
	for _, v := range sorted {
		value := int(roundHalfUp(v))
		if last := len(buckets) - 1; last >= 0 && buckets[last].Value == value {
			buckets[last].Count++
			continue
		}
		buckets = append(buckets, types.OutcomeBucket{Value: value, Count: 1})
	}
	return buckets
}

// summarize computes moments and empirical percentiles of a sorted sample
func summarize(sorted []float64) types.SampleSummary {
	mean, std := stat.MeanStdDev(sorted, nil)
	return types.SampleSummary{
		Mean:         finiteOrZero(mean),
		StdDev:       finiteOrZero(std),
		Percentile10: stat.Quantile(0.10, stat.Empirical, sorted, nil),
		Percentile25: stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Percentile75: stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Percentile90: stat.Quantile(0.90, stat.Empirical, sorted, nil),
	}
}

// roundHalfUp rounds to the nearest integer with halves toward +Inf
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func negate(v float64) float64 {
	if v == 0 {
		return 0
	}
	return -v
}

func finiteOrZero(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}
