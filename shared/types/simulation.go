package types

// ModelWeights are the tunable coefficients of the projection model
type ModelWeights struct {
	RecentForm               float64 `json:"recent_form" mapstructure:"recent_form"`
	EFgPctWeight             float64 `json:"efg_pct_weight" mapstructure:"efg_pct_weight"`
	TurnoverPctWeight        float64 `json:"turnover_pct_weight" mapstructure:"turnover_pct_weight"`
	ReboundPctWeight         float64 `json:"rebound_pct_weight" mapstructure:"rebound_pct_weight"`
	FreeThrowRateWeight      float64 `json:"free_throw_rate_weight" mapstructure:"free_throw_rate_weight"`
	MatchupImpactWeight      float64 `json:"matchup_impact_weight" mapstructure:"matchup_impact_weight"`
	VolatilityImpactWeight   float64 `json:"volatility_impact_weight" mapstructure:"volatility_impact_weight"`
	SimulationStdDev         float64 `json:"simulation_std_dev" mapstructure:"simulation_std_dev"`
	ScoreCorrelation         float64 `json:"score_correlation" mapstructure:"score_correlation"`
	ThreePointVarianceWeight float64 `json:"three_point_variance_weight" mapstructure:"three_point_variance_weight"`
	EfficiencyDecay          float64 `json:"efficiency_decay" mapstructure:"efficiency_decay"`
}

// GameContext identifies a game. ID seeds the simulation and must be stable
// for a given matchup and date.
type GameContext struct {
	ID   string `json:"id"`
	Date string `json:"date"` // YYYY-MM-DD or RFC3339
}

// MarketLine is the consensus line from the home team's perspective (spread -7.5 = home favored by 7.5)
type MarketLine struct {
	Spread float64 `json:"spread"`
	Total  float64 `json:"total"`
}

// Matchup bundles everything needed to simulate one game
type Matchup struct {
	Game   GameContext `json:"game"`
	Home   TeamStats   `json:"home"`
	Away   TeamStats   `json:"away"`
	Market MarketLine  `json:"market"`
}

// WinProbability holds complementary win probabilities
type WinProbability struct {
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

// CoverProbability is the home team's probability of beating the market spread
type CoverProbability struct {
	Home float64 `json:"home"`
}

// OutcomeBucket is one histogram bucket
type OutcomeBucket struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

// Outcomes holds histograms of simulated spreads and totals, ascending by value
type Outcomes struct {
	Spread []OutcomeBucket `json:"spread"`
	Total  []OutcomeBucket `json:"total"`
}

// TeamProjection is the pre-noise projection for one side
type TeamProjection struct {
	MeanScore        float64  `json:"mean_score"`
	StdDev           float64  `json:"std_dev"`
	OffensiveRating  float64  `json:"offensive_rating"`
	DefensiveRating  float64  `json:"defensive_rating"`
	ExpectedRating   float64  `json:"expected_rating"`
	FourFactorAdjust float64  `json:"four_factor_adjustment"`
	RestAdjustment   float64  `json:"rest_adjustment"`
	RosterRating     *float64 `json:"roster_rating,omitempty"`
}

// Projection describes the model inputs that fed the sampler
type Projection struct {
	Home TeamProjection `json:"home"`
	Away TeamProjection `json:"away"`
	Pace float64        `json:"pace"`
}

// SampleSummary summarizes a sampled series
type SampleSummary struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Percentile10 float64 `json:"p10"`
	Percentile25 float64 `json:"p25"`
	Percentile75 float64 `json:"p75"`
	Percentile90 float64 `json:"p90"`
}

// Distribution summarizes the simulated outcome distribution
type Distribution struct {
	Spread           SampleSummary `json:"spread"`
	Total            SampleSummary `json:"total"`
	ScoreCorrelation float64       `json:"score_correlation"`
}

// SimulationResult is the output of one matchup simulation. Spreads follow the
// betting convention: negative means the home team is favored.
type SimulationResult struct {
	GameID           string           `json:"game_id"`
	Seed             uint32           `json:"seed"`
	Iterations       int              `json:"iterations"`
	WinProbability   WinProbability   `json:"win_probability"`
	MedianSpread     float64          `json:"median_spread"`
	MedianMargin     float64          `json:"median_margin"`
	MedianTotal      float64          `json:"median_total"`
	CoverProbability CoverProbability `json:"cover_probability"`
	PushProbability  float64          `json:"push_probability"`
	OverProbability  float64          `json:"over_probability"`
	Outcomes         Outcomes         `json:"outcomes"`
	Projection       Projection       `json:"projection"`
	Distribution     Distribution     `json:"distribution"`
}

// SpreadCount returns the histogram count for the given spread bucket
func (r *SimulationResult) SpreadCount(value int) int {
	for _, b := range r.Outcomes.Spread {
		if b.Value == value {
			return b.Count
		}
	}
	return 0
}
