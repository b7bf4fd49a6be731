package fairline

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/stitts-dev/line-sim/shared/types"
)

// Value tiers shared by spread and total edges
const (
	TierPass   = 2
	TierLean   = 4
	TierSolid  = 6
	TierStrong = 9
)

// RedFlagEdge is the edge, in points, beyond which a fair line disagrees with
// the market enough that the inputs deserve a second look
const RedFlagEdge = 5.0

var (
	half    = decimal.NewFromFloat(0.5)
	hundred = decimal.NewFromInt(100)
)

// FairLine is the model's own line for a game, compared against the market
type FairLine struct {
	Spread        float64 `json:"spread"`
	SpreadLabel   string  `json:"spread_label,omitempty"`
	Total         float64 `json:"total"`
	HomeMoneyline int64   `json:"home_moneyline"`
	AwayMoneyline int64   `json:"away_moneyline"`
	SpreadEdge    float64 `json:"spread_edge"`
	TotalEdge     float64 `json:"total_edge"`
	SpreadValue   int     `json:"spread_value"`
	TotalValue    int     `json:"total_value"`
	RedFlag       bool    `json:"red_flag"`
}

// Derive builds a fair line from a simulation result. The spread is in the
// betting convention (negative favors home), rounded to the nearest half point.
// A market without a positive total has no total edge.
func Derive(result *types.SimulationResult, market types.MarketLine) FairLine {
	spreadEdge := edge(result.MedianSpread, market.Spread)
	totalEdge := 0.0
	if market.Total > 0 {
		totalEdge = edge(result.MedianTotal, market.Total)
	}

	return FairLine{
		Spread:        RoundHalfPoint(result.MedianSpread),
		Total:         RoundHalfPoint(result.MedianTotal),
		HomeMoneyline: AmericanOdds(result.WinProbability.Home),
		AwayMoneyline: AmericanOdds(result.WinProbability.Away),
		SpreadEdge:    spreadEdge,
		TotalEdge:     totalEdge,
		SpreadValue:   SpreadValue(spreadEdge),
		TotalValue:    TotalValue(totalEdge),
		RedFlag:       spreadEdge >= RedFlagEdge || totalEdge >= RedFlagEdge,
	}
}

// WithLabel sets the display label, e.g. "BOS -3.5"
func (f FairLine) WithLabel(homeAbbr, awayAbbr string) FairLine {
	f.SpreadLabel = FormatSpread(f.Spread, homeAbbr, awayAbbr)
	return f
}

// FormatSpread renders a betting-convention spread naming the favorite
func FormatSpread(spread float64, homeAbbr, awayAbbr string) string {
	favorite := homeAbbr
	if spread > 0 {
		favorite = awayAbbr
	}
	return fmt.Sprintf("%s -%s", favorite, decimal.NewFromFloat(math.Abs(spread)).StringFixed(1))
}

// RoundHalfPoint rounds to the nearest 0.5, halves away from zero
func RoundHalfPoint(v float64) float64 {
	if !finite(v) {
		return 0
	}
	rounded, _ := decimal.NewFromFloat(v).Div(half).Round(0).Mul(half).Float64()
	return rounded
}

// AmericanOdds converts a win probability into a fair American price. The
// probability is clamped to [0.01, 0.99]; favorites get negative prices.
func AmericanOdds(p float64) int64 {
	if !finite(p) {
		p = 0.5
	}
	prob := decimal.NewFromFloat(math.Max(0.01, math.Min(0.99, p)))
	complement := decimal.NewFromInt(1).Sub(prob)

	if prob.GreaterThanOrEqual(half) {
		return hundred.Mul(prob).Div(complement).Round(0).Neg().IntPart()
	}
	return hundred.Mul(complement).Div(prob).Round(0).IntPart()
}

// SpreadValue scores a spread edge in points
func SpreadValue(edge float64) int {
	switch {
	case edge >= 4.0:
		return TierStrong
	case edge >= 2.5:
		return TierSolid
	case edge >= 1.0:
		return TierLean
	default:
		return TierPass
	}
}

// TotalValue scores a total edge in points
func TotalValue(edge float64) int {
	switch {
	case edge >= 5.0:
		return TierStrong
	case edge >= 3.0:
		return TierSolid
	case edge >= 1.5:
		return TierLean
	default:
		return TierPass
	}
}

func edge(fair, market float64) float64 {
	if !finite(fair) || !finite(market) {
		return 0
	}
	diff, _ := decimal.NewFromFloat(fair).Sub(decimal.NewFromFloat(market)).Abs().Round(2).Float64()
	return diff
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
