package simulator

import (
	"math"

	"github.com/stitts-dev/line-sim/shared/types"
)

// FourFactorEdges are the point edges of one offense against one defense, before weighting
type FourFactorEdges struct {
	Shooting   float64 `json:"shooting"`
	Turnover   float64 `json:"turnover"`
	Rebounding float64 `json:"rebounding"`
	FreeThrow  float64 `json:"free_throw"`
}

// FourFactorEdges computes the unweighted point edges of offense against
// defense. Both sides are expected to be sanitized.
func (c Config) FourFactorEdges(offense, defense types.TeamStats) FourFactorEdges {
	t := c.FourFactors
	d := c.Defaults
	return FourFactorEdges{
		Shooting: (offense.EffectiveFgPct.Float64(d.EffectiveFgPct) -
			defense.OpponentEffectiveFgPct.Float64(d.OpponentEffectiveFgPct)) * 100 * t.ShootingPoints,
		Turnover: (defense.ForcedTurnoverPct.Float64(d.ForcedTurnoverPct) -
			offense.TurnoverPct.Float64(d.TurnoverPct)) * 100 * t.TurnoverPoints,
		Rebounding: (offense.OffensiveReboundPct.Float64(d.OffensiveReboundPct) -
			(1 - defense.DefensiveReboundPct.Float64(d.DefensiveReboundPct))) * 100 * t.ReboundPoints,
		FreeThrow: (offense.FreeThrowRate.Float64(d.FreeThrowRate) -
			defense.OpponentFreeThrowRate.Float64(d.OpponentFreeThrowRate)) * 100 * t.FreeThrowPoints,
	}
}

// FourFactorAdjustment returns the weighted edge sum bounded to
// ±FourFactors.MaxAdjustment
func (c Config) FourFactorAdjustment(offense, defense types.TeamStats, w types.ModelWeights) float64 {
	e := c.FourFactorEdges(offense, defense)
	sum := e.Shooting*w.EFgPctWeight +
		e.Turnover*w.TurnoverPctWeight +
		e.Rebounding*w.ReboundPctWeight +
		e.FreeThrow*w.FreeThrowRateWeight

	if !isFinite(sum) {
		return 0
	}
	limit := math.Abs(c.FourFactors.MaxAdjustment)
	return math.Max(-limit, math.Min(limit, sum))
}
