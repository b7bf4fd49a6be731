package simulator

import "github.com/stitts-dev/line-sim/shared/types"

// PlayerProjection is one player after usage redistribution
type PlayerProjection struct {
	Name           string  `json:"name"`
	UsageRate      float64 `json:"usage_rate"`
	ProjectedUsage float64 `json:"projected_usage"`
	UsageIncrease  float64 `json:"usage_increase"`
	BaseRating     float64 `json:"base_rating"`
	AdjustedRating float64 `json:"adjusted_rating"`
}

// RosterProjection is a bottom-up team efficiency estimate built from the
// active roster
type RosterProjection struct {
	TeamOffensiveRating float64            `json:"team_offensive_rating"`
	ProjectedPoints     float64            `json:"projected_points"`
	Players             []PlayerProjection `json:"players"`
}

// TotalUsage sums the redistributed usage, 100 for any valid roster
func (r RosterProjection) TotalUsage() float64 {
	total := 0.0
	for _, p := range r.Players {
		total += p.ProjectedUsage
	}
	return total
}

// ValidRoster reports whether a roster is large enough and carries usage
func (c Config) ValidRoster(roster []types.PlayerStat) bool {
	if len(roster) < c.MinRosterSize {
		return false
	}
	return totalUsage(roster) > 0
}

// ReallocateUsage scales the active players' usage to 100% and applies the
// efficiency decay penalty to every player whose usage grew. The roster is
// expected to be sanitized; ok is false when it is not a valid roster.
func (c Config) ReallocateUsage(roster []types.PlayerStat, pace, decay float64) (RosterProjection, bool) {
	if !c.ValidRoster(roster) {
		return RosterProjection{}, false
	}

	scale := 100 / totalUsage(roster)
	projection := RosterProjection{Players: make([]PlayerProjection, 0, len(roster))}

	rating := 0.0
	for _, p := range roster {
		newUsage := p.UsageRate * scale
		increase := newUsage - p.UsageRate

		adjusted := p.OffensiveRating
		if increase > 0 {
			adjusted = p.OffensiveRating * (1 - (increase*decay)/100)
		}

		rating += (newUsage / 100) * adjusted
		projection.Players = append(projection.Players, PlayerProjection{
			Name:           p.Name,
			UsageRate:      p.UsageRate,
			ProjectedUsage: newUsage,
			UsageIncrease:  increase,
			BaseRating:     p.OffensiveRating,
			AdjustedRating: adjusted,
		})
	}

	projection.TeamOffensiveRating = c.RosterClamp.Clamp(rating)
	projection.ProjectedPoints = projection.TeamOffensiveRating / 100 * pace
	return projection, true
}

func totalUsage(roster []types.PlayerStat) float64 {
	total := 0.0
	for _, p := range roster {
		total += p.UsageRate
	}
	return total
}
