package simulator

import (
	"math"
	"strings"
	"time"

	"github.com/stitts-dev/line-sim/shared/types"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// teamModel is one side of the matchup after blending, sanitizing and
// rating overrides
type teamModel struct {
	stats  types.TeamStats
	roster *RosterProjection
}

// matchupModel holds the pre-noise projection for both sides
type matchupModel struct {
	home, away teamModel
	projection types.Projection
}

// BlendRecentForm interpolates season and recent-form values field by field.
// Fields present in only one source pass through unchanged. The result has no
// recent stats of its own.
func BlendRecentForm(stats types.TeamStats, weight float64) types.TeamStats {
	out := stats.Clone()
	if out.RecentStats == nil || weight <= 0 {
		return out
	}

	recent := *out.RecentStats
	for _, f := range statFields {
		season, form := f.get(&out.StatLine), f.get(&recent)
		switch {
		case season.Valid && form.Valid:
			*season = types.StatOf(season.Value*(1-weight) + form.Value*weight)
		case form.Valid:
			*season = *form
		}
	}
	out.RecentStats = nil
	return out
}

// prepareTeam runs the per-team half of the pipeline: scale repair, recent
// form blend, defaults, rating clamp and roster override
func (s *MatchupSimulator) prepareTeam(raw types.TeamStats, label string, w types.ModelWeights) teamModel {
	normalized := raw.Clone()
	repairs := s.normalizeLine(&normalized.StatLine, "")
	if normalized.RecentStats != nil {
		repairs = append(repairs, s.normalizeLine(normalized.RecentStats, "recent.")...)
	}
	s.logRepairs(label, repairs)

	stats := s.SanitizeStats(BlendRecentForm(normalized, w.RecentForm), label)
	stats.OffensiveRating = types.StatOf(s.config.RatingClamp.Clamp(stats.OffensiveRating.Value))
	stats.DefensiveRating = types.StatOf(s.config.RatingClamp.Clamp(stats.DefensiveRating.Value))

	model := teamModel{stats: stats}
	if projection, ok := s.config.ReallocateUsage(stats.Roster, stats.Pace.Value, w.EfficiencyDecay); ok {
		model.roster = &projection
		model.stats.OffensiveRating = types.StatOf(projection.TeamOffensiveRating)
	}
	return model
}

// project converts both sides into mean scores. The market line is never
// consulted here.
func (s *MatchupSimulator) project(home, away types.TeamStats, w types.ModelWeights, game types.GameContext) matchupModel {
	m := matchupModel{
		home: s.prepareTeam(home, "home", w),
		away: s.prepareTeam(away, "away", w),
	}
	h, a := m.home.stats, m.away.stats
	league := s.config.League

	homeFF := s.config.FourFactorAdjustment(h, a, w)
	awayFF := s.config.FourFactorAdjustment(a, h, w)

	homeExpected := h.OffensiveRating.Value + a.DefensiveRating.Value - league.Rating
	awayExpected := a.OffensiveRating.Value + h.DefensiveRating.Value - league.Rating

	pace := s.config.PaceClamp.Clamp(h.Pace.Value) * s.config.PaceClamp.Clamp(a.Pace.Value) / league.Pace

	homeRating := homeExpected + homeFF*w.MatchupImpactWeight + s.config.HomeCourtAdvantage/2
	awayRating := awayExpected + awayFF*w.MatchupImpactWeight - s.config.HomeCourtAdvantage/2

	homeRest := s.restAdjustment(h.LastGameDate, game.Date)
	awayRest := s.restAdjustment(a.LastGameDate, game.Date)
	netRest := homeRest - awayRest

	m.projection = types.Projection{
		Pace: pace,
		Home: types.TeamProjection{
			MeanScore:        homeRating/100*pace + netRest/2,
			StdDev:           s.teamStdDev(h, w),
			OffensiveRating:  h.OffensiveRating.Value,
			DefensiveRating:  h.DefensiveRating.Value,
			ExpectedRating:   homeExpected,
			FourFactorAdjust: homeFF,
			RestAdjustment:   homeRest,
		},
		Away: types.TeamProjection{
			MeanScore:        awayRating/100*pace - netRest/2,
			StdDev:           s.teamStdDev(a, w),
			OffensiveRating:  a.OffensiveRating.Value,
			DefensiveRating:  a.DefensiveRating.Value,
			ExpectedRating:   awayExpected,
			FourFactorAdjust: awayFF,
			RestAdjustment:   awayRest,
		},
	}
	if m.home.roster != nil {
		r := m.home.roster.TeamOffensiveRating
		m.projection.Home.RosterRating = &r
	}
	if m.away.roster != nil {
		r := m.away.roster.TeamOffensiveRating
		m.projection.Away.RosterRating = &r
	}
	return m
}

// teamStdDev widens the base deviation for volatile and three-point-heavy teams
func (s *MatchupSimulator) teamStdDev(stats types.TeamStats, w types.ModelWeights) float64 {
	league := s.config.League
	volatility := stats.NetRatingVolatility.Float64(league.Volatility)
	threePAr := stats.ThreePointAttemptRate.Float64(league.ThreePointAttemptRate)

	sigma := w.SimulationStdDev +
		(volatility-league.Volatility)*w.VolatilityImpactWeight +
		(threePAr-league.ThreePointAttemptRate)*s.config.ThreePointVarianceScale*w.ThreePointVarianceWeight

	if !isFinite(sigma) || sigma < s.config.MinStdDev {
		return s.config.MinStdDev
	}
	return sigma
}

// restAdjustment maps days since the last game to points. A missing or
// unreadable date yields no adjustment.
func (s *MatchupSimulator) restAdjustment(lastGame, gameDate string) float64 {
	days, ok := RestDays(lastGame, gameDate)
	if !ok {
		return 0
	}
	return s.config.Rest.Adjustment(days)
}

// RestDays returns the whole days between two dates, rounded to nearest
func RestDays(lastGame, gameDate string) (int, bool) {
	last, ok := parseGameDate(lastGame)
	if !ok {
		return 0, false
	}
	game, ok := parseGameDate(gameDate)
	if !ok {
		return 0, false
	}
	return int(math.Floor(game.Sub(last).Hours()/24 + 0.5)), true
}

func parseGameDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
