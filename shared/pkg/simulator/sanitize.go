package simulator

import (
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/line-sim/shared/types"
)

type fieldKind int

const (
	kindPlain fieldKind = iota
	kindPercentage
	kindRating
	kindPositive
)

// statField describes one StatLine field for the sanitizer and the recent-form blender
type statField struct {
	name     string
	kind     fieldKind
	get      func(*types.StatLine) *types.Stat
	fallback func(StatDefaults) float64
}

var statFields = []statField{
	{"offensive_rating", kindRating,
		func(l *types.StatLine) *types.Stat { return &l.OffensiveRating },
		func(d StatDefaults) float64 { return d.OffensiveRating }},
	{"defensive_rating", kindRating,
		func(l *types.StatLine) *types.Stat { return &l.DefensiveRating },
		func(d StatDefaults) float64 { return d.DefensiveRating }},
	// net rating falls back to ORtg - DRtg, see fillDefaults
	{"net_rating", kindPlain,
		func(l *types.StatLine) *types.Stat { return &l.NetRating },
		nil},
	{"effective_fg_pct", kindPercentage,
		func(l *types.StatLine) *types.Stat { return &l.EffectiveFgPct },
		func(d StatDefaults) float64 { return d.EffectiveFgPct }},
	{"opponent_effective_fg_pct", kindPercentage,
		func(l *types.StatLine) *types.Stat { return &l.OpponentEffectiveFgPct },
		func(d StatDefaults) float64 { return d.OpponentEffectiveFgPct }},
	{"true_shooting_pct", kindPercentage,
		func(l *types.StatLine) *types.Stat { return &l.TrueShootingPct },
		func(d StatDefaults) float64 { return d.TrueShootingPct }},
	{"turnover_pct", kindPercentage,
		func(l *types.StatLine) *types.Stat { return &l.TurnoverPct },
		func(d StatDefaults) float64 { return d.TurnoverPct }},
	{"forced_turnover_pct", kindPercentage,
		func(l *types.StatLine) *types.Stat { return &l.ForcedTurnoverPct },
		func(d StatDefaults) float64 { return d.ForcedTurnoverPct }},
	{"offensive_rebound_pct", kindPercentage,
		func(l *types.StatLine) *types.Stat { return &l.OffensiveReboundPct },
		func(d StatDefaults) float64 { return d.OffensiveReboundPct }},
	{"defensive_rebound_pct", kindPercentage,
		func(l *types.StatLine) *types.Stat { return &l.DefensiveReboundPct },
		func(d StatDefaults) float64 { return d.DefensiveReboundPct }},
	{"free_throw_rate", kindPercentage,
		func(l *types.StatLine) *types.Stat { return &l.FreeThrowRate },
		func(d StatDefaults) float64 { return d.FreeThrowRate }},
	{"opponent_free_throw_rate", kindPercentage,
		func(l *types.StatLine) *types.Stat { return &l.OpponentFreeThrowRate },
		func(d StatDefaults) float64 { return d.OpponentFreeThrowRate }},
	{"pace", kindPositive,
		func(l *types.StatLine) *types.Stat { return &l.Pace },
		func(d StatDefaults) float64 { return d.Pace }},
	{"three_point_attempt_rate", kindPercentage,
		func(l *types.StatLine) *types.Stat { return &l.ThreePointAttemptRate },
		func(d StatDefaults) float64 { return d.ThreePointAttemptRate }},
	{"three_point_pct", kindPercentage,
		func(l *types.StatLine) *types.Stat { return &l.ThreePointPct },
		func(d StatDefaults) float64 { return d.ThreePointPct }},
}

// statRepair records one value the sanitizer changed
type statRepair struct {
	field  string
	from   interface{}
	to     float64
	reason string
}

// SanitizeStats repairs scale errors and fills missing fields using the
// reference configuration. See (*MatchupSimulator).SanitizeStats.
func SanitizeStats(raw types.TeamStats, teamLabel string) types.TeamStats {
	return NewMatchupSimulator(DefaultConfig(), nil).SanitizeStats(raw, teamLabel)
}

// SanitizeStats returns a corrected copy of raw: percentages given on a 0-100
// scale are divided down and clamped, decimal-scale ratings are multiplied up,
// and missing values take league-average defaults. It never fails and is
// idempotent. The caller's value, including its roster and recent stats, is
// not modified.
func (s *MatchupSimulator) SanitizeStats(raw types.TeamStats, teamLabel string) types.TeamStats {
	out := raw.Clone()
	var repairs []statRepair

	repairs = append(repairs, s.normalizeLine(&out.StatLine, "")...)
	if out.RecentStats != nil {
		repairs = append(repairs, s.normalizeLine(out.RecentStats, "recent.")...)
	}
	repairs = append(repairs, s.fillDefaults(&out)...)
	repairs = append(repairs, s.sanitizeRoster(out.Roster)...)

	s.logRepairs(teamLabel, repairs)

	return out
}

func (s *MatchupSimulator) logRepairs(teamLabel string, repairs []statRepair) {
	for _, r := range repairs {
		s.logger.WithFields(logrus.Fields{
			"team":   teamLabel,
			"field":  r.field,
			"from":   r.from,
			"to":     r.to,
			"reason": r.reason,
		}).Debug("Sanitized team stat")
	}
}

// normalizeLine applies scale repairs to the fields that are present. Missing
// fields are left unset so recent-form blending can tell them apart.
func (s *MatchupSimulator) normalizeLine(line *types.StatLine, prefix string) []statRepair {
	var repairs []statRepair

	for _, f := range statFields {
		stat := f.get(line)
		if !stat.Valid {
			continue
		}
		if !isFinite(stat.Value) {
			repairs = append(repairs, statRepair{prefix + f.name, stat.Value, 0, "non-finite value dropped"})
			*stat = types.Stat{}
			continue
		}

		switch f.kind {
		case kindPercentage:
			v := stat.Value
			if v > 1.0 {
				v /= 100
			}
			v = s.config.PercentClamp.Clamp(v)
			if v != stat.Value {
				repairs = append(repairs, statRepair{prefix + f.name, stat.Value, v, "percentage rescaled"})
				stat.Value = v
			}
		case kindRating:
			v := stat.Value
			if v > 0 && v < s.config.RatingRepairBelow {
				v *= 100
				if v < s.config.RatingRepairBelow {
					repairs = append(repairs, statRepair{prefix + f.name, stat.Value, 0, "implausible rating dropped"})
					*stat = types.Stat{}
					continue
				}
				repairs = append(repairs, statRepair{prefix + f.name, stat.Value, v, "decimal rating rescaled"})
				stat.Value = v
			}
		case kindPositive:
			if stat.Value <= 0 {
				repairs = append(repairs, statRepair{prefix + f.name, stat.Value, 0, "non-positive value dropped"})
				*stat = types.Stat{}
			}
		}
	}

	return repairs
}

func (s *MatchupSimulator) fillDefaults(stats *types.TeamStats) []statRepair {
	var repairs []statRepair
	defaults := s.config.Defaults

	for _, f := range statFields {
		if f.fallback == nil {
			continue
		}
		stat := f.get(&stats.StatLine)
		if !stat.Valid {
			v := f.fallback(defaults)
			repairs = append(repairs, statRepair{f.name, nil, v, "missing, league average used"})
			*stat = types.StatOf(v)
		}
	}

	if !stats.NetRating.Valid || !isFinite(stats.NetRating.Value) {
		v := stats.OffensiveRating.Value - stats.DefensiveRating.Value
		repairs = append(repairs, statRepair{"net_rating", nil, v, "derived from ratings"})
		stats.NetRating = types.StatOf(v)
	}

	vol := stats.NetRatingVolatility
	if !vol.Valid || !isFinite(vol.Value) || vol.Value < 0 {
		var from interface{}
		if vol.Valid && isFinite(vol.Value) {
			from = vol.Value
		}
		v := defaults.NetRatingVolatility
		repairs = append(repairs, statRepair{"net_rating_volatility", from, v, "missing or negative, league average used"})
		stats.NetRatingVolatility = types.StatOf(v)
	}

	return repairs
}

// sanitizeRoster repairs the (already copied) roster in place. Usage given as
// decimal shares summing to roughly one is moved to a 0-100 scale; ratings
// follow the team rating rules.
func (s *MatchupSimulator) sanitizeRoster(roster []types.PlayerStat) []statRepair {
	if len(roster) == 0 {
		return nil
	}

	var repairs []statRepair
	decimalUsage := true
	total := 0.0
	for i := range roster {
		p := &roster[i]
		if !isFinite(p.UsageRate) || p.UsageRate < 0 {
			repairs = append(repairs, statRepair{"roster." + p.Name + ".usage_rate", p.UsageRate, 0, "invalid usage zeroed"})
			p.UsageRate = 0
		}
		if p.UsageRate > 1 {
			decimalUsage = false
		}
		total += p.UsageRate

		rating := p.OffensiveRating
		switch {
		case !isFinite(rating) || rating <= 0:
			rating = s.config.League.Rating
		case rating < s.config.RatingRepairBelow:
			rating *= 100
			if rating < s.config.RatingRepairBelow {
				rating = s.config.League.Rating
			}
		}
		if rating != p.OffensiveRating {
			repairs = append(repairs, statRepair{"roster." + p.Name + ".offensive_rating", p.OffensiveRating, rating, "player rating repaired"})
			p.OffensiveRating = rating
		}
	}

	if decimalUsage && total >= 0.5 && total <= 1.5 {
		for i := range roster {
			if roster[i].UsageRate == 0 {
				continue
			}
			repairs = append(repairs, statRepair{"roster." + roster[i].Name + ".usage_rate", roster[i].UsageRate, roster[i].UsageRate * 100, "decimal usage rescaled"})
			roster[i].UsageRate *= 100
		}
	}

	return repairs
}
