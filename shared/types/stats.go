package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Stat is a nullable numeric statistic as delivered by upstream stat providers.
// It decodes JSON numbers and numeric strings; null, missing, non-numeric and
// non-finite values decode as unset rather than failing the whole payload.
type Stat struct {
	Value float64
	Valid bool
}

// StatOf returns a set Stat. Non-finite values are treated as unset.
func StatOf(v float64) Stat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Stat{}
	}
	return Stat{Value: v, Valid: true}
}

// Float64 returns the value, or fallback when the stat is unset
func (s Stat) Float64(fallback float64) float64 {
	if !s.Valid {
		return fallback
	}
	return s.Value
}

// MarshalJSON implements json.Marshaler
func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.Valid || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON implements json.Unmarshaler. It never returns an error for
// malformed values; those become unset stats.
func (s *Stat) UnmarshalJSON(data []byte) error {
	*s = Stat{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		raw = strings.TrimSuffix(strings.TrimSpace(str), "%")
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	*s = StatOf(v)
	return nil
}

// PlayerStat is one active player used for usage redistribution
type PlayerStat struct {
	Name            string  `json:"name"`
	UsageRate       float64 `json:"usage_rate"`
	OffensiveRating float64 `json:"offensive_rating"`
}

// StatLine holds the efficiency metrics that can be blended between season and
// recent-form samples. Percentage-type fields are decimals in [0,1].
type StatLine struct {
	OffensiveRating        Stat `json:"offensive_rating"`
	DefensiveRating        Stat `json:"defensive_rating"`
	NetRating              Stat `json:"net_rating"`
	EffectiveFgPct         Stat `json:"effective_fg_pct"`
	OpponentEffectiveFgPct Stat `json:"opponent_effective_fg_pct"`
	TrueShootingPct        Stat `json:"true_shooting_pct"`
	TurnoverPct            Stat `json:"turnover_pct"`
	ForcedTurnoverPct      Stat `json:"forced_turnover_pct"`
	OffensiveReboundPct    Stat `json:"offensive_rebound_pct"`
	DefensiveReboundPct    Stat `json:"defensive_rebound_pct"`
	FreeThrowRate          Stat `json:"free_throw_rate"`
	OpponentFreeThrowRate  Stat `json:"opponent_free_throw_rate"`
	Pace                   Stat `json:"pace"`
	ThreePointAttemptRate  Stat `json:"three_point_attempt_rate"`
	ThreePointPct          Stat `json:"three_point_pct"`
}

// TeamStats is a team's season profile plus optional recent form and roster.
// Values arrive from upstream providers of unknown cleanliness.
type TeamStats struct {
	StatLine

	NetRatingVolatility Stat         `json:"net_rating_volatility"`
	LastGameDate        string       `json:"last_game_date,omitempty"`
	RecentStats         *StatLine    `json:"recent_stats,omitempty"`
	Roster              []PlayerStat `json:"roster,omitempty"`
}

// Clone returns a deep copy so pipeline stages never alias caller memory
func (t TeamStats) Clone() TeamStats {
	out := t
	if t.RecentStats != nil {
		recent := *t.RecentStats
		out.RecentStats = &recent
	}
	if t.Roster != nil {
		out.Roster = make([]PlayerStat, len(t.Roster))
		copy(out.Roster, t.Roster)
	}
	return out
}
