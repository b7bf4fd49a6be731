package fairline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stitts-dev/line-sim/shared/types"
)

// ErrInvalidSpread is returned when a spread string has no numeric line
var ErrInvalidSpread = errors.New("invalid spread")

// SelectMarketLine picks the quote from the preferred bookmaker (matched
// case-insensitively as a substring), falling back to the first quote. It
// returns the line, the bookmaker it came from, and false when there are no
// quotes.
func SelectMarketLine(odds []types.MarketOdds, preferredBook string) (types.MarketLine, string, bool) {
	if len(odds) == 0 {
		return types.MarketLine{}, "", false
	}

	chosen := odds[0]
	if preferred := strings.ToLower(strings.TrimSpace(preferredBook)); preferred != "" {
		for _, o := range odds {
			if strings.Contains(strings.ToLower(o.Bookmaker), preferred) {
				chosen = o
				break
			}
		}
	}

	var line types.MarketLine
	if chosen.Spread != nil {
		line.Spread = chosen.Spread.Home
	}
	if chosen.Total != nil {
		line.Total = *chosen.Total
	}
	return line, chosen.Bookmaker, true
}

// ParseSpread reads a labelled spread such as "BOS -4.5" and returns it from
// the home team's perspective. A line naming the away team is negated.
// "PK" and "pick" read as zero.
func ParseSpread(s, homeAbbr, awayAbbr string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrInvalidSpread)
	}

	last := strings.ToUpper(fields[len(fields)-1])
	if last == "PK" || last == "PICK" || last == "EVEN" {
		return 0, nil
	}

	value, err := strconv.ParseFloat(last, 64)
	if err != nil || !finite(value) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSpread, s)
	}

	away := strings.ToUpper(strings.TrimSpace(awayAbbr))
	home := strings.ToUpper(strings.TrimSpace(homeAbbr))
	if len(fields) > 1 && away != "" && away != home {
		if strings.Contains(strings.ToUpper(strings.Join(fields[:len(fields)-1], " ")), away) {
			return negate(value), nil
		}
	}
	return value, nil
}

func negate(v float64) float64 {
	if v == 0 {
		return 0
	}
	return -v
}
