package types

import (
	"time"
)

// HealthStatus represents the health status of a service
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProgressUpdate represents a progress update for a slate simulation
type ProgressUpdate struct {
	Type        string    `json:"type"`     // "simulation" or "slate"
	Progress    float64   `json:"progress"` // 0.0 to 1.0
	Message     string    `json:"message"`
	CurrentStep string    `json:"current_step"`
	TotalSteps  int       `json:"total_steps"`
	GameID      string    `json:"game_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// SuccessResponse is the envelope for API endpoints that return no domain object
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SpreadOdds holds both sides of a bookmaker's point spread
type SpreadOdds struct {
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

// MoneylineOdds holds American moneyline prices
type MoneylineOdds struct {
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

// MarketOdds is one bookmaker's quote for a game
type MarketOdds struct {
	Bookmaker string         `json:"bookmaker"`
	Spread    *SpreadOdds    `json:"spread,omitempty"`
	Total     *float64       `json:"total,omitempty"`
	Moneyline *MoneylineOdds `json:"moneyline,omitempty"`
}
