package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/line-sim/services/simulation-service/pkg/cache"
	"github.com/stitts-dev/line-sim/shared/pkg/config"
	"github.com/stitts-dev/line-sim/shared/pkg/fairline"
	"github.com/stitts-dev/line-sim/shared/pkg/logger"
	"github.com/stitts-dev/line-sim/shared/pkg/simulator"
	"github.com/stitts-dev/line-sim/shared/types"
)

// MaxIterations caps per-request iteration overrides
const MaxIterations = 100000

// ProgressNotifier receives slate progress for a user; *websocket.Hub implements it
type ProgressNotifier interface {
	SendProgress(userID string, update types.ProgressUpdate)
}

// SimulationHandler handles simulation-related endpoints
type SimulationHandler struct {
	cache  *cache.SimulationCacheService
	wsHub  ProgressNotifier
	config *config.Config
	logger *logrus.Logger
}

// NewSimulationHandler creates a new simulation handler. cache and wsHub may be nil.
func NewSimulationHandler(
	cache *cache.SimulationCacheService,
	wsHub ProgressNotifier,
	config *config.Config,
	logger *logrus.Logger,
) *SimulationHandler {
	return &SimulationHandler{
		cache:  cache,
		wsHub:  wsHub,
		config: config,
		logger: logger,
	}
}

// GameRequest describes one game to simulate. The market comes from Market
// when set, else from the preferred bookmaker in Odds, else from SpreadLabel
// and Total.
type GameRequest struct {
	Game        types.GameContext  `json:"game"`
	HomeTeam    string             `json:"home_team,omitempty"`
	AwayTeam    string             `json:"away_team,omitempty"`
	Home        types.TeamStats    `json:"home"`
	Away        types.TeamStats    `json:"away"`
	Market      *types.MarketLine  `json:"market,omitempty"`
	Odds        []types.MarketOdds `json:"odds,omitempty"`
	SpreadLabel string             `json:"spread_label,omitempty"`
	Total       float64            `json:"total,omitempty"`
}

// SimulationRequest is the body of POST /simulate
type SimulationRequest struct {
	GameRequest
	Weights    *types.ModelWeights `json:"weights,omitempty"`
	Iterations int                 `json:"iterations,omitempty"`
}

// SlateRequest is the body of POST /simulate/slate
type SlateRequest struct {
	Games      []GameRequest       `json:"games"`
	Weights    *types.ModelWeights `json:"weights,omitempty"`
	Iterations int                 `json:"iterations,omitempty"`
	UserID     string              `json:"user_id,omitempty"`
}

// GameResult is a simulation result with its fair line
type GameResult struct {
	HomeTeam   string                  `json:"home_team,omitempty"`
	AwayTeam   string                  `json:"away_team,omitempty"`
	Market     types.MarketLine        `json:"market"`
	Bookmaker  string                  `json:"bookmaker,omitempty"`
	Simulation *types.SimulationResult `json:"simulation"`
	FairLine   fairline.FairLine       `json:"fair_line"`
}

// SimulationResponse is returned by POST /simulate and cached under ID
type SimulationResponse struct {
	ID            string             `json:"id"`
	Weights       types.ModelWeights `json:"weights"`
	Result        GameResult         `json:"result"`
	CacheHit      bool               `json:"cache_hit"`
	ExecutionTime time.Duration      `json:"execution_time"`
	CreatedAt     time.Time          `json:"created_at"`
}

// SlateResponse is returned by POST /simulate/slate and cached under ID
type SlateResponse struct {
	ID            string             `json:"id"`
	Weights       types.ModelWeights `json:"weights"`
	Games         []GameResult       `json:"games"`
	ExecutionTime time.Duration      `json:"execution_time"`
	CreatedAt     time.Time          `json:"created_at"`
}

// SanitizeRequest is the body of POST /stats/sanitize
type SanitizeRequest struct {
	Team  string          `json:"team"`
	Stats types.TeamStats `json:"stats"`
}

// SanitizeResponse carries display-ready stats
type SanitizeResponse struct {
	Team  string          `json:"team"`
	Stats types.TeamStats `json:"stats"`
}

// RunSimulation simulates one game, serving repeated requests from cache
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var req SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidRequest(c, "Invalid request format", err)
		return
	}

	weights := h.weights(req.Weights)
	engine, err := h.engine(req.Iterations)
	if err != nil {
		h.respondError(c, err)
		return
	}
	market, bookmaker, err := h.resolveMarket(req.GameRequest)
	if err != nil {
		h.invalidRequest(c, "Invalid market line", err)
		return
	}

	// Keyed on the resolved inputs so config defaults are part of the digest
	digest, err := cache.RequestDigest(struct {
		Game       GameRequest        `json:"game"`
		Market     types.MarketLine   `json:"market"`
		Weights    types.ModelWeights `json:"weights"`
		Iterations int                `json:"iterations"`
	}{req.GameRequest, market, weights, engine.Config().Iterations})
	if err != nil {
		h.logger.WithError(err).Warn("Failed to digest simulation request")
	}

	if cached, ok := h.lookup(c.Request.Context(), digest); ok {
		cached.CacheHit = true
		c.JSON(http.StatusOK, cached)
		return
	}

	startTime := time.Now()
	result, err := engine.RunSimulation(req.Home, req.Away, market, weights, req.Game)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := SimulationResponse{
		ID:            uuid.New().String(),
		Weights:       weights,
		Result:        gameResult(req.GameRequest, market, bookmaker, result),
		ExecutionTime: time.Since(startTime),
		CreatedAt:     time.Now(),
	}
	h.store(c.Request.Context(), response.ID, digest, response)

	logger.WithGameContext(req.Game.ID, req.HomeTeam, req.AwayTeam).WithFields(logrus.Fields{
		"simulation_id":  response.ID,
		"iterations":     result.Iterations,
		"median_spread":  result.MedianSpread,
		"execution_time": response.ExecutionTime,
	}).Info("Simulation completed successfully")

	c.JSON(http.StatusOK, response)
}

// RunSlate simulates every game of a slate, streaming progress to the user's
// WebSocket connections when user_id is supplied
func (h *SimulationHandler) RunSlate(c *gin.Context) {
	var req SlateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidRequest(c, "Invalid request format", err)
		return
	}
	if len(req.Games) == 0 {
		h.invalidRequest(c, "Invalid slate", errors.New("at least one game is required"))
		return
	}

	weights := h.weights(req.Weights)
	engine, err := h.engine(req.Iterations)
	if err != nil {
		h.respondError(c, err)
		return
	}

	matchups := make([]types.Matchup, len(req.Games))
	bookmakers := make([]string, len(req.Games))
	for i, game := range req.Games {
		market, bookmaker, err := h.resolveMarket(game)
		if err != nil {
			h.invalidRequest(c, fmt.Sprintf("Invalid market line for game %d", i), err)
			return
		}
		matchups[i] = types.Matchup{Game: game.Game, Home: game.Home, Away: game.Away, Market: market}
		bookmakers[i] = bookmaker
	}

	slateID := uuid.New().String()
	progress, done := h.forwardProgress(req.UserID, len(matchups))

	startTime := time.Now()
	results, err := engine.SimulateSlate(c.Request.Context(), matchups, weights, progress)
	if progress != nil {
		close(progress)
		<-done
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := SlateResponse{
		ID:            slateID,
		Weights:       weights,
		Games:         make([]GameResult, len(results)),
		ExecutionTime: time.Since(startTime),
		CreatedAt:     time.Now(),
	}
	for i, result := range results {
		response.Games[i] = gameResult(req.Games[i], matchups[i].Market, bookmakers[i], result)
	}
	h.store(c.Request.Context(), slateID, "", response)

	logger.WithSlateContext(slateID, len(results)).WithFields(logrus.Fields{
		"user_id":        req.UserID,
		"execution_time": response.ExecutionTime,
	}).Info("Slate simulation completed successfully")

	c.JSON(http.StatusOK, response)
}

// GetSimulationResults returns a cached simulation or slate response
func (h *SimulationHandler) GetSimulationResults(c *gin.Context) {
	id := c.Param("id")
	if h.cache == nil {
		h.notFound(c, id)
		return
	}

	data, err := h.cache.GetSimulation(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.WithError(err).WithField("simulation_id", id).Warn("Failed to read simulation from cache")
		}
		h.notFound(c, id)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// GetCacheStatus reports cache statistics
func (h *SimulationHandler) GetCacheStatus(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"service": "simulation-cache", "connected": false})
		return
	}
	c.JSON(http.StatusOK, h.cache.GetStatus(c.Request.Context()))
}

// FlushCache drops every cached simulation
func (h *SimulationHandler) FlushCache(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, types.SuccessResponse{Message: "No cache configured"})
		return
	}
	if err := h.cache.FlushSimulationCache(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("Failed to flush simulation cache")
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
			Error:   "Failed to flush simulation cache",
			Code:    "CACHE_ERROR",
			Details: map[string]string{"error": err.Error()},
		})
		return
	}
	c.JSON(http.StatusOK, types.SuccessResponse{Message: "Simulation cache flushed"})
}

// SanitizeStats returns repaired team stats for display
func (h *SimulationHandler) SanitizeStats(c *gin.Context) {
	var req SanitizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidRequest(c, "Invalid request format", err)
		return
	}

	engine := simulator.NewMatchupSimulator(h.config.SimulatorConfig(), h.logger)
	c.JSON(http.StatusOK, SanitizeResponse{
		Team:  req.Team,
		Stats: engine.SanitizeStats(req.Stats, req.Team),
	})
}

// GetDefaultWeights returns the configured model weights
func (h *SimulationHandler) GetDefaultWeights(c *gin.Context) {
	c.JSON(http.StatusOK, h.config.ModelWeights())
}

func (h *SimulationHandler) weights(requested *types.ModelWeights) types.ModelWeights {
	if requested != nil {
		return *requested
	}
	return h.config.ModelWeights()
}

func (h *SimulationHandler) engine(iterations int) (*simulator.MatchupSimulator, error) {
	engineConfig := h.config.SimulatorConfig()
	if iterations != 0 {
		if iterations > MaxIterations {
			return nil, fmt.Errorf("%w: iterations must be at most %d", simulator.ErrInvalidConfig, MaxIterations)
		}
		engineConfig.Iterations = iterations
	}
	return simulator.NewMatchupSimulator(engineConfig, h.logger), nil
}

func (h *SimulationHandler) resolveMarket(game GameRequest) (types.MarketLine, string, error) {
	if game.Market != nil {
		return *game.Market, "", nil
	}
	if line, bookmaker, ok := fairline.SelectMarketLine(game.Odds, h.config.PreferredBookmaker); ok {
		return line, bookmaker, nil
	}
	if game.SpreadLabel != "" {
		spread, err := fairline.ParseSpread(game.SpreadLabel, game.HomeTeam, game.AwayTeam)
		if err != nil {
			return types.MarketLine{}, "", err
		}
		return types.MarketLine{Spread: spread, Total: game.Total}, "", nil
	}
	return types.MarketLine{Total: game.Total}, "", nil
}

func gameResult(game GameRequest, market types.MarketLine, bookmaker string, result *types.SimulationResult) GameResult {
	line := fairline.Derive(result, market)
	if game.HomeTeam != "" && game.AwayTeam != "" {
		line = line.WithLabel(game.HomeTeam, game.AwayTeam)
	}
	return GameResult{
		HomeTeam:   game.HomeTeam,
		AwayTeam:   game.AwayTeam,
		Market:     market,
		Bookmaker:  bookmaker,
		Simulation: result,
		FairLine:   line,
	}
}

// forwardProgress relays slate progress to the user's connections. It returns
// nil channels when there is no one to notify.
func (h *SimulationHandler) forwardProgress(userID string, games int) (chan types.ProgressUpdate, <-chan struct{}) {
	userID = strings.TrimSpace(userID)
	if userID == "" || h.wsHub == nil {
		return nil, nil
	}

	progress := make(chan types.ProgressUpdate, games)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			h.wsHub.SendProgress(userID, update)
		}
	}()
	return progress, done
}

func (h *SimulationHandler) lookup(ctx context.Context, digest string) (*SimulationResponse, bool) {
	if h.cache == nil || digest == "" {
		return nil, false
	}

	data, err := h.cache.LookupRequest(ctx, digest)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.WithError(err).Warn("Failed to read simulation cache")
		}
		return nil, false
	}

	var cached SimulationResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		h.logger.WithError(err).Warn("Discarding unreadable cached simulation")
		return nil, false
	}
	return &cached, true
}

func (h *SimulationHandler) store(ctx context.Context, id, digest string, value interface{}) {
	if h.cache == nil {
		return
	}
	if err := h.cache.SetSimulation(ctx, id, digest, value); err != nil {
		h.logger.WithError(err).WithField("simulation_id", id).Warn("Failed to cache simulation result")
	}
}

func (h *SimulationHandler) invalidRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, types.ErrorResponse{
		Error: message,
		Code:  "INVALID_REQUEST",
		Details: map[string]string{
			"validation_error": err.Error(),
		},
	})
}

func (h *SimulationHandler) notFound(c *gin.Context, id string) {
	c.JSON(http.StatusNotFound, types.ErrorResponse{
		Error: "Simulation not found",
		Code:  "NOT_FOUND",
		Details: map[string]string{
			"id": id,
		},
	})
}

// respondError maps simulator errors onto the API error codes
func (h *SimulationHandler) respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	response := types.ErrorResponse{
		Details: map[string]string{"error": err.Error()},
	}

	var configErr *simulator.ConfigError
	switch {
	case errors.Is(err, simulator.ErrMissingGameID):
		response.Error = "Game ID is required"
		response.Code = "MISSING_GAME_ID"
	case errors.Is(err, simulator.ErrDuplicateGameID):
		response.Error = "Game IDs must be unique within a slate"
		response.Code = "DUPLICATE_GAME_ID"
	case errors.As(err, &configErr):
		response.Error = "Invalid simulation configuration"
		response.Code = "INVALID_CONFIG"
		response.Details["field"] = configErr.Field
	case errors.Is(err, simulator.ErrInvalidConfig):
		response.Error = "Invalid simulation configuration"
		response.Code = "INVALID_CONFIG"
	default:
		status = http.StatusInternalServerError
		response.Error = "Simulation failed"
		response.Code = "SIMULATION_ERROR"
		h.logger.WithError(err).Error("Simulation failed")
	}

	c.JSON(status, response)
}
