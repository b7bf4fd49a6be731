package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/line-sim/services/simulation-service/internal/api"
	"github.com/stitts-dev/line-sim/services/simulation-service/internal/api/handlers"
	"github.com/stitts-dev/line-sim/services/simulation-service/internal/websocket"
	"github.com/stitts-dev/line-sim/services/simulation-service/pkg/cache"
	"github.com/stitts-dev/line-sim/shared/pkg/config"
	"github.com/stitts-dev/line-sim/shared/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	structuredLogger := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	log := logger.WithService("simulation-service")
	log.WithFields(logrus.Fields{
		"version":     "1.0.0",
		"environment": cfg.Env,
		"port":        cfg.Port,
		"iterations":  cfg.SimulationIterations,
		"workers":     cfg.SimulationWorkers,
	}).Info("Starting Simulation Service")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Redis only backs the result cache; simulations run without it
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	if cfg.RedisDB != 0 {
		opt.DB = cfg.RedisDB
	}
	redisClient := redis.NewClient(opt)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("Redis unavailable, simulation results will not be cached until it recovers")
	}
	cancelPing()
	defer redisClient.Close()
	cacheService := cache.NewSimulationCacheService(redisClient, cfg.CacheTTL, structuredLogger)

	wsHub := websocket.NewHub(structuredLogger)
	go wsHub.Run()

	simulationHandler := handlers.NewSimulationHandler(cacheService, wsHub, cfg, structuredLogger)
	healthHandler := handlers.NewHealthHandler(redisClient, structuredLogger)
	router := api.NewRouter(cfg, simulationHandler, healthHandler, wsHub)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Simulation service started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down simulation service...")

	// Slates in flight get 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Simulation service forced to shutdown: %v", err)
	}

	log.Info("Simulation service exited")
}
