package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/squadplan/internal/auth"
	"github.com/freeeve/squadplan/internal/config"
	"github.com/freeeve/squadplan/internal/handler"
	"github.com/freeeve/squadplan/internal/logger"
	"github.com/freeeve/squadplan/internal/repository/postgres"
	redisrepo "github.com/freeeve/squadplan/internal/repository/redis"
	"github.com/freeeve/squadplan/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().
		Dur("solveTimeout", cfg.SolveTimeout).
		Dur("cacheTTL", cfg.CacheTTL).
		Bool("parallel", cfg.ParallelSearch).
		Int("maxNodes", cfg.SolverMaxNodes).
		Msg("Config loaded")

	dialCtx, cancelDial := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelDial()

	// Database
	db, err := postgres.Connect(dialCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(dialCtx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	wsHub := handler.NewHub()

	planSvc := service.NewPlanService(postgres.NewPlanRepo(db), redisClient, wsHub, service.Options{
		SolveTimeout: cfg.SolveTimeout,
		CacheTTL:     cfg.CacheTTL,
		Parallel:     cfg.ParallelSearch,
		MaxNodes:     cfg.SolverMaxNodes,
	})

	root := handler.NewRouter(handler.Routes{
		Auth:  handler.NewAuthHandler(jwtMgr, cfg.Dev),
		Plans: handler.NewPlanHandler(planSvc),
		WS:    handler.NewWSHandler(wsHub, jwtMgr),
		JWT:   jwtMgr,
		Health: map[string]handler.HealthCheck{
			"postgres": db.PingContext,
			"redis":    redisClient.Ping,
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SolveTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Bool("dev", cfg.Dev).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.SolveTimeout+5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
