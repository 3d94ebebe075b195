package main

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"promptparty/config"
	"promptparty/handlers"
	"promptparty/routes"
	"promptparty/services"
)

func main() {
	// Load .env if present; real env vars win.
	godotenv.Load()

	cfg := config.Load()

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx := context.Background()

	// Stores
	sessionStore, err := services.NewSessionStore(cfg.DataDir, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize session store")
	}
	flatStore, err := services.NewFlatStore(cfg.DataDir, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize flat store")
	}

	// Gemini-backed generator and scorer
	generator, err := services.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize generator")
	}
	defer generator.Close()

	scorer, err := services.NewGeminiScorer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize scorer")
	}
	defer scorer.Close()

	scoringService, err := services.NewScoringService(cfg.DataDir, scorer, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize scoring service")
	}

	hub := services.NewHub(log)
	go hub.Run()

	engine := services.NewEngine(sessionStore, flatStore, generator, hub, cfg.ChallengeDuration, log)

	sessionHandler := handlers.NewSessionHandler(engine, sessionStore)
	gameHandler := handlers.NewGameHandler(engine, sessionStore, flatStore)
	scoringHandler := handlers.NewScoringHandler(scoringService, sessionStore, flatStore)

	router := gin.Default()
	router.Use(cors.Default())

	// Generated artifacts are served straight off disk.
	router.Static("/data", cfg.DataDir)

	routes.SetupRoutes(router, sessionHandler, gameHandler, scoringHandler, hub)

	addr := cfg.BindAddress + ":" + cfg.Port
	log.WithField("addr", addr).Info("server starting")
	if err := router.Run(addr); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
