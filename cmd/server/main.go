package main

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/orbitlabs/orbit/backend/internal/router"
	"github.com/orbitlabs/orbit/backend/pkg/config"
	"github.com/orbitlabs/orbit/backend/pkg/firebase"
	"github.com/orbitlabs/orbit/backend/pkg/logger"
	"github.com/orbitlabs/orbit/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if err := logger.Init(cfg.Env); err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Get().Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	// Firebase identity verification is optional.
	var firebaseApp *firebase.App
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err = firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			logger.Get().Fatal("failed to initialize Firebase", zap.Error(err))
		}
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	// Setup global middleware
	router.SetupMiddleware(e, cfg)

	// Setup routes and dependencies
	var authClient *auth.Client
	if firebaseApp != nil {
		authClient = firebaseApp.AuthClient
	}
	if err := router.SetupRoutes(e, cfg, db.Postgres, db.Mongo, authClient); err != nil {
		logger.Get().Fatal("failed to set up routes", zap.Error(err))
	}

	// Start server
	logger.Get().Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := e.Start(":" + cfg.Port); err != nil {
		logger.Get().Fatal("server stopped", zap.Error(err))
	}
}
