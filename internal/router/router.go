package router

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/orbitlabs/orbit/backend/internal/handlers"
	"github.com/orbitlabs/orbit/backend/internal/middleware"
	"github.com/orbitlabs/orbit/backend/internal/models"
	"github.com/orbitlabs/orbit/backend/internal/realtime"
	"github.com/orbitlabs/orbit/backend/internal/repositories"
	"github.com/orbitlabs/orbit/backend/pkg/config"
	"github.com/orbitlabs/orbit/backend/pkg/logger"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, cfg *config.Config) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowCredentials: true,
	}))
	logger.Get().Info("global middleware configured")
}

// SetupRoutes wires repositories, the realtime hub and all HTTP routes.
// firebaseAuthClient may be nil; pgdb may be nil when no relational store is
// configured, which disables the comment endpoints.
func SetupRoutes(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, mgClient *mongo.Client, firebaseAuthClient *auth.Client) error {
	mongoDB := mgClient.Database(cfg.MongoDBName)

	if err := config.EnsureIndexes(context.Background(), mongoDB); err != nil {
		return fmt.Errorf("ensuring mongo indexes: %w", err)
	}

	if pgdb != nil {
		if err := pgdb.AutoMigrate(&models.Comment{}); err != nil {
			return fmt.Errorf("auto migrating models: %w", err)
		}
	}

	// Always accessible
	e.GET("/health", handlers.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// --- Repositories ---
	userRepo := repositories.NewMongoUserRepository(mgClient, mongoDB)
	chatRepo := repositories.NewMongoChatRepository(mongoDB)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	var commentRepo repositories.CommentRepository
	if pgdb != nil {
		commentRepo = repositories.NewPostgresCommentRepository(pgdb)
	}

	// --- Realtime hub and gateway ---
	registry := realtime.NewRegistry()
	hub := realtime.NewHub(registry)
	dispatcher := realtime.NewDispatcher(hub)
	gateway := realtime.NewGateway(hub, dispatcher, chatRepo, commentRepo, postRepo)
	go hub.Run()

	// --- Unprotected routes ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuthClient, cfg)
	authHandler.RegisterAuthRoutes(authGroup)

	public := e.Group("/api/v1")
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterPublicUserRoutes(public)

	// Channel handshake carries its own identity resolution.
	e.GET("/ws", gateway.ServeWS)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTAccessSecret))

	authHandler.RegisterProtectedAuthRoutes(api.Group("/auth"))
	userHandler.RegisterUserRoutes(api)

	friendshipHandler := handlers.NewFriendshipHandler(userRepo, dispatcher)
	friendshipHandler.RegisterFriendshipRoutes(api)

	followHandler := handlers.NewFollowHandler(userRepo)
	followHandler.RegisterFollowRoutes(api)

	chatHandler := handlers.NewChatHandler(chatRepo, dispatcher)
	chatHandler.RegisterChatRoutes(api)

	postHandler := handlers.NewPostHandler(postRepo, dispatcher)
	postHandler.RegisterPostRoutes(api)

	if commentRepo != nil {
		commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, dispatcher)
		commentHandler.RegisterCommentRoutes(api)
	}

	logger.Get().Info("routes configured")
	return nil
}
