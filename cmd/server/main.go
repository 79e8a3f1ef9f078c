package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecoroute/internal/config"
	"ecoroute/internal/database"
	"ecoroute/internal/handlers"
	"ecoroute/internal/middleware"
	"ecoroute/internal/queue"
	"ecoroute/internal/realtime"
	"ecoroute/internal/services"
	"ecoroute/internal/store"
	"ecoroute/internal/workers"
	"ecoroute/pkg/auth"
	"ecoroute/pkg/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	db, err := database.NewMongoDB(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("error disconnecting from MongoDB")
		}
	}()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.CreateIndexes(indexCtx); err != nil {
		logrus.WithError(err).Warn("failed to create some indexes")
	}
	cancelIndex()

	validator.Init()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiration)*time.Hour)

	// Stores
	users := store.NewMongoUserStore(db.Database.Collection("users"))
	messages := store.NewMongoMessageStore(db.Database.Collection("messages"))
	notifications := store.NewMongoNotificationStore(db.Database.Collection("notifications"))
	points := db.Database.Collection("collection_points")
	routes := db.Database.Collection("routes")
	collections := db.Database.Collection("collections")

	// Redis backs the job queue and the verification codes.
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	jobs := queue.NewClient(redisOpt)
	defer jobs.Close()
	inspector := queue.NewInspector(redisOpt)
	defer inspector.Close()

	// Services
	emailSender := services.NewEmailSender(cfg)
	verification := services.NewVerificationService(rdb)
	stats := services.NewStatsService(points, routes, collections)

	// Realtime hub and gateway
	hub := realtime.NewHub()
	go hub.Run()
	gateway := realtime.NewGateway(hub, jwtManager, users, messages, jobs)

	// Background job server
	jobSrv, jobMux := workers.NewServer(redisOpt, emailSender, notifications)
	go func() {
		if err := jobSrv.Run(jobMux); err != nil {
			logrus.WithError(err).Fatal("job server stopped")
		}
	}()

	// Handlers
	authHandler := handlers.NewAuthHandler(users, jwtManager, jobs, verification)
	pointHandler := handlers.NewPointHandler(points)
	routeHandler := handlers.NewRouteHandler(routes, points, users, jobs)
	collectionHandler := handlers.NewCollectionHandler(collections, points, users, jobs, hub)
	dashboardHandler := handlers.NewDashboardHandler(stats)
	notificationHandler := handlers.NewNotificationHandler(notifications)
	systemHandler := handlers.NewSystemHandler(db.Client, inspector, hub)

	router := setupRouter(cfg, jwtManager, gateway,
		authHandler, pointHandler, routeHandler, collectionHandler,
		dashboardHandler, notificationHandler, systemHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"addr": srv.Addr,
			"env":  cfg.Env,
		}).Info("EcoRoute server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down")

	// Clients get a shutdown notice before connections close.
	hub.Shutdown()
	jobSrv.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("forced shutdown")
	}

	logrus.Info("server stopped")
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func setupRouter(
	cfg *config.Config,
	jwtManager *auth.JWTManager,
	gateway *realtime.Gateway,
	authHandler *handlers.AuthHandler,
	pointHandler *handlers.PointHandler,
	routeHandler *handlers.RouteHandler,
	collectionHandler *handlers.CollectionHandler,
	dashboardHandler *handlers.DashboardHandler,
	notificationHandler *handlers.NotificationHandler,
	systemHandler *handlers.SystemHandler,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		router.Use(limiter.RateLimit())
	}

	router.GET("/health", systemHandler.Health)
	router.GET("/ws", gateway.HandleWebSocket)

	api := router.Group("/api")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtManager))
	{
		protected.GET("/auth/profile", authHandler.Profile)
		protected.POST("/auth/request-verification", authHandler.RequestVerification)
		protected.POST("/auth/verify-email", authHandler.VerifyEmail)

		protected.POST("/points", pointHandler.Create)
		protected.GET("/points", pointHandler.List)
		protected.GET("/points/:id", pointHandler.Get)
		protected.PUT("/points/:id", pointHandler.Update)
		protected.DELETE("/points/:id", pointHandler.Delete)

		protected.POST("/routes", routeHandler.Create)
		protected.GET("/routes", routeHandler.List)
		protected.GET("/routes/:id", routeHandler.Get)
		protected.PATCH("/routes/:id/status", routeHandler.UpdateStatus)
		protected.DELETE("/routes/:id", routeHandler.Delete)

		protected.POST("/collections", collectionHandler.Create)
		protected.GET("/collections", collectionHandler.List)

		protected.GET("/dashboard/stats", dashboardHandler.Stats)
		protected.GET("/dashboard/charts", dashboardHandler.Charts)
		protected.GET("/impact", dashboardHandler.Impact)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
		protected.PATCH("/notifications/read-all", notificationHandler.MarkAllRead)
		protected.DELETE("/notifications/:id", notificationHandler.Delete)
	}

	admin := protected.Group("")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/queues/status", systemHandler.QueueStatus)
	}

	return router
}
