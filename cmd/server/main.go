package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"template-mailer/auth"
	"template-mailer/internal/config"
	"template-mailer/internal/dataset"
	"template-mailer/internal/db"
	"template-mailer/internal/logger"
	"template-mailer/internal/mail"
	"template-mailer/internal/middleware"
	"template-mailer/internal/storage"
	"template-mailer/internal/template"
	"template-mailer/internal/user"
	"template-mailer/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	ctx := context.Background()

	// Connect to database (postgres storage driver only)
	var gdb *gorm.DB
	if cfg.StorageDriver == "postgres" {
		var err error
		gdb, err = db.ConnectDb(cfg, log)
		if err != nil {
			log.Fatal("database connection failed", zap.Error(err))
		}
		defer db.CloseDb(gdb, log)

		if err := db.Migrate(gdb, &storage.StoredObject{}); err != nil {
			log.Fatal("database migration failed", zap.Error(err))
		}
	}

	// Initialize Redis
	redisClient, err := redis.NewClient(ctx, cfg, log)
	if err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()

	sessions := redis.NewSessionStore(redisClient, cfg.SessionTTL)
	sendLimiter, err := redis.NewFixedWindowLimiter(redisClient, "ratelimit:send", cfg.SendRateLimit, cfg.SendRateWindow)
	if err != nil {
		log.Fatal("rate limiter setup failed", zap.Error(err))
	}

	// Object storage and base dataset
	store, err := storage.New(ctx, cfg, gdb)
	if err != nil {
		log.Fatal("object storage setup failed", zap.Error(err))
	}
	source, err := dataset.NewSource(cfg.DatasetSource, store, dataset.NewReader(log),
		cfg.TemplatesBucket, cfg.TemplatesKey, cfg.PresignExpiry)
	if err != nil {
		log.Fatal("dataset source setup failed", zap.Error(err))
	}

	mailer, err := mail.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("mail dispatcher setup failed", zap.Error(err))
	}

	// Initialize repository
	overlayRepo := template.NewOverlayRepository(store, cfg.TemplatesBucket, cfg.TemplatesOverlay, cfg.TemplatesColorsKey, log)
	// Initialize service
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.SessionTTL)
	google := auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	userService := user.NewService(google, sessions, tokens, log)
	templateService := template.NewService(overlayRepo, source, mailer, log)
	// Initialize handler
	userHandler := user.NewHandler(userService, cfg.FrontendAddress, cfg.SessionTTL, cfg.Environment == "production")
	templateHandler := template.NewHandler(templateService)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLog(log), middleware.ErrorHandler(log))

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
	}

	if cfg.Environment == "development" {
		// Reflect any origin in development; credentials rule out "*"
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{cfg.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := auth.AuthMiddleWare(tokens, sessions)

	// User routes
	router.GET("/auth/login", userHandler.Login)
	router.GET("/auth/callback", userHandler.Callback)
	router.DELETE("/auth/logout", requireAuth, userHandler.Logout)
	router.GET("/profile", requireAuth, userHandler.GetProfile)

	// Template routes
	api := router.Group("/api", requireAuth)
	templateHandler.RegisterRoutes(api, middleware.RateLimit(sendLimiter, log))

	// Server configuration
	serverPort := cfg.ServerPort
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverPort),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		log.Info("server listening", zap.String("port", serverPort),
			zap.String("storage", cfg.StorageDriver), zap.String("mail", cfg.MailDriver))
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}
	log.Info("server shutdown complete")
}
