package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "atmwater-backend/docs"
	"atmwater-backend/internal/common/cache"
	"atmwater-backend/internal/common/config"
	"atmwater-backend/internal/common/logger"
	"atmwater-backend/internal/common/middleware"
	"atmwater-backend/internal/common/ratelimit"
	applicationHTTP "atmwater-backend/internal/features/application/delivery/http"
	applicationRepo "atmwater-backend/internal/features/application/repository/postgres"
	applicationService "atmwater-backend/internal/features/application/service"
	auditHTTP "atmwater-backend/internal/features/audit/delivery/http"
	auditRepo "atmwater-backend/internal/features/audit/repository/postgres"
	auditService "atmwater-backend/internal/features/audit/service"
	authHTTP "atmwater-backend/internal/features/auth/delivery/http"
	otpRepo "atmwater-backend/internal/features/auth/repository/redis"
	authService "atmwater-backend/internal/features/auth/service"
	"atmwater-backend/internal/features/auth/token"
	permissionHTTP "atmwater-backend/internal/features/permission/delivery/http"
	permissionRepo "atmwater-backend/internal/features/permission/repository/postgres"
	permissionService "atmwater-backend/internal/features/permission/service"
	userHTTP "atmwater-backend/internal/features/user/delivery/http"
	userRepo "atmwater-backend/internal/features/user/repository/postgres"
	userService "atmwater-backend/internal/features/user/service"
	withdrawalHTTP "atmwater-backend/internal/features/withdrawal/delivery/http"
	withdrawalRepo "atmwater-backend/internal/features/withdrawal/repository/postgres"
	withdrawalService "atmwater-backend/internal/features/withdrawal/service"
	"atmwater-backend/internal/platform/postgres"
	"atmwater-backend/internal/platform/redis"
	"atmwater-backend/internal/platform/whatsapp"
)

// @title           ATM Water Backend API
// @version         1.0
// @description     Franchise network backend: authentication, role applications, withdrawals and the dynamic permission matrix.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT session token, prefixed with "Bearer "

// @tag.name auth
// @tag.description OTP and password login

// @tag.name users
// @tag.description Profiles and user administration

// @tag.name applications
// @tag.description Role promotion applications and their review

// @tag.name withdrawals
// @tag.description Balance withdrawals and payout review

// @tag.name permissions
// @tag.description Dynamic permission matrix administration

// @tag.name audit
// @tag.description Audit trail of privileged actions

func main() {
	cfg := config.Load()
	logger.Init("atmwater-backend", cfg.Debug)

	logger.Info().Bool("debug", cfg.Debug).Msg("starting atmwater-backend")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	postgresClient, err := postgres.NewClient(ctx, cfg.Database.URL)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer postgresClient.Close()

	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	cacheService := cache.NewCacheService(redisClient)
	pool := postgresClient.Pool()

	users := userRepo.NewUserRepository(pool)
	applications := applicationRepo.NewApplicationRepository(pool)
	withdrawals := withdrawalRepo.NewWithdrawalRepository(pool)
	permissions := permissionRepo.NewPermissionRepository(pool)
	auditLogs := auditRepo.NewAuditRepository(pool)
	otps := otpRepo.NewOTPRepository(redisClient)

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
	otpLimiter := ratelimit.NewRedisLimiter(redisClient, cfg.OTP.Window, cfg.OTP.MaxRequests)
	otpSender := whatsapp.NewFromConfig(cfg)

	auditSvc := auditService.NewAuditService(auditLogs)
	userSvc := userService.NewUserService(users)
	permissionSvc := permissionService.NewPermissionService(permissions, cacheService)
	applicationSvc := applicationService.NewApplicationService(applications, users, auditSvc)
	withdrawalSvc := withdrawalService.NewWithdrawalService(withdrawals, users, auditSvc, cfg.Withdrawal.Minimum)
	authSvc := authService.NewAuthService(otps, users, tokens, otpLimiter, otpSender, cfg.OTP.TTL)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	router.Use(cors.New(corsConfig))

	protect := middleware.Protect(tokens, userSvc)

	v1 := router.Group("/api/v1")
	authHTTP.NewAuthHandler(authSvc).RegisterRoutes(v1, protect)
	userHTTP.NewUserHandler(userSvc, permissionSvc).RegisterRoutes(v1, protect)
	applicationHTTP.NewApplicationHandler(applicationSvc).RegisterRoutes(v1, protect)
	withdrawalHTTP.NewWithdrawalHandler(withdrawalSvc, permissionSvc).RegisterRoutes(v1, protect)
	permissionHTTP.NewPermissionHandler(permissionSvc, auditSvc).RegisterRoutes(v1, protect)
	auditHTTP.NewAuditHandler(auditSvc, permissionSvc).RegisterRoutes(v1, protect)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerProbes(router, postgresClient, redisClient)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")
}

func registerProbes(router *gin.Engine, postgresClient *postgres.Client, redisClient *goredis.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "atmwater-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := postgresClient.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unready", "error": "postgres unavailable",
			})
			return
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unready", "error": "redis unavailable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "atmwater-backend",
		})
	})
}
