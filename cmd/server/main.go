package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/code-zealots/cp-scoreboard/internal/config"
	"github.com/code-zealots/cp-scoreboard/internal/dataset"
	"github.com/code-zealots/cp-scoreboard/internal/errors"
	"github.com/code-zealots/cp-scoreboard/internal/leaderboard"
	"github.com/code-zealots/cp-scoreboard/internal/monitoring"
	"github.com/code-zealots/cp-scoreboard/internal/ratelimit"
	"github.com/code-zealots/cp-scoreboard/internal/scoring"
)

func main() {
	configPath := flag.String("c", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	appLogger := monitoring.NewLogger(monitoring.ParseLevel(cfg.Logger.Level))
	slog.SetDefault(appLogger.Logger)

	appMetrics := monitoring.NewMetrics()

	rules, err := leaderboard.ResolveRuleset(cfg.Leaderboard.Ruleset)
	if err != nil {
		slog.Error("Failed to resolve ruleset", "ruleset", cfg.Leaderboard.Ruleset, "error", err)
		os.Exit(1)
	}

	store := dataset.NewStore(dataset.Config{
		SubmissionsPath: cfg.Dataset.SubmissionsPath,
		HandlesPath:     cfg.Dataset.HandlesPath,
	}, appLogger.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := store.Load(ctx); err != nil {
		slog.Error("Failed to load dataset", "error", err)
		os.Exit(1)
	}
	store.StartRefresh(ctx, cfg.Dataset.RefreshInterval.Std())

	service := leaderboard.NewService(store, rules, cfg.Leaderboard.CacheTTL.Std(), appMetrics, appLogger)

	redisClient, err := ratelimit.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Warn("Redis unavailable, continuing with in-memory rate limiting", "error", err)
	}
	defer errors.SafeClose(redisClient, "redis")

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		IPLimitPerMin:      cfg.RateLimit.IPLimitPerMin,
		RefreshLimitPerMin: cfg.RateLimit.RefreshLimitPerMin,
		BurstMultiplier:    cfg.RateLimit.BurstMultiplier,
	}, appMetrics)

	r := setupRouter(cfg, service, limiter, appMetrics, appLogger)

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "listen", cfg.Listen, "ruleset", rules.Name())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func setupRouter(cfg *config.Config, service *leaderboard.Service, limiter *ratelimit.RateLimiter, appMetrics *monitoring.Metrics, appLogger *monitoring.Logger) *gin.Engine {
	r := gin.New()

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORS.AllowedOrigins) == 1 && cfg.CORS.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsConfig))

	r.Use(monitoring.MonitoringMiddleware(appMetrics, appLogger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(limiter.IPRateLimitMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"ruleset":   service.RulesetName(),
			"metrics":   appMetrics.GetStats(),
		})
	})

	api := r.Group("/api")

	// Leaderboard godoc
	// @Summary Ranked standings
	// @Param limit query int false "maximum rows to return"
	// @Success 200 {object} leaderboard.TableResponse
	// @Router /api/leaderboard [get]
	api.GET("/leaderboard", func(c *gin.Context) {
		limit := 0
		if limitStr := c.Query("limit"); limitStr != "" {
			l, err := strconv.Atoi(limitStr)
			if err != nil || l < 0 {
				c.Error(errors.NewValidationError("limit must be a non-negative integer"))
				return
			}
			limit = l
		}

		resp, err := service.Table(limit)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, resp)
	})

	// UserPoints godoc
	// @Summary Point breakdown for one user
	// @Param username path string true "configured username"
	// @Success 200 {object} leaderboard.PointsResponse
	// @Router /api/users/{username}/points [get]
	api.GET("/users/:username/points", func(c *gin.Context) {
		resp, err := service.Points(c.Param("username"))
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, resp)
	})

	api.GET("/rulesets", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"rulesets": scoring.Names(),
			"active":   service.RulesetName(),
		})
	})

	api.POST("/refresh",
		limiter.EndpointRateLimitMiddleware("refresh", cfg.RateLimit.RefreshLimitPerMin),
		func(c *gin.Context) {
			snap, err := service.Refresh(c.Request.Context())
			if err != nil {
				c.Error(err)
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"message":     "dataset refreshed",
				"snapshot_id": snap.ID,
				"submissions": len(snap.Submissions),
				"users":       len(snap.Mappings),
			})
		})

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, appMetrics.GetStats())
	})

	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, service.CacheStats())
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
