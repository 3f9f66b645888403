package main

import (
	"context"
	"net/http"
	"strconv"

	"reaction-hand/config"
	"reaction-hand/models"
	"reaction-hand/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// historyReader liefert die neuesten Journal-Einträge.
type historyReader interface {
	Recent(ctx context.Context, limit int) ([]models.ReactionLog, error)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// newRouter baut den Router; history darf nil sein, wenn kein Journal konfiguriert ist.
func newRouter(cfg *config.Config, reactionService *services.ReactionService, history historyReader, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("Unhandled panic while processing request",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": cfg.Messages.ProcessingFailed})
	}))

	router.GET("/metrics", apiKeyAuthMiddleware(cfg), gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"service":  "reaction-adapter",
			"provider": reactionService.Provider.Name(),
			"journal":  history != nil,
		})
	})

	setupReactionRoutes(router, cfg, reactionService, log)
	setupHistoryRoutes(router, cfg, history, log)

	return router
}

func setupReactionRoutes(router *gin.Engine, cfg *config.Config, reactionService *services.ReactionService, log *zap.Logger) {
	// GET /?q=<formel>
	router.GET("/", func(c *gin.Context) {
		var query models.ReactionQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			log.Warn("Invalid reaction query", zap.Error(err))
			query.Formula = ""
		}

		log.Info("Received formula", zap.String("formula", query.Formula))

		if query.Formula == "" {
			reactionOutcomes.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"message": cfg.Messages.InvalidFormula})
			return
		}

		prediction := reactionService.Predict(c.Request.Context(), query.Formula)
		completionLatency.Observe(prediction.Latency.Seconds())
		reactionOutcomes.WithLabelValues(string(prediction.Outcome)).Inc()

		switch {
		case prediction.Outcome == services.OutcomeReaction:
			c.JSON(http.StatusOK, prediction.Result)
		case prediction.Outcome == services.OutcomeUnavailable && cfg.SeparateUnavailable:
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": cfg.Messages.Unavailable})
		default:
			c.JSON(http.StatusOK, gin.H{"message": cfg.Messages.NoReaction})
		}
	})
}

func setupHistoryRoutes(router *gin.Engine, cfg *config.Config, history historyReader, log *zap.Logger) {
	// GET /history?limit=<n>
	router.GET("/history", apiKeyAuthMiddleware(cfg), func(c *gin.Context) {
		if history == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal disabled"})
			return
		}

		limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}

		entries, err := history.Recent(c.Request.Context(), limit)
		if err != nil {
			log.Error("Database query for reaction history failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, entries)
	})
}
