package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"reaction-hand/config"
	"reaction-hand/providers/openai"
	"reaction-hand/services"
	"reaction-hand/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	reactionOutcomes  *prometheus.CounterVec
	completionLatency prometheus.Histogram
)

func init() {
	reactionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reaction_requests_total",
			Help: "Total number of reaction requests by outcome.",
		},
		[]string{"outcome"},
	)
	completionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reaction_completion_duration_seconds",
			Help:    "Duration of completion requests to the model provider.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16},
		},
	)
	prometheus.MustRegister(reactionOutcomes, completionLatency)
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	completer := openai.NewClient(cfg, logging)
	logging.Info("Completion provider configured",
		zap.String("provider", completer.Name()),
		zap.String("model", cfg.OpenAIModel),
		zap.Duration("timeout", cfg.CompletionTimeout))

	// Journal ist optional; ohne DB_HOST läuft der Dienst zustandslos.
	var journal services.Journal
	var history historyReader
	if cfg.JournalEnabled() {
		db, err := storage.OpenJournal(cfg, logging)
		if err != nil {
			logging.Fatal("Failed to open journal database", zap.Error(err))
		}
		journal, history = db, db

		if cfg.ExportEnabled() && cfg.ExportCron != "" {
			startExportCron(cfg, db, logging)
		}
	}

	reactionService := services.NewReactionService(cfg, completer, journal, logging)
	router := newRouter(cfg, reactionService, history, logging)

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func startExportCron(cfg *config.Config, journal *storage.Journal, logging *zap.Logger) {
	s3Client, err := storage.NewS3Client(context.Background(), cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}
	exporter := services.NewExporter(journal, s3Client, cfg.S3Bucket, cfg.S3Prefix, logging)

	cronScheduler := cron.New()
	_, err = cronScheduler.AddFunc(cfg.ExportCron, func() {
		logging.Info("Running scheduled journal export...")
		result, err := exporter.Run(context.Background(), cfg.ExportKeep)
		if err != nil {
			logging.Error("Journal export failed", zap.Error(err))
			return
		}
		logging.Info("Journal export completed", zap.String("key", result.Key), zap.Int("entries", result.Entries))
	})
	if err != nil {
		logging.Fatal("Invalid export schedule", zap.String("schedule", cfg.ExportCron), zap.Error(err))
	}
	cronScheduler.Start()
	logging.Info("Journal export scheduled", zap.String("schedule", cfg.ExportCron), zap.String("bucket", cfg.S3Bucket))
}
