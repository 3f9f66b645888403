package main

import (
	"context"
	"flag"
	"log"
	"time"

	"reaction-hand/config"
	"reaction-hand/services"
	"reaction-hand/storage"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// ExportConfig enthält nur die für den Export nötigen Variablen.
type ExportConfig struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"reactions"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	S3URL    string `envconfig:"S3_URL" required:"true"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Key    string `envconfig:"S3_KEY" required:"true"`
	S3Secret string `envconfig:"S3_SECRET" required:"true"`
	S3Bucket string `envconfig:"S3_BUCKET" required:"true"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"journal"`

	ExportKeep int `envconfig:"EXPORT_KEEP" default:"14"`
}

func (c ExportConfig) appConfig() *config.Config {
	return &config.Config{
		DBHost:     c.DBHost,
		DBPort:     c.DBPort,
		DBUser:     c.DBUser,
		DBPassword: c.DBPassword,
		DBName:     c.DBName,
		DBSSLMode:  c.DBSSLMode,
		S3URL:      c.S3URL,
		S3Region:   c.S3Region,
		S3Key:      c.S3Key,
		S3Secret:   c.S3Secret,
		S3Bucket:   c.S3Bucket,
		S3Prefix:   c.S3Prefix,
	}
}

func main() {
	sinceFlag := flag.String("since", "", "export entries created after this RFC3339 time instead of the last export")
	noRotate := flag.Bool("no-rotate", false, "keep all previous exports")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall timeout")
	flag.Parse()

	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	_ = godotenv.Load()
	var cfg ExportConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}
	appCfg := cfg.appConfig()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	journal, err := storage.OpenJournal(appCfg, logging)
	if err != nil {
		logging.Fatal("Failed to open journal database", zap.Error(err))
	}
	s3Client, err := storage.NewS3Client(ctx, appCfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}
	exporter := services.NewExporter(journal, s3Client, cfg.S3Bucket, cfg.S3Prefix, logging)

	keep := cfg.ExportKeep
	if *noRotate {
		keep = 0
	}

	var result *services.ExportResult
	if *sinceFlag != "" {
		since, err := time.Parse(time.RFC3339, *sinceFlag)
		if err != nil {
			logging.Fatal("Invalid -since value", zap.String("since", *sinceFlag), zap.Error(err))
		}
		result, err = exporter.Export(ctx, since)
		if err == nil && keep > 0 {
			_, err = exporter.Rotate(ctx, keep)
		}
		if err != nil {
			logging.Fatal("Journal export failed", zap.Error(err))
		}
	} else {
		result, err = exporter.Run(ctx, keep)
		if err != nil {
			logging.Fatal("Journal export failed", zap.Error(err))
		}
	}

	logging.Info("Journal export finished",
		zap.String("bucket", cfg.S3Bucket),
		zap.String("key", result.Key),
		zap.Int("entries", result.Entries))
}
