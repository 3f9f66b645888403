package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Messages enthält die an Clients ausgelieferten Texte.
type Messages struct {
	InvalidFormula   string `envconfig:"INVALID_FORMULA" default:"Fórmula inválida."`
	NoReaction       string `envconfig:"NO_REACTION" default:"Sem reação."`
	ProcessingFailed string `envconfig:"PROCESSING_FAILED" default:"Falha ao processar reação."`
	Unavailable      string `envconfig:"UNAVAILABLE" default:"Serviço de previsão indisponível."`
}

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	HTTPPort     string `envconfig:"PORT" default:"3000"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	OpenAIAPIKey      string        `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIBaseURL     string        `envconfig:"OPENAI_BASE_URL"`
	OpenAIOrgID       string        `envconfig:"OPENAI_ORG_ID"`
	OpenAIModel       string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	CompletionTimeout time.Duration `envconfig:"COMPLETION_TIMEOUT" default:"10s"`

	// Verhalten bei Fehlern und unvollständigen Modellantworten
	SeparateUnavailable bool `envconfig:"SEPARATE_UNAVAILABLE" default:"false"`
	StrictParsing       bool `envconfig:"STRICT_PARSING" default:"false"`

	Messages Messages `envconfig:"MSG"`

	// Journal (optional, nur aktiv wenn DB_HOST gesetzt ist)
	DBHost     string `envconfig:"DB_HOST"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"reactions"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// S3-Export des Journals (optional)
	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"journal"`

	ExportCron string `envconfig:"EXPORT_CRON" default:"0 3 * * *"`
	ExportKeep int    `envconfig:"EXPORT_KEEP" default:"14"`
}

// JournalEnabled meldet, ob eine Datenbank für das Journal konfiguriert ist.
func (c *Config) JournalEnabled() bool {
	return c.DBHost != ""
}

// ExportEnabled meldet, ob Journal-Exporte nach S3 möglich sind.
func (c *Config) ExportEnabled() bool {
	return c.JournalEnabled() && c.S3URL != "" && c.S3Bucket != ""
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
