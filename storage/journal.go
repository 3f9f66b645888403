package storage

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"reaction-hand/config"
	"reaction-hand/models"
)

// Journal speichert Vorhersagen in PostgreSQL.
type Journal struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// OpenJournal verbindet sich mit der Datenbank und migriert das Schema.
func OpenJournal(cfg *config.Config, log *zap.Logger) (*Journal, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	log.Info("Successfully connected to journal database.")

	return NewJournal(db, log)
}

// NewJournal erstellt ein Journal auf einer bestehenden Verbindung und migriert das Schema.
func NewJournal(db *gorm.DB, log *zap.Logger) (*Journal, error) {
	log.Info("Running database auto-migration...")
	if err := db.AutoMigrate(&models.ReactionLog{}); err != nil {
		return nil, err
	}
	return &Journal{DB: db, Logger: log}, nil
}

// Record speichert einen Eintrag.
func (j *Journal) Record(ctx context.Context, entry *models.ReactionLog) error {
	return j.DB.WithContext(ctx).Create(entry).Error
}

// Recent gibt die neuesten limit Einträge zurück, neueste zuerst.
func (j *Journal) Recent(ctx context.Context, limit int) ([]models.ReactionLog, error) {
	var entries []models.ReactionLog
	err := j.DB.WithContext(ctx).Order("id desc").Limit(limit).Find(&entries).Error
	return entries, err
}

// ListSince gibt Einträge nach since mit ID größer afterID zurück, aufsteigend nach ID.
func (j *Journal) ListSince(ctx context.Context, since time.Time, afterID uint, limit int) ([]models.ReactionLog, error) {
	var entries []models.ReactionLog
	err := j.DB.WithContext(ctx).
		Where("created_at > ? AND id > ?", since, afterID).
		Order("id asc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
