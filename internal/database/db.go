package database

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pos-backend/internal/config"
	"pos-backend/internal/models"
)

// Open connects to postgres with the configured DSN.
func Open(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	return db, nil
}

// Migrate creates or upgrades the kv_entries table and its prefix-scan index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.KVEntry{}); err != nil {
		return errors.Wrap(err, "auto-migrate kv_entries")
	}

	// text_pattern_ops lets LIKE 'prefix%' use the index under any collation.
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_kv_entries_key_pattern ON kv_entries (key text_pattern_ops)").Error; err != nil {
		return errors.Wrap(err, "create kv_entries prefix index")
	}

	log.Info("database migration completed")
	return nil
}
