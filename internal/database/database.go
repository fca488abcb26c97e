package database

import (
	"fmt"
	"log"

	"ducktorrents/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// Open opens the SQLite database at dsn and runs migrations.
// Using glebarez/sqlite which is a pure Go implementation (no CGO required)
func Open(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database %q: %w", dsn, err)
	}

	if dsn == MemoryDSN {
		// every new connection to ":memory:" is a fresh, empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Printf("Database %s connected and migrated", dsn)
	return db, nil
}

// Migrate creates or updates the tables for every model
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Torrent{},
		&models.CacheGeneration{},
		&models.CachedResponse{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// ParseLogLevel maps a config string to a gorm log level.
func ParseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
