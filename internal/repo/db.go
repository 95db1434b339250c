// Package repo implements the download-history persistence layer, backed
// by GORM over the pure-Go SQLite driver. History is an operational
// convenience (it feeds the ops status endpoint); the authoritative usage
// counter lives in the stats file, so every function here is safe to skip
// when no database is configured.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/alritech/tikbot/internal/domain"
)

// Open opens (or creates) the SQLite database at path and applies PRAGMAs.
func Open(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(4)
		sqlDB.SetMaxIdleConns(4)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the downloads table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Download{})
}
