// Package repo implements the download-history persistence layer, backed
// by GORM. This file provides repository functions for the Download model:
// thin, context-aware CRUD with no business logic.
//
// Error semantics: on DB errors the raw gorm error is propagated; callers
// treat history as best-effort and log rather than escalate.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alritech/tikbot/internal/domain"
)

// Downloads wraps a gorm handle so the controller can depend on a small
// recorder value instead of the raw *gorm.DB.
type Downloads struct {
	DB *gorm.DB
}

// RecordDownload inserts one delivered-video row. The ID is a generated
// UUID and CreatedAt is set to UTC.
func (r Downloads) RecordDownload(ctx context.Context, d *domain.Download) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	return r.DB.WithContext(ctx).Create(d).Error
}

// DownloadStats returns aggregate metadata over all recorded downloads:
// the row count, the number of distinct chats served, and the most recent
// delivery time (nil when there are no rows).
func DownloadStats(ctx context.Context, db *gorm.DB) (count, chats int64, lastAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Download{})

	if err = q.Count(&count).Error; err != nil {
		return 0, 0, nil, err
	}
	if count == 0 {
		return 0, 0, nil, nil
	}

	if err = q.Distinct("chat_id").Count(&chats).Error; err != nil {
		return 0, 0, nil, err
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Download{}).
		Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, nil, err
	}
	return count, chats, &row.CreatedAt, nil
}

// ListRecent returns the most recent downloads, newest first, capped at
// limit. Used by the ops status endpoint.
func ListRecent(ctx context.Context, db *gorm.DB, limit int) ([]domain.Download, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []domain.Download
	err := db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
