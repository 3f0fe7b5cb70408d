// Package repo implements the cycle journal on GORM. This file provides
// small aggregate queries used for conditional responses (ETag generation)
// in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/homework-bot/internal/domain"
)

// CyclesStats returns the number of cycles matching outcome ("" for all) and
// the newest StartedAt among them. When nothing matches, count is 0 and
// maxStartedAt is nil.
func CyclesStats(ctx context.Context, db *gorm.DB, outcome string) (count int64, maxStartedAt *time.Time, err error) {
	q := byOutcome(db.WithContext(ctx).Model(&domain.Cycle{}), outcome)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest started_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		StartedAt time.Time
	}
	if err = q.Select("started_at").Order("started_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.StartedAt, nil
}
