// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mvasilak/go-comment-backend/internal/domain"
)

// CommentsStats returns aggregate metadata for a page's accepted comments:
// the total number of rows and the maximum Created timestamp among them.
// Both listing output and reply expansion only ever draw from this set, so
// (count, maxCreated) changes whenever the listing would.
//
// Return values:
//   - count:      accepted comments (any thread depth) for path
//   - maxCreated: pointer to the greatest Created, or nil if no rows
//   - err:        database error, if any
func CommentsStats(ctx context.Context, db *gorm.DB, path string) (count int64, maxCreated *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Comment{}).
		Where("path = ? AND status = ?", path, domain.StatusAccept)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Latest created (avoid MAX() -> TEXT in SQLite)
	var row struct {
		Created time.Time
	}
	if err = q.Select("created").Order("created DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.Created, nil
}
