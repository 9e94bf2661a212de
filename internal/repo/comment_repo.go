// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Comment
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Listing queries are always scoped by
// path and status=accept unless a function says otherwise.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvasilak/go-comment-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateComment inserts a new comment row. The ID is a randomly generated
// UUID and Created is set to UTC at insert time; both are assigned here and
// never by callers, so a stored comment's identity and ordering key are
// store-owned.
func CreateComment(ctx context.Context, db *gorm.DB, c *domain.Comment) error {
	c.ID = uuid.NewString()
	c.Created = time.Now().UTC()
	return db.WithContext(ctx).Create(c).Error
}

// GetComment fetches a comment by ID regardless of status.
func GetComment(ctx context.Context, db *gorm.DB, id string) (*domain.Comment, error) {
	var c domain.Comment
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// topLevelScope is the base filter of the paginated listing: accepted
// top-level comments on one page, excluding pinned ones (which are fetched
// separately and prepended to page 1).
func topLevelScope(db *gorm.DB, path string) *gorm.DB {
	return db.Model(&domain.Comment{}).
		Where("path = ? AND status = ? AND pid = '' AND stick <> ?",
			path, domain.StatusAccept, domain.StickTrue)
}

// CountTopLevel returns the number of rows matching the base listing filter.
// The result drives the pagination clamp.
func CountTopLevel(ctx context.Context, db *gorm.DB, path string) (int64, error) {
	var total int64
	err := topLevelScope(db.WithContext(ctx), path).Count(&total).Error
	return total, err
}

// ListTopLevelPage returns one page slice of the base listing filter,
// ordered newest-first with ID as a deterministic tie-break.
func ListTopLevelPage(ctx context.Context, db *gorm.DB, path string, offset, limit int) ([]domain.Comment, error) {
	var out []domain.Comment
	err := topLevelScope(db.WithContext(ctx), path).
		Order("created DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListSticky returns all pinned accepted comments for a page, newest-first,
// with no limit. Pinned comments only ever appear on page 1.
func ListSticky(ctx context.Context, db *gorm.DB, path string) ([]domain.Comment, error) {
	var out []domain.Comment
	err := db.WithContext(ctx).
		Where("path = ? AND status = ? AND pid = '' AND stick = ?",
			path, domain.StatusAccept, domain.StickTrue).
		Order("created DESC, id DESC").
		Find(&out).Error
	return out, err
}

// ListReplies returns every accepted reply whose thread root is one of
// parentIDs, across arbitrary depth, in one batched query. Replies come back
// as a single flat slice in chronological order; callers append them after
// the top-level block rather than interleaving.
func ListReplies(ctx context.Context, db *gorm.DB, path string, parentIDs []string) ([]domain.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var out []domain.Comment
	err := db.WithContext(ctx).
		Where("path = ? AND status = ? AND pid IN ?", path, domain.StatusAccept, parentIDs).
		Order("created ASC, id ASC").
		Find(&out).Error
	return out, err
}

// ListRecent returns the most recent accepted comments across all pages,
// newest-first, bounded by limit. When topLevelOnly is set, replies are
// excluded.
func ListRecent(ctx context.Context, db *gorm.DB, limit int, topLevelOnly bool) ([]domain.Comment, error) {
	q := db.WithContext(ctx).Where("status = ?", domain.StatusAccept)
	if topLevelOnly {
		q = q.Where("pid = ''")
	}
	var out []domain.Comment
	err := q.Order("created DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// CountByPaths group-counts accepted comments per path in one aggregate
// query and returns a path -> count map. Paths with no matches are simply
// absent; callers align the result to their input order.
func CountByPaths(ctx context.Context, db *gorm.DB, paths []string, topLevelOnly bool) (map[string]int64, error) {
	if len(paths) == 0 {
		return map[string]int64{}, nil
	}

	q := db.WithContext(ctx).Model(&domain.Comment{}).
		Where("path IN ? AND status = ?", paths, domain.StatusAccept)
	if topLevelOnly {
		q = q.Where("pid = ''")
	}

	var rows []struct {
		Path  string
		Count int64
	}
	if err := q.Select("path, COUNT(*) AS count").Group("path").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Path] = r.Count
	}
	return out, nil
}
