package domain

import "time"

// Idempotency records the outcome of a previously accepted submission, keyed
// by (client_ip, path, key). It lets clients retry POST /comments safely: a
// retry carrying the same Idempotency-Key returns the originally stored
// comment instead of creating a duplicate.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	ClientIP  string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_ip_path_key,priority:1"`
	Path      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_ip_path_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_ip_path_key,priority:3"`
	CommentID string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
