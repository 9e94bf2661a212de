// Package domain defines the persistence models for comments. These types
// are mapped with GORM and form the core data layer of the comment backend.
package domain

import "time"

// Moderation states a comment can carry. Only StatusAccept is ever listed
// publicly; the other two are visible to moderation tooling only.
const (
	StatusAccept  = "accept"
	StatusWaiting = "waiting"
	StatusSpam    = "spam"
)

// StickTrue is the stored value marking a pinned comment. The field is a
// boolean-as-string for compatibility with existing client payloads.
const StickTrue = "true"

// Comment is one stored comment on a page. Threads are not stored as trees:
// every comment carries the id of its top-level ancestor (PID) and of the
// comment it directly replies to (RID), and thread reconstruction happens at
// query time.
//
// Fields:
//   - ID: stable UUID primary key, assigned at insert.
//   - PID: id of the top-level ancestor; "" when this comment is itself
//     top-level. Indexed together with Path for the reply-expansion query.
//   - RID: id of the comment directly replied to; may equal PID or point
//     deeper into the same thread; "" when not a reply.
//   - Path: normalized page identifier (trailing index.html stripped) that
//     groups all comments belonging to one page.
//   - Nick, Mail, Site, Content, UA, IP: submitter-provided or derived.
//     Mail, UA and IP are never exposed in public responses.
//   - Status: accept | waiting | spam, decided before insert.
//   - Stick: "true" for pinned comments, "" otherwise. Pinned comments are
//     excluded from normal pagination and prepended to page 1 only.
//   - Created: insert timestamp, immutable, the ordering key of every listing.
type Comment struct {
	ID      string    `json:"id"      gorm:"type:char(36);primaryKey"`
	PID     string    `json:"pid"     gorm:"column:pid;type:char(36);not null;default:'';index:idx_path_pid,priority:2"`
	RID     string    `json:"rid"     gorm:"column:rid;type:char(36);not null;default:''"`
	Path    string    `json:"path"    gorm:"type:varchar(255);not null;index:idx_path_pid,priority:1"`
	Nick    string    `json:"nick"    gorm:"type:varchar(255);not null"`
	Mail    string    `json:"-"       gorm:"type:varchar(255);not null"`
	Site    string    `json:"site"    gorm:"type:varchar(255)"`
	Content string    `json:"content" gorm:"type:text;not null"`
	UA      string    `json:"-"       gorm:"column:ua;type:varchar(512)"`
	IP      string    `json:"-"       gorm:"column:ip;type:varchar(64)"`
	Status  string    `json:"-"       gorm:"type:varchar(16);not null;check:status IN ('accept','waiting','spam');index"`
	Stick   string    `json:"stick"   gorm:"type:varchar(8);not null;default:''"`
	Created time.Time `json:"-"       gorm:"index"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }

// TopLevel reports whether the comment starts its own thread.
func (c *Comment) TopLevel() bool { return c.PID == "" }

// Sticky reports whether the comment is pinned to page 1.
func (c *Comment) Sticky() bool { return c.Stick == StickTrue }
