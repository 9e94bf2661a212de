// Comment HTTP handlers.
//
// This file exposes the REST endpoints of the comment system:
//   - GET  /comments          (one page of a path's comments, with ETag)
//   - GET  /comments/recent   (newest accepted comments site-wide)
//   - POST /comments/count    (batch counts for a set of paths)
//   - POST /comments          (submit a new comment)
//
// Handlers are transport-thin: they validate and normalize inputs, delegate
// to CommentService, and translate sentinel errors into the error envelope.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a stored submission
// exists for (client IP, path, key), the handler returns the recorded
// comment and sets `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mvasilak/go-comment-backend/internal/format"
	"github.com/mvasilak/go-comment-backend/internal/http/middleware"
	"github.com/mvasilak/go-comment-backend/internal/repo"
	"github.com/mvasilak/go-comment-backend/internal/services"
	"github.com/mvasilak/go-comment-backend/internal/utils"
)

// Handlers bundles the dependencies shared by all endpoint methods.
type Handlers struct {
	svc     *services.CommentService
	idemTTL time.Duration
}

// New constructs the handler set. idemTTL bounds how long a stored
// Idempotency-Key replay stays valid.
func New(svc *services.CommentService, idemTTL time.Duration) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{svc: svc, idemTTL: idemTTL}
}

//
// DTOs
//

// PostCommentRequest is the JSON payload for submitting a comment.
type PostCommentRequest struct {
	Nick    string `json:"nick"`
	Mail    string `json:"mail"`
	Site    string `json:"site"`
	Content string `json:"content" binding:"required,min=1"`
	UA      string `json:"ua"`
	Path    string `json:"path"`
	PID     string `json:"pid"`
	RID     string `json:"rid"`
	Token   string `json:"token"`
}

// RecentResponse wraps the recent listing.
type RecentResponse struct {
	Comments []format.Comment `json:"comments"`
}

// CountRequest is the JSON payload of the batch count endpoint.
type CountRequest struct {
	Paths []string `json:"paths" binding:"required"`
	Reply bool     `json:"reply"`
}

// CountResponse mirrors the request paths one-to-one.
type CountResponse struct {
	Counts []services.PathCount `json:"counts"`
}

//
// Handlers
//

// ListComments serves one page of a path's comment tree.
//
// Query parameters: path (required), page (default 1). The response carries a
// weak ETag derived from the accepted-comment count and newest creation time
// for the path, so unchanged pages collapse to 304.
func (h *Handlers) ListComments(c *gin.Context) {
	ctx := c.Request.Context()

	path := c.Query("path")
	if path == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "path required")
		return
	}
	page := utils.AtoiDefault(c.Query("page"), 1)

	// ETag pre-check (best effort).
	if h.svc.DB != nil {
		count, maxTS, err := repo.CommentsStats(ctx, h.svc.DB, utils.NormalizePath(path))
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"comments:%s:%d:%d"`, utils.NormalizePath(path), count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	res, err := h.svc.ListPage(ctx, path, page)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}

// RecentComments serves the newest accepted comments across all paths.
// The reply query parameter ("true"/"1") includes replies in the listing.
func (h *Handlers) RecentComments(c *gin.Context) {
	includeReplies := boolQuery(c, "reply")

	items, err := h.svc.Recent(c.Request.Context(), includeReplies)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, RecentResponse{Comments: items})
}

// CountComments serves batch per-path comment counts. The response array has
// the same order and length as the request paths; unknown paths count zero.
func (h *Handlers) CountComments(c *gin.Context) {
	var req CountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "paths required")
		return
	}

	counts, err := h.svc.CountByPaths(c.Request.Context(), req.Paths, req.Reply)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, CountResponse{Counts: counts})
}

// PostComment runs the submission pipeline and returns the stored comment in
// display form, including its moderation status.
func (h *Handlers) PostComment(c *gin.Context) {
	ctx := c.Request.Context()

	var req PostCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	if req.UA == "" {
		req.UA = c.Request.UserAgent()
	}
	clientIP := c.ClientIP()
	normPath := utils.NormalizePath(req.Path)

	// Idempotency (replay path).
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.svc.DB != nil {
		if rec, err := repo.GetIdempotency(ctx, h.svc.DB, clientIP, normPath, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := repo.GetComment(ctx, h.svc.DB, rec.CommentID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				view := format.NewComment(prev, time.Now(), h.svc.Display)
				view.Status = prev.Status
				ok(c, http.StatusOK, view)
				return
			}
		}
	}

	view, err := h.svc.Submit(ctx, services.SubmitInput{
		Nick:    req.Nick,
		Mail:    req.Mail,
		Site:    req.Site,
		Content: req.Content,
		UA:      req.UA,
		Path:    req.Path,
		PID:     req.PID,
		RID:     req.RID,
		IP:      clientIP,
		Token:   req.Token,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrQuotaExceeded):
			fail(c, http.StatusBadRequest, ErrCodeQuotaExceeded, err.Error())
		case errors.Is(err, services.ErrIdentityConflict):
			fail(c, http.StatusForbidden, ErrCodeIdentityConflict, "owner mail requires a valid token")
		case errors.Is(err, services.ErrRateLimited):
			fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, "too many submissions")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && h.svc.DB != nil {
		_, _ = repo.CreateIdempotency(ctx, h.svc.DB, clientIP, normPath, idemKey, view.ID, http.StatusCreated, h.idemTTL)
	}

	middleware.ObserveSubmission(view.Status)
	ok(c, http.StatusCreated, view)
}

// boolQuery reads a query parameter as a boolean ("true" or "1").
func boolQuery(c *gin.Context, name string) bool {
	v := c.Query(name)
	return v == "true" || v == "1"
}
