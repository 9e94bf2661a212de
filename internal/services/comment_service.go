// Package services implements the application layer of the comment backend.
//
// CommentService owns the two comment pipelines:
//
//   - Query: paginated per-page listings with sticky comments and batched
//     reply expansion, a global recent listing, and per-path batch counts.
//   - Submission: field validation, anonymous quotas, owner-identity guard,
//     sliding-window rate limiting, moderation verdict, durable insert, and
//     a best-effort bounded-wait notification.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include the page path and pagination parameters where applicable.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mvasilak/go-comment-backend/internal/auth"
	"github.com/mvasilak/go-comment-backend/internal/domain"
	"github.com/mvasilak/go-comment-backend/internal/format"
	"github.com/mvasilak/go-comment-backend/internal/notify"
	"github.com/mvasilak/go-comment-backend/internal/repo"
	"github.com/mvasilak/go-comment-backend/internal/spam"
	"github.com/mvasilak/go-comment-backend/internal/utils"
)

const defaultPageSize = 10

// WordLimits caps the rune length of anonymous submission fields.
// A zero value disables the check for that field.
type WordLimits struct {
	Content int `json:"content"`
	Nick    int `json:"nick"`
	Mail    int `json:"mail"`
	Site    int `json:"site"`
}

// DisplayConfig echoes the server-side display settings a client needs in
// order to render the comment form: the per-field word limits it should
// enforce before submitting, and whether content is rendered as markdown.
type DisplayConfig struct {
	WordLimits WordLimits `json:"wordLimits"`
	Markdown   bool       `json:"markdown"`
}

// CommentService coordinates comment listing and submission. All
// collaborators are injected; nil collaborators degrade gracefully (no
// verifier means every submission is anonymous, no limiter means no
// submission quota, no notifier means notifications are off).
type CommentService struct {
	DB       *gorm.DB
	Verifier auth.Verifier
	Checker  spam.Checker
	Limiter  *SlidingLimiter
	Notifier *notify.Dispatcher

	// PageSize is the top-level page slice size and the recent-listing
	// default limit (comment_count).
	PageSize int
	// RecentMax caps the recent listing regardless of PageSize.
	RecentMax int

	Limits    WordLimits
	OwnerMail string

	// FallbackStatus is stored when the checker fails or returns an
	// unknown verdict. Empty means waiting.
	FallbackStatus string

	// Display controls content rendering for all formatted output.
	Display format.Options
}

// PageResult is one page of a per-page listing: sticky comments, the page
// slice, and their replies concatenated in that order, plus pagination
// metadata computed from the base (non-sticky top-level) filter.
type PageResult struct {
	Comments  []format.Comment `json:"comments"`
	Count     int64            `json:"count"`
	Page      int              `json:"page"`
	PageCount int              `json:"pageCount"`
	Config    DisplayConfig    `json:"config"`
}

// PathCount is one entry of the batch-count result.
type PathCount struct {
	Path  string `json:"path"`
	Count int64  `json:"count"`
}

// SubmitInput carries the submitter-provided fields of one new comment.
type SubmitInput struct {
	Nick    string
	Mail    string
	Site    string
	Content string
	UA      string
	Path    string
	PID     string
	RID     string
	IP      string
	Token   string
}

func (s *CommentService) pageSize() int {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return defaultPageSize
}

// ListPage answers "list comments for page `page` of path `path`".
//
// Sticky comments are fetched only for page 1 requests, are excluded from
// the pagination count, and are prepended to the page slice. Replies for the
// whole visible block come back in one batched query and are appended after
// it. The requested page is clamped against the count of matching top-level
// comments, so the store never sees an out-of-range offset.
func (s *CommentService) ListPage(ctx context.Context, path string, page int) (*PageResult, error) {
	tr := otel.Tracer("services/CommentService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("comment.path", path),
			attribute.Int("page", page),
		),
	)
	defer span.End()

	path = utils.NormalizePath(path)
	pageSize := s.pageSize()

	var sticky []domain.Comment
	if page <= 1 {
		var err error
		sticky, err = repo.ListSticky(ctx, s.DB, path)
		if err != nil {
			return nil, fmt.Errorf("list sticky comments: %w", err)
		}
	}

	total, err := repo.CountTopLevel(ctx, s.DB, path)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	page, pageCount := utils.ClampPage(page, pageSize, total)

	slice, err := repo.ListTopLevelPage(ctx, s.DB, path, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	parents := make([]string, 0, len(sticky)+len(slice))
	for i := range sticky {
		parents = append(parents, sticky[i].ID)
	}
	for i := range slice {
		parents = append(parents, slice[i].ID)
	}

	replies, err := repo.ListReplies(ctx, s.DB, path, parents)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}

	all := make([]domain.Comment, 0, len(parents)+len(replies))
	all = append(all, sticky...)
	all = append(all, slice...)
	all = append(all, replies...)

	return &PageResult{
		Comments:  format.NewComments(all, time.Now(), s.Display),
		Count:     total,
		Page:      page,
		PageCount: pageCount,
		Config: DisplayConfig{
			WordLimits: s.Limits,
			Markdown:   s.Display.Markdown,
		},
	}, nil
}

// Recent returns the newest accepted comments across all pages, bounded by
// the configured page size and RecentMax. When includeReplies is false only
// top-level comments are listed.
func (s *CommentService) Recent(ctx context.Context, includeReplies bool) ([]format.Comment, error) {
	tr := otel.Tracer("services/CommentService")
	ctx, span := tr.Start(ctx, "Recent",
		trace.WithAttributes(attribute.Bool("include_replies", includeReplies)),
	)
	defer span.End()

	limit := s.pageSize()
	if s.RecentMax > 0 && limit > s.RecentMax {
		limit = s.RecentMax
	}

	rows, err := repo.ListRecent(ctx, s.DB, limit, !includeReplies)
	if err != nil {
		return nil, fmt.Errorf("list recent comments: %w", err)
	}
	return format.NewComments(rows, time.Now(), s.Display), nil
}

// CountByPaths group-counts accepted comments for a batch of page
// identifiers. The result mirrors the input exactly: same order, same
// length, zero for paths with no matches.
func (s *CommentService) CountByPaths(ctx context.Context, paths []string, includeReplies bool) ([]PathCount, error) {
	tr := otel.Tracer("services/CommentService")
	ctx, span := tr.Start(ctx, "CountByPaths",
		trace.WithAttributes(attribute.Int("paths", len(paths))),
	)
	defer span.End()

	norm := utils.NormalizePaths(paths)

	counts, err := repo.CountByPaths(ctx, s.DB, norm, !includeReplies)
	if err != nil {
		return nil, fmt.Errorf("count by paths: %w", err)
	}

	out := make([]PathCount, len(norm))
	for i, p := range norm {
		out[i] = PathCount{Path: p, Count: counts[p]}
	}
	return out, nil
}

// Submit runs the submission pipeline. Every gate before the insert returns
// its sentinel error with no stored side effects; after the insert, nothing
// (including a failed or slow notification) can undo the comment.
func (s *CommentService) Submit(ctx context.Context, in SubmitInput) (*format.Comment, error) {
	tr := otel.Tracer("services/CommentService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("comment.path", in.Path)),
	)
	defer span.End()

	// 1. Required fields.
	for _, f := range []struct{ name, value string }{
		{"nick", in.Nick},
		{"mail", in.Mail},
		{"content", in.Content},
		{"ua", in.UA},
		{"path", in.Path},
	} {
		if strings.TrimSpace(f.value) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}

	// 2. Privilege. An unverifiable token is not an error, just anonymous.
	privileged := s.Verifier != nil && in.Token != "" && s.Verifier.Verify(in.Token)

	// 3. Anonymous quotas.
	if !privileged {
		if err := s.checkQuota(in); err != nil {
			return nil, err
		}
		// 4. Identity guard.
		if s.OwnerMail != "" && strings.EqualFold(strings.TrimSpace(in.Mail), s.OwnerMail) {
			return nil, ErrIdentityConflict
		}
	}

	// 5. Submission rate limit.
	if s.Limiter != nil && !s.Limiter.Allow(in.IP) {
		return nil, ErrRateLimited
	}

	// 6. Moderation verdict.
	status := domain.StatusAccept
	if !privileged {
		status = s.classify(ctx, in)
	}

	// 7. Persist.
	path := utils.NormalizePath(in.Path)
	pid, rid := s.resolveThread(ctx, path, in.RID)

	c := &domain.Comment{
		PID:     pid,
		RID:     rid,
		Path:    path,
		Nick:    in.Nick,
		Mail:    in.Mail,
		Site:    in.Site,
		Content: in.Content,
		UA:      in.UA,
		IP:      in.IP,
		Status:  status,
	}
	if err := repo.CreateComment(ctx, s.DB, c); err != nil {
		return nil, fmt.Errorf("persist comment: %w", err)
	}

	// 8. Best-effort notification, bounded wait, outcome discarded.
	if s.Notifier != nil {
		s.Notifier.Dispatch(ctx, c)
	}

	// 9. Return the display shape; the transient credential and type
	// marker only ever existed on the push event.
	view := format.NewComment(c, time.Now(), s.Display)
	view.Status = c.Status
	return &view, nil
}

// checkQuota enforces the configured per-field rune maxima. Nick is
// validated like every other field.
func (s *CommentService) checkQuota(in SubmitInput) error {
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"content", in.Content, s.Limits.Content},
		{"nick", in.Nick, s.Limits.Nick},
		{"mail", in.Mail, s.Limits.Mail},
		{"site", in.Site, s.Limits.Site},
	} {
		if f.max > 0 && utf8.RuneCountInString(f.value) > f.max {
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, f.name)
		}
	}
	return nil
}

// classify obtains the moderation verdict for an anonymous submission. A
// checker failure or unknown verdict falls back to the configured status and
// never fails the submission.
func (s *CommentService) classify(ctx context.Context, in SubmitInput) string {
	if s.Checker == nil {
		return s.fallbackStatus()
	}

	kind := "comment"
	if in.RID != "" {
		kind = "reply"
	}

	verdict, err := s.Checker.Check(ctx, spam.Submission{
		IP:        in.IP,
		Name:      in.Nick,
		Email:     in.Mail,
		Content:   in.Content,
		URL:       in.Site,
		Type:      kind,
		UserAgent: in.UA,
	})
	if err != nil {
		log.Warn().Err(err).Str("ip", in.IP).Msg("spam checker failed, applying fallback status")
		return s.fallbackStatus()
	}

	switch verdict {
	case domain.StatusAccept, domain.StatusWaiting, domain.StatusSpam:
		return verdict
	default:
		log.Warn().Str("verdict", verdict).Msg("spam checker returned unknown verdict, applying fallback status")
		return s.fallbackStatus()
	}
}

func (s *CommentService) fallbackStatus() string {
	switch s.FallbackStatus {
	case domain.StatusAccept, domain.StatusWaiting, domain.StatusSpam:
		return s.FallbackStatus
	default:
		return domain.StatusWaiting
	}
}

// resolveThread derives the stored (pid, rid) pair of a new comment from the
// comment it replies to. The stored pid must always reference the thread's
// top-level comment, so when a reply targets a deeper comment we walk up via
// that comment's own pid. Client-sent pid values are ignored. A rid that does
// not resolve to a comment on the same page demotes the submission to
// top-level rather than storing a dangling thread reference.
func (s *CommentService) resolveThread(ctx context.Context, path, rid string) (string, string) {
	if rid == "" {
		return "", ""
	}
	parent, err := repo.GetComment(ctx, s.DB, rid)
	if err != nil || parent.Path != path {
		return "", ""
	}
	if parent.PID != "" {
		return parent.PID, rid
	}
	return parent.ID, rid
}
