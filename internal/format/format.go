package format

import (
	"bytes"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/mvasilak/go-comment-backend/internal/domain"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy = bluemonday.UGCPolicy()
)

func init() {
	policy.AllowImages()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// Comment is the externally visible shape of a stored comment. Submitter
// mail, IP, user agent, moderation status, and the raw creation timestamp
// never appear here; the only time signal is the relative label.
type Comment struct {
	ID      string `json:"id"`
	PID     string `json:"pid"`
	RID     string `json:"rid"`
	Nick    string `json:"nick"`
	Site    string `json:"site,omitempty"`
	Content string `json:"content"`
	Stick   string `json:"stick,omitempty"`
	Time    string `json:"time"`

	// Status is set only on the submission response, so the submitter can
	// tell whether the comment was accepted or queued for moderation. It is
	// never populated on listings.
	Status string `json:"status,omitempty"`
}

// Options controls how content is prepared for display.
type Options struct {
	// Markdown renders content through goldmark before sanitizing. When
	// false the content is still passed through the sanitizer, which strips
	// any embedded HTML.
	Markdown bool
}

// Render prepares raw comment content for display. Content is never returned
// unsanitized: markdown output and plain text alike go through the bluemonday
// UGC policy, which removes scripts, event handlers, and unknown tags.
func Render(content string, opts Options) string {
	if opts.Markdown {
		var buf bytes.Buffer
		if err := md.Convert([]byte(content), &buf); err == nil {
			return string(policy.SanitizeBytes(buf.Bytes()))
		}
	}
	return policy.Sanitize(content)
}

// NewComment converts a stored record into its display shape, computing the
// relative-time label at now and masking everything the public response must
// not carry.
func NewComment(c *domain.Comment, now time.Time, opts Options) Comment {
	return Comment{
		ID:      c.ID,
		PID:     c.PID,
		RID:     c.RID,
		Nick:    c.Nick,
		Site:    strings.TrimSpace(c.Site),
		Content: Render(c.Content, opts),
		Stick:   c.Stick,
		Time:    TimeAgo(c.Created, now),
	}
}

// NewComments maps NewComment over a batch, preserving order.
func NewComments(cs []domain.Comment, now time.Time, opts Options) []Comment {
	out := make([]Comment, len(cs))
	for i := range cs {
		out[i] = NewComment(&cs[i], now, opts)
	}
	return out
}
