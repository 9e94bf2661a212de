// Package spam decides the moderation verdict for an anonymous comment
// submission. The primary implementation asks Akismet; a keyword blocklist
// checker serves deployments without an Akismet key. The pipeline never
// trusts a client-declared status: whatever a Checker returns is the status
// that gets stored.
package spam

import (
	"context"

	"github.com/mvasilak/go-comment-backend/internal/domain"
)

// Submission carries the metadata a classifier sees. Type is "comment" for
// top-level submissions and "reply" otherwise.
type Submission struct {
	IP        string
	Name      string
	Email     string
	Content   string
	URL       string
	Type      string
	UserAgent string
}

// Checker classifies a submission into one of the moderation states
// (domain.StatusAccept, domain.StatusWaiting, domain.StatusSpam). An error
// means the classifier could not produce a verdict; the caller applies its
// configured fallback status and must not fail the submission.
type Checker interface {
	Check(ctx context.Context, s Submission) (string, error)
}

// Accept is a Checker that lets everything through. Used when moderation is
// disabled entirely.
type Accept struct{}

// Check implements Checker.
func (Accept) Check(context.Context, Submission) (string, error) {
	return domain.StatusAccept, nil
}
