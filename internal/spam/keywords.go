package spam

import (
	"context"
	"regexp"
	"strings"

	"github.com/mvasilak/go-comment-backend/internal/domain"
)

// KeywordChecker is a local fallback classifier for deployments without an
// Akismet key. A submission whose content, nick, or link contains a blocked
// term is held for review; everything else is accepted. It never errors.
type KeywordChecker struct {
	blocked map[string]struct{}
}

// NewKeywordChecker builds a checker from a list of blocked terms. Terms are
// matched case-insensitively against word tokens of the submission.
func NewKeywordChecker(terms []string) *KeywordChecker {
	blocked := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			blocked[t] = struct{}{}
		}
	}
	return &KeywordChecker{blocked: blocked}
}

var tokenRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Check implements Checker.
func (k *KeywordChecker) Check(_ context.Context, s Submission) (string, error) {
	if len(k.blocked) == 0 {
		return domain.StatusAccept, nil
	}
	haystack := strings.ToLower(s.Content + " " + s.Name + " " + s.URL)
	for _, tok := range tokenRE.FindAllString(haystack, -1) {
		if _, hit := k.blocked[tok]; hit {
			return domain.StatusWaiting, nil
		}
	}
	return domain.StatusAccept, nil
}
