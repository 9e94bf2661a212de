package spam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mvasilak/go-comment-backend/internal/domain"
)

// AkismetChecker classifies submissions through the Akismet comment-check
// endpoint.
//
// Verdict mapping: ham is accepted; spam is held for review; a
// "discard"-flagged response (Akismet's signal for blatant spam) is stored
// as spam and hidden outright.
type AkismetChecker struct {
	// Key is the Akismet API key. Blog is the site URL registered with it.
	Key  string
	Blog string

	// HTTPClient is used for the comment-check call. A nil client falls
	// back to a short-timeout default.
	HTTPClient *http.Client

	// BaseURL overrides the Akismet endpoint, for tests. When empty the
	// production rest.akismet.com host is derived from Key.
	BaseURL string
}

const akismetTimeout = 5 * time.Second

// Check implements Checker.
func (a *AkismetChecker) Check(ctx context.Context, s Submission) (string, error) {
	form := url.Values{
		"blog":                 {a.Blog},
		"user_ip":              {s.IP},
		"user_agent":           {s.UserAgent},
		"comment_type":         {s.Type},
		"comment_author":       {s.Name},
		"comment_author_email": {s.Email},
		"comment_author_url":   {s.URL},
		"comment_content":      {s.Content},
	}

	endpoint := a.BaseURL
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.rest.akismet.com/1.1/comment-check", a.Key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := a.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: akismetTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", err
	}

	switch strings.TrimSpace(string(body)) {
	case "false":
		return domain.StatusAccept, nil
	case "true":
		if resp.Header.Get("X-Akismet-Pro-Tip") == "discard" {
			return domain.StatusSpam, nil
		}
		return domain.StatusWaiting, nil
	default:
		// "invalid" or an error payload; the caller falls back.
		return "", fmt.Errorf("akismet: unexpected response %q", strings.TrimSpace(string(body)))
	}
}
