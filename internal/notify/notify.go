// Package notify delivers "new comment" events to a configured push
// endpoint so a separate mailer can alert the site owner or the replied-to
// author. Delivery is strictly best-effort: the submission pipeline waits a
// bounded 500 ms for the dispatch, then moves on, and no outcome here ever
// affects the already-persisted comment.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mvasilak/go-comment-backend/internal/domain"
)

// eventType marks push payloads for the downstream mailer.
const eventType = "PUSH_MAIL"

// DefaultWait bounds how long a submission blocks on dispatch.
const DefaultWait = 500 * time.Millisecond

// MailSettings is the owner's outbound-mail configuration. Dispatch only
// happens when every field is present; a partially configured mailer is
// treated as "notifications off".
type MailSettings struct {
	Host          string
	Port          string
	From          string
	Accept        string
	MasterSubject string
	ReplySubject  string
}

// complete reports whether every mail setting is present.
func (m MailSettings) complete() bool {
	return m.Host != "" && m.Port != "" && m.From != "" &&
		m.Accept != "" && m.MasterSubject != "" && m.ReplySubject != ""
}

// Dispatcher posts comment events to the push endpoint.
type Dispatcher struct {
	// URL is the push target. Empty disables dispatch.
	URL string
	// SiteURL is sent as the Origin header so the receiver can check the
	// event's provenance.
	SiteURL string
	// Mail must be fully populated for dispatch to run.
	Mail MailSettings

	// Username, Password, OwnerMail are the owner secret material the
	// one-time credential is derived from.
	Username  string
	Password  string
	OwnerMail string

	// Wait bounds how long Dispatch blocks; <= 0 means DefaultWait.
	Wait time.Duration

	// HTTPClient is used for the POST. A nil client falls back to a
	// default whose timeout exceeds the wait bound, since the in-flight
	// call is abandoned, not cancelled.
	HTTPClient *http.Client
}

// event is the payload pushed downstream: the finalized comment plus the
// transient credential and type marker. These two fields exist only on this
// wire shape and are never stored or returned to the submitter.
type event struct {
	ID      string `json:"id"`
	PID     string `json:"pid"`
	RID     string `json:"rid"`
	Path    string `json:"path"`
	Nick    string `json:"nick"`
	Mail    string `json:"mail"`
	Site    string `json:"site"`
	Content string `json:"content"`
	Status  string `json:"status"`
	Token   string `json:"token"`
	Type    string `json:"type"`
}

// Enabled reports whether dispatch would actually run.
func (d *Dispatcher) Enabled() bool {
	return d.URL != "" && d.Mail.complete()
}

// Dispatch sends one event for the persisted comment, waiting at most the
// configured bound. It returns once the POST finishes or the bound elapses,
// whichever is first; an abandoned call keeps running in the background and
// its outcome is only logged. Dispatch never returns an error: failures are
// contained here by contract.
func (d *Dispatcher) Dispatch(ctx context.Context, c *domain.Comment) {
	if !d.Enabled() {
		return
	}

	wait := d.Wait
	if wait <= 0 {
		wait = DefaultWait
	}

	done := make(chan error, 1)
	go func() { done <- d.post(c) }()

	select {
	case err := <-done:
		if err != nil {
			log.Warn().Err(err).Str("comment_id", c.ID).Msg("comment notification failed")
		} else {
			log.Debug().Str("comment_id", c.ID).Msg("comment notification delivered")
		}
	case <-time.After(wait):
		log.Debug().Str("comment_id", c.ID).Msg("comment notification still in flight, not waiting")
	case <-ctx.Done():
		// The submission response is already decided; stop waiting but let
		// the in-flight call run its course.
	}
}

// post performs the single POST-equivalent call. No retries.
func (d *Dispatcher) post(c *domain.Comment) error {
	token, err := credential(d.Username, d.Password, d.OwnerMail)
	if err != nil {
		return fmt.Errorf("derive credential: %w", err)
	}

	body, err := json.Marshal(event{
		ID:      c.ID,
		PID:     c.PID,
		RID:     c.RID,
		Path:    c.Path,
		Nick:    c.Nick,
		Mail:    c.Mail,
		Site:    c.Site,
		Content: c.Content,
		Status:  c.Status,
		Token:   token,
		Type:    eventType,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, d.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", d.SiteURL)

	client := d.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push endpoint returned %s", resp.Status)
	}
	return nil
}

// credential derives the one-time token the mailer uses to authenticate the
// event: a bcrypt hash over the owner secret material.
func credential(username, password, mail string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(username+password+mail), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
