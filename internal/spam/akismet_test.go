package spam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mvasilak/go-comment-backend/internal/domain"
)

func akismetServer(t *testing.T, body string, header http.Header) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostFormValue("blog") == "" || r.PostFormValue("user_ip") == "" {
			t.Errorf("missing required form fields: %v", r.PostForm)
		}
		for k, vs := range header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		_, _ = w.Write([]byte(body))
	}))
}

func sub() Submission {
	return Submission{
		IP:        "203.0.113.9",
		Name:      "ada",
		Email:     "ada@example.com",
		Content:   "nice post",
		Type:      "comment",
		UserAgent: "curl/8",
	}
}

func TestAkismetChecker_Ham(t *testing.T) {
	srv := akismetServer(t, "false", nil)
	defer srv.Close()

	c := &AkismetChecker{Key: "k", Blog: "https://example.com", BaseURL: srv.URL}
	got, err := c.Check(context.Background(), sub())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got != domain.StatusAccept {
		t.Fatalf("verdict = %q; want accept", got)
	}
}

func TestAkismetChecker_Spam(t *testing.T) {
	srv := akismetServer(t, "true", nil)
	defer srv.Close()

	c := &AkismetChecker{Key: "k", Blog: "https://example.com", BaseURL: srv.URL}
	got, err := c.Check(context.Background(), sub())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got != domain.StatusWaiting {
		t.Fatalf("verdict = %q; want waiting", got)
	}
}

func TestAkismetChecker_Discard(t *testing.T) {
	h := http.Header{}
	h.Set("X-Akismet-Pro-Tip", "discard")
	srv := akismetServer(t, "true", h)
	defer srv.Close()

	c := &AkismetChecker{Key: "k", Blog: "https://example.com", BaseURL: srv.URL}
	got, err := c.Check(context.Background(), sub())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got != domain.StatusSpam {
		t.Fatalf("verdict = %q; want spam", got)
	}
}

func TestAkismetChecker_InvalidResponse(t *testing.T) {
	srv := akismetServer(t, "invalid", nil)
	defer srv.Close()

	c := &AkismetChecker{Key: "k", Blog: "https://example.com", BaseURL: srv.URL}
	if _, err := c.Check(context.Background(), sub()); err == nil {
		t.Fatal("expected error on invalid response")
	}
}

func TestAkismetChecker_ServerDown(t *testing.T) {
	srv := akismetServer(t, "false", nil)
	srv.Close() // connection refused

	c := &AkismetChecker{Key: "k", Blog: "https://example.com", BaseURL: srv.URL}
	if _, err := c.Check(context.Background(), sub()); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestKeywordChecker(t *testing.T) {
	k := NewKeywordChecker([]string{"casino", " VIAGRA "})

	cases := []struct {
		name string
		s    Submission
		want string
	}{
		{"clean", Submission{Content: "lovely article"}, domain.StatusAccept},
		{"blocked word in content", Submission{Content: "visit my CASINO now"}, domain.StatusWaiting},
		{"blocked word in url", Submission{Content: "hi", URL: "https://spam.example/viagra"}, domain.StatusWaiting},
		{"substring is not a token hit", Submission{Content: "casinos are fun"}, domain.StatusAccept},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := k.Check(context.Background(), tc.s)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if got != tc.want {
				t.Fatalf("verdict = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestAcceptChecker(t *testing.T) {
	got, err := (Accept{}).Check(context.Background(), Submission{Content: "anything"})
	if err != nil || got != domain.StatusAccept {
		t.Fatalf("Accept.Check = (%q, %v); want (accept, nil)", got, err)
	}
}
