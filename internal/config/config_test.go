package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// App
	t.Setenv("DB_PATH", "db.sqlite")
	t.Setenv("SITE_URL", "https://blog.example.com/")

	// Comments
	t.Setenv("COMMENT_PAGE_SIZE", "25")
	t.Setenv("RECENT_MAX", "5")
	t.Setenv("MARKDOWN", "off")

	// Limits
	t.Setenv("MAX_CONTENT", "500")
	t.Setenv("MAX_NICK", "32")

	// Moderation
	t.Setenv("AKISMET_KEY", "k1")
	t.Setenv("SPAM_KEYWORDS", " casino , , viagra ")
	t.Setenv("FALLBACK_STATUS", "SPAM")

	// Owner / push
	t.Setenv("OWNER_MAIL", "owner@example.com")
	t.Setenv("PUSH_URL", "https://push.example.com/event")
	t.Setenv("PUSH_WAIT", "250ms")

	// Submission limiting
	t.Setenv("SUBMIT_LIMIT", "3")
	t.Setenv("SUBMIT_WINDOW", "5m")

	// Edge rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// Idempotency
	t.Setenv("IDEMPOTENCY_TTL", "48h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging
	if cfg.LogLevel != "warn" || !cfg.LogPretty || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging fields unexpected: %+v", cfg)
	}

	// App
	if cfg.DBPath != "db.sqlite" || cfg.SiteURL != "https://blog.example.com" {
		t.Fatalf("app fields unexpected: %+v", cfg)
	}

	// Comments
	if cfg.Comments.PageSize != 25 || cfg.Comments.RecentMax != 5 || cfg.Comments.Markdown {
		t.Fatalf("comment fields unexpected: %+v", cfg.Comments)
	}

	// Limits (unset fields stay disabled)
	if cfg.Limits.Content != 500 || cfg.Limits.Nick != 32 || cfg.Limits.Mail != 0 || cfg.Limits.Site != 0 {
		t.Fatalf("limits unexpected: %+v", cfg.Limits)
	}

	// Moderation
	if cfg.Moderation.AkismetKey != "k1" || cfg.Moderation.FallbackStatus != "spam" {
		t.Fatalf("moderation unexpected: %+v", cfg.Moderation)
	}
	if !reflect.DeepEqual(cfg.Moderation.SpamKeywords, []string{"casino", "viagra"}) {
		t.Fatalf("keywords unexpected: %#v", cfg.Moderation.SpamKeywords)
	}

	// Owner / push
	if cfg.Owner.Mail != "owner@example.com" || cfg.Push.URL != "https://push.example.com/event" || cfg.Push.Wait != 250*time.Millisecond {
		t.Fatalf("owner/push unexpected: %+v %+v", cfg.Owner, cfg.Push)
	}

	// Submission limiting
	if cfg.SubmitLimit.Limit != 3 || cfg.SubmitLimit.Window != 5*time.Minute {
		t.Fatalf("submit limit unexpected: %+v", cfg.SubmitLimit)
	}

	// Edge rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// Idempotency
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{"invalid LOG_LEVEL", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"zero page size", "COMMENT_PAGE_SIZE", "0", "COMMENT_PAGE_SIZE"},
		{"zero recent max", "RECENT_MAX", "0", "RECENT_MAX"},
		{"negative limit", "MAX_CONTENT", "-1", "length limits"},
		{"unknown fallback status", "FALLBACK_STATUS", "review", "FALLBACK_STATUS"},
		{"negative submit limit", "SUBMIT_LIMIT", "-2", "SUBMIT_LIMIT"},
		{"zero submit window", "SUBMIT_WINDOW", "0s", "SUBMIT_WINDOW"},
		{"zero push wait", "PUSH_WAIT", "0s", "PUSH_WAIT"},
		{"zero rate burst", "RATE_BURST", "0", "RATE_BURST"},
		{"zero idempotency ttl", "IDEMPOTENCY_TTL", "0s", "IDEMPOTENCY_TTL"},
		{"sampler out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("err = %v; want message containing %q", err, tc.wantMsg)
			}
		})
	}
}

func TestLoad_AkismetRequiresSiteURL(t *testing.T) {
	t.Setenv("AKISMET_KEY", "k1")
	t.Setenv("SITE_URL", "")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "SITE_URL") {
		t.Fatalf("err = %v; want SITE_URL requirement", err)
	}
}
