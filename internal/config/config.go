// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, comment display and
// moderation knobs, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-comment-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// CommentConfig defines the display side of the comment system.
type CommentConfig struct {
	PageSize  int  // COMMENT_PAGE_SIZE: top-level comments per page
	RecentMax int  // RECENT_MAX: cap on the recent listing
	Markdown  bool // MARKDOWN: render content as markdown before sanitizing
}

// LimitsConfig caps anonymous submission field lengths in runes.
// Zero disables the corresponding check.
type LimitsConfig struct {
	Content int // MAX_CONTENT
	Nick    int // MAX_NICK
	Mail    int // MAX_MAIL
	Site    int // MAX_SITE
}

// ModerationConfig defines how anonymous submissions are classified.
type ModerationConfig struct {
	AkismetKey     string   // AKISMET_KEY: empty disables the remote check
	SpamKeywords   []string // SPAM_KEYWORDS: CSV blocklist for the local check
	FallbackStatus string   // FALLBACK_STATUS: verdict when the checker fails
}

// OwnerConfig identifies the site owner. TokenSecret signs and verifies the
// privileged submission tokens; OwnerMail is both the identity-guard address
// and part of the push credential material.
type OwnerConfig struct {
	Mail        string // OWNER_MAIL
	Username    string // ADMIN_USERNAME
	Password    string // ADMIN_PASSWORD
	TokenSecret string // TOKEN_SECRET
}

// PushConfig defines the notification push endpoint and the mail settings
// forwarded to it. All mail fields must be set for dispatch to be enabled.
type PushConfig struct {
	URL           string        // PUSH_URL
	Wait          time.Duration // PUSH_WAIT: how long a submission waits on the push
	SMTPHost      string        // SMTP_HOST
	SMTPPort      string        // SMTP_PORT
	MailFrom      string        // MAIL_FROM
	MailAccept    string        // MAIL_ACCEPT
	MasterSubject string        // MAIL_SUBJECT_ADMIN
	ReplySubject  string        // MAIL_SUBJECT
}

// SubmitLimitConfig bounds submissions per client IP in a sliding window.
type SubmitLimitConfig struct {
	Limit  int           // SUBMIT_LIMIT: 0 disables
	Window time.Duration // SUBMIT_WINDOW
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// App
	DBPath  string // SQLite path
	SiteURL string // public site URL: Akismet blog value and push Origin

	Comments    CommentConfig
	Limits      LimitsConfig
	Moderation  ModerationConfig
	Owner       OwnerConfig
	Push        PushConfig
	SubmitLimit SubmitLimitConfig

	// Edge rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:  getenv("DB_PATH", "comments.db"),
		SiteURL: strings.TrimRight(getenv("SITE_URL", ""), "/"),

		Comments: CommentConfig{
			PageSize:  getint("COMMENT_PAGE_SIZE", 10),
			RecentMax: getint("RECENT_MAX", 10),
			Markdown:  getbool("MARKDOWN", true),
		},
		Limits: LimitsConfig{
			Content: getint("MAX_CONTENT", 0),
			Nick:    getint("MAX_NICK", 0),
			Mail:    getint("MAX_MAIL", 0),
			Site:    getint("MAX_SITE", 0),
		},
		Moderation: ModerationConfig{
			AkismetKey:     getenv("AKISMET_KEY", ""),
			SpamKeywords:   splitCSV(getenv("SPAM_KEYWORDS", "")),
			FallbackStatus: strings.ToLower(getenv("FALLBACK_STATUS", "waiting")),
		},
		Owner: OwnerConfig{
			Mail:        getenv("OWNER_MAIL", ""),
			Username:    getenv("ADMIN_USERNAME", ""),
			Password:    getenv("ADMIN_PASSWORD", ""),
			TokenSecret: getenv("TOKEN_SECRET", ""),
		},
		Push: PushConfig{
			URL:           getenv("PUSH_URL", ""),
			Wait:          getdur("PUSH_WAIT", 500*time.Millisecond),
			SMTPHost:      getenv("SMTP_HOST", ""),
			SMTPPort:      getenv("SMTP_PORT", ""),
			MailFrom:      getenv("MAIL_FROM", ""),
			MailAccept:    getenv("MAIL_ACCEPT", ""),
			MasterSubject: getenv("MAIL_SUBJECT_ADMIN", ""),
			ReplySubject:  getenv("MAIL_SUBJECT", ""),
		},
		SubmitLimit: SubmitLimitConfig{
			Limit:  getint("SUBMIT_LIMIT", 0),
			Window: getdur("SUBMIT_WINDOW", 10*time.Minute),
		},

		// Edge rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-comment-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Comments.PageSize < 1 {
		return cfg, errors.New("COMMENT_PAGE_SIZE must be >= 1")
	}
	if cfg.Comments.RecentMax < 1 {
		return cfg, errors.New("RECENT_MAX must be >= 1")
	}
	if cfg.Limits.Content < 0 || cfg.Limits.Nick < 0 || cfg.Limits.Mail < 0 || cfg.Limits.Site < 0 {
		return cfg, errors.New("field length limits must be >= 0")
	}
	switch cfg.Moderation.FallbackStatus {
	case "accept", "waiting", "spam":
	default:
		return cfg, errors.New("FALLBACK_STATUS must be one of: accept, waiting, spam")
	}
	if cfg.Moderation.AkismetKey != "" && cfg.SiteURL == "" {
		return cfg, errors.New("AKISMET_KEY requires SITE_URL")
	}
	if cfg.SubmitLimit.Limit < 0 {
		return cfg, errors.New("SUBMIT_LIMIT must be >= 0")
	}
	if cfg.SubmitLimit.Window <= 0 {
		return cfg, errors.New("SUBMIT_WINDOW must be > 0")
	}
	if cfg.Push.Wait <= 0 {
		return cfg, errors.New("PUSH_WAIT must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
