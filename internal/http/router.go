// Package httpapi wires the HTTP transport (Gin) to the comment service,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/mvasilak/go-comment-backend/internal/auth"
	"github.com/mvasilak/go-comment-backend/internal/config"
	"github.com/mvasilak/go-comment-backend/internal/format"
	"github.com/mvasilak/go-comment-backend/internal/http/handlers"
	"github.com/mvasilak/go-comment-backend/internal/http/middleware"
	"github.com/mvasilak/go-comment-backend/internal/notify"
	"github.com/mvasilak/go-comment-backend/internal/repo"
	"github.com/mvasilak/go-comment-backend/internal/services"
	"github.com/mvasilak/go-comment-backend/internal/spam"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine, then mounts the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression for listing payloads
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per client IP, bypass on replay)
//  10. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction (submissions carry visitor mail)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compression; comment pages can be sizable HTML fragments
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, clientIP, path, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, clientIP, path, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket edge limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: service ← config/db
	svc := buildCommentService(db, cfg)
	h := handlers.New(svc, cfg.IdempotencyTTL)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/comments", h.ListComments)
		api.GET("/comments/recent", h.RecentComments)
		api.POST("/comments/count", h.CountComments)
		api.POST("/comments", h.PostComment)
	}
}

// buildCommentService assembles the CommentService and its collaborators
// from configuration.
func buildCommentService(db *gorm.DB, cfg config.Config) *services.CommentService {
	var verifier auth.Verifier
	if cfg.Owner.TokenSecret != "" {
		verifier = auth.HMACVerifier{Secret: []byte(cfg.Owner.TokenSecret)}
	}

	var checker spam.Checker
	switch {
	case cfg.Moderation.AkismetKey != "":
		checker = &spam.AkismetChecker{Key: cfg.Moderation.AkismetKey, Blog: cfg.SiteURL}
	case len(cfg.Moderation.SpamKeywords) > 0:
		checker = spam.NewKeywordChecker(cfg.Moderation.SpamKeywords)
	default:
		checker = spam.Accept{}
	}

	var notifier *notify.Dispatcher
	if cfg.Push.URL != "" {
		notifier = &notify.Dispatcher{
			URL:       cfg.Push.URL,
			SiteURL:   cfg.SiteURL,
			Username:  cfg.Owner.Username,
			Password:  cfg.Owner.Password,
			OwnerMail: cfg.Owner.Mail,
			Wait:      cfg.Push.Wait,
			Mail: notify.MailSettings{
				Host:          cfg.Push.SMTPHost,
				Port:          cfg.Push.SMTPPort,
				From:          cfg.Push.MailFrom,
				Accept:        cfg.Push.MailAccept,
				MasterSubject: cfg.Push.MasterSubject,
				ReplySubject:  cfg.Push.ReplySubject,
			},
		}
	}

	return &services.CommentService{
		DB:        db,
		Verifier:  verifier,
		Checker:   checker,
		Limiter:   services.NewSlidingLimiter(cfg.SubmitLimit.Limit, cfg.SubmitLimit.Window),
		Notifier:  notifier,
		PageSize:  cfg.Comments.PageSize,
		RecentMax: cfg.Comments.RecentMax,
		Limits: services.WordLimits{
			Content: cfg.Limits.Content,
			Nick:    cfg.Limits.Nick,
			Mail:    cfg.Limits.Mail,
			Site:    cfg.Limits.Site,
		},
		OwnerMail:      cfg.Owner.Mail,
		FallbackStatus: cfg.Moderation.FallbackStatus,
		Display:        format.Options{Markdown: cfg.Comments.Markdown},
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; oversized bodies error on read downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
