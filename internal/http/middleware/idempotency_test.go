package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestIdempotencyValidator_NoHeaderPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	lookupCalled := false
	lookup := func(context.Context, string, string, string, time.Time) (bool, error) {
		lookupCalled = true
		return false, nil
	}
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/comments", func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Error("key must not be stashed when the header is missing")
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/comments", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if lookupCalled {
		t.Fatal("lookup must not run without a key")
	}
}

func TestIdempotencyValidator_RejectsInvalidKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{MaxLen: 5}, nil))
	r.POST("/comments", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, key := range []string{"toolongkey", "bad key!"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/comments", nil)
		req.Header.Set(HeaderIdempotencyKey, key)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("key %q: status = %d; want 400", key, w.Code)
		}
	}
}

func TestIdempotencyValidator_ReplayMarksBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var gotIP, gotPath, gotKey string
	lookup := func(_ context.Context, ip, path, key string, _ time.Time) (bool, error) {
		gotIP, gotPath, gotKey = ip, path, key
		return true, nil
	}
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/comments", func(c *gin.Context) {
		if !IsReplay(c) {
			t.Error("replay flag not set")
		}
		if !IsRateBypass(c) {
			t.Error("rate bypass flag not set")
		}
		if k, ok := GetIdempotencyKey(c); !ok || k != "key-1" {
			t.Errorf("stashed key = %q", k)
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/comments?path=/post/", nil)
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotPath != "/post/" || gotKey != "key-1" || gotIP == "" {
		t.Fatalf("lookup saw (%q, %q, %q)", gotIP, gotPath, gotKey)
	}
}

func TestIdempotencyHelpers_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatal("expected no key by default")
	}
	if IsReplay(c) || IsRateBypass(c) {
		t.Fatal("flags must default to false")
	}

	c.Set(ctxKeyIdemReplay, "yes") // wrong type must not panic
	if IsReplay(c) {
		t.Fatal("non-bool replay value must read as false")
	}
}
