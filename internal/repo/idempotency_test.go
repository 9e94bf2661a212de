package repo

import (
	"context"
	"testing"
	"time"
)

func TestIdempotency_RoundTrip(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec, err := CreateIdempotency(ctx, db, "203.0.113.9", "/p/", "key-1", "comment-1", 201, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.CommentID != "comment-1" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "203.0.113.9", "/p/", "key-1", now)
	if err != nil {
		t.Fatalf("GetIdempotency: %v", err)
	}
	if got.CommentID != "comment-1" || got.Status != 201 {
		t.Fatalf("unexpected lookup result: %+v", got)
	}
}

func TestIdempotency_Duplicate(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "ip", "/p/", "k", "c1", 201, time.Hour); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, "ip", "/p/", "k", "c2", 201, time.Hour); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestIdempotency_ExpiryAndMissing(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	if _, err := GetIdempotency(ctx, db, "ip", "/p/", "", time.Now()); err != ErrNotFound {
		t.Fatalf("blank key: expected ErrNotFound, got %v", err)
	}
	if _, err := GetIdempotency(ctx, db, "ip", "/p/", "nope", time.Now()); err != ErrNotFound {
		t.Fatalf("missing record: expected ErrNotFound, got %v", err)
	}

	if _, err := CreateIdempotency(ctx, db, "ip", "/p/", "short", "c1", 201, time.Millisecond); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Query as-of a time after expiry.
	later := time.Now().UTC().Add(time.Minute)
	if _, err := GetIdempotency(ctx, db, "ip", "/p/", "short", later); err != ErrNotFound {
		t.Fatalf("expired record: expected ErrNotFound, got %v", err)
	}
}
