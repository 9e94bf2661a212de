// Package services implements the application layer of the comment backend.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer. They all describe conditions detected before any write, so a
// submission that fails with one of them has no stored side effects.
package services

import "errors"

var (
	// ErrMissingField is returned when a submission lacks one of the
	// required fields (nick, mail, content, ua, path).
	ErrMissingField = errors.New("missing required field")

	// ErrQuotaExceeded is returned when an anonymous submission exceeds a
	// configured per-field length maximum.
	ErrQuotaExceeded = errors.New("field exceeds configured length limit")

	// ErrIdentityConflict is returned when an anonymous submission uses the
	// site owner's mail address; posting as the owner requires a token.
	ErrIdentityConflict = errors.New("owner mail requires an authenticated token")

	// ErrRateLimited is returned when a client identifier has exceeded the
	// configured number of submissions inside the sliding window.
	ErrRateLimited = errors.New("too many submissions")
)
