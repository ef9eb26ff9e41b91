package services

import "errors"

// Authorization-side errors. Each gets a distinct machine-readable reason
// because the authorizing party is a signed-in human who can act on it.
var (
	ErrInvalidClient    = errors.New("invalid client_id")
	ErrClientInactive   = errors.New("client is inactive")
	ErrMalformedCode    = errors.New("malformed user code")
	ErrCodeNotFound     = errors.New("invalid or expired code")
	ErrCodeExpired      = errors.New("code expired")
	ErrAlreadyFinalized = errors.New("code already finalized")
)

// Poll-side errors, mirroring OAuth device-flow reason strings. The polling
// client is untrusted, so consumed, expired and never-existed all collapse
// into ErrExpiredToken.
var (
	ErrAuthorizationPending = errors.New("authorization_pending")
	ErrSlowDown             = errors.New("slow_down")
	ErrExpiredToken         = errors.New("expired_token")
	ErrAccessDenied         = errors.New("access_denied")
)
