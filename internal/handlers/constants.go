package handlers

import "time"

const (
	SessionCookieName      = "session_id"
	ChildSessionCookieName = "child_session_id"
	CSRFHeaderName         = "X-CSRF-Token"

	oauthCookieTTL = 10 * time.Minute

	ErrInvalidJSON         = "Invalid JSON body"
	ErrInvalidID           = "Invalid id"
	ErrUnauthorized        = "Unauthorized"
	ErrInvalidCSRF         = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests, try again later"
	ErrInternalServerError = "Internal server error"
)
