package domain

import "errors"

// Sentinel errors for error discrimination at the route boundary.
// Services wrap these so handlers can map to HTTP status codes without
// leaking crypto or transport details to the browser.
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidSession     = errors.New("invalid session")
	ErrOTPSessionExpired  = errors.New("otp session expired")
	ErrOTPSessionInvalid  = errors.New("otp session invalid")
	ErrBackendUnavailable = errors.New("backend unavailable")
)
