package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrNoSnapshot           = errors.New("no snapshot produced yet")
	ErrProxyNotConfigured   = errors.New("insights proxy not configured")
	ErrRefreshNotConfigured = errors.New("refresh queue not configured")
	ErrRefreshUnavailable   = errors.New("refresh queue unavailable")
)
