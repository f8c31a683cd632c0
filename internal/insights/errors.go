package insights

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrUpstream marks a transport-level failure talking to the completion API.
	ErrUpstream = errors.New("completion upstream request failed")
	// ErrRateLimited marks exhaustion of the retry budget on 429 answers.
	ErrRateLimited = errors.New("completion upstream rate limited")
)
