package oddsapi

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrFetch = errors.New("odds fetch failed")
	// ErrMalformedResponse marks an event-discovery response that broke the
	// provider contract; it is fatal to the odds stage.
	ErrMalformedResponse = errors.New("odds discovery response malformed")
	ErrDecode            = errors.New("odds decode failed")
)
