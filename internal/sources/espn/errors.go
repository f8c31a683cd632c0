package espn

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrFetch  = errors.New("schedule source fetch failed")
	ErrDecode = errors.New("schedule source decode failed")
)
