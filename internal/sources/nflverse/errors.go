package nflverse

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrFetch  = errors.New("play-by-play fetch failed")
	ErrDecode = errors.New("play-by-play decode failed")
)
