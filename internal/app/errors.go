package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrSnapshotWrite marks a failure to persist the assembled document.
	ErrSnapshotWrite = errors.New("snapshot write failed")
)
