package session

import (
	"errors"
	"fmt"
)

var (
	// ErrLockHeld means another session holds the lock and no override was requested
	ErrLockHeld = errors.New("catalog is locked")
	// ErrCorruptState means the catalog document exists but does not parse
	ErrCorruptState = errors.New("catalog state is corrupt")
	// ErrStoreUnavailable wraps any store failure other than a missing key
	ErrStoreUnavailable = errors.New("object store unavailable")
	// ErrReleaseFailed means the lock record could not be deleted after the session
	ErrReleaseFailed = errors.New("failed to release lock")
)

// LockHeldError reports who holds the lock. Holder is zero when the lock
// record exists but could not be read.
type LockHeldError struct {
	Holder LockRecord
}

func (e *LockHeldError) Error() string {
	if e.Holder.User == "" && e.Holder.Hostname == "" {
		return fmt.Sprintf("%s by an unreadable lock record", ErrLockHeld)
	}
	return fmt.Sprintf("%s by %s", ErrLockHeld, e.Holder)
}

func (e *LockHeldError) Unwrap() error {
	return ErrLockHeld
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
