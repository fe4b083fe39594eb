package storage

import "errors"

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrInvalidCID  = errors.New("storage: invalid cid")
	ErrCIDMismatch = errors.New("storage: cid mismatch")
	ErrImmutable   = errors.New("storage: immutable object mismatch")

	// ErrUnverified is returned by verifying stores when an envelope fails
	// signature or hash verification and is refused.
	ErrUnverified = errors.New("storage: envelope failed verification")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsUnverified(err error) bool { return errors.Is(err, ErrUnverified) }
