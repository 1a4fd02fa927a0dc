package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrSourceUnavailable: the game source failed or timed out. Transient.
	ErrSourceUnavailable = errors.New("game source unavailable")
	// ErrInconsistentReference: a row points at a missing parent. Skipped and counted.
	ErrInconsistentReference = errors.New("inconsistent reference")
	// ErrStoreWriteFailure: the store rejected a write; the day rolls back.
	ErrStoreWriteFailure = errors.New("store write failure")
	// ErrConcurrentPass: another sync pass holds the lock.
	ErrConcurrentPass = errors.New("sync pass already in flight")
)
