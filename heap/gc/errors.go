package gc

import "errors"

var (
	// ErrNilFinalizer indicates a finalizer registration without a callback.
	ErrNilFinalizer = errors.New("gc: nil finalizer")

	// ErrFinalizerRunning indicates a registration for an object whose
	// finalizer has already started.
	ErrFinalizerRunning = errors.New("gc: finalizer already running")

	// ErrBadRootRange indicates an empty or out-of-bounds root range.
	ErrBadRootRange = errors.New("gc: bad root range")
)
