package heap

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory indicates that a request could not be satisfied within MaxHeapBytes.
	ErrOutOfMemory = errors.New("heap: out of memory")

	// ErrUnsupportedFree indicates an explicit free of memory the backend does not free explicitly.
	ErrUnsupportedFree = errors.New("heap: free not supported for this address or backend")

	// ErrNotHeapObject indicates an address that is not the base of a live object.
	ErrNotHeapObject = errors.New("heap: address is not a live object")

	// ErrUnsupported indicates a lifecycle or collection operation the active backend lacks.
	ErrUnsupported = errors.New("heap: operation not supported by backend")

	// ErrBadAddress indicates an out-of-bounds or misaligned memory access.
	ErrBadAddress = errors.New("heap: bad address")

	// ErrBadKind indicates an allocation kind outside Ordinary/Atomic/Uncollectable.
	ErrBadKind = errors.New("heap: unknown allocation kind")

	// ErrInvalidConfig indicates a configuration that failed validation.
	ErrInvalidConfig = errors.New("heap: invalid config")
)

// FatalError is the panic value raised when the host ABI aborts on exhaustion.
// The ABI has no channel to report out-of-memory back to the VM, so the
// process is expected to die with this value.
type FatalError struct {
	Op   string
	Size uint32
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("heap: fatal: %s(%d): %v", e.Op, e.Size, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
