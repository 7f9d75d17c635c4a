package heap

import "fmt"

// Address is a byte offset into the heap's address space. 0 is null.
type Address = uint32

// Null is the null-equivalent address written into cleared weak slots.
const Null Address = 0

// Kind selects how an allocation participates in collection.
type Kind uint8

const (
	// Ordinary objects may hold references and are reclaimed when unreachable.
	Ordinary Kind = iota
	// Atomic objects are pointer-free and are never scanned.
	Atomic
	// Uncollectable objects are scanned as roots and only freed explicitly.
	Uncollectable
)

func (k Kind) String() string {
	switch k {
	case Ordinary:
		return "ordinary"
	case Atomic:
		return "atomic"
	case Uncollectable:
		return "uncollectable"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Scanned reports whether objects of this kind may contain references.
func (k Kind) Scanned() bool {
	return k != Atomic
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k <= Uncollectable
}

// WriteTracker records byte ranges written through Memory's store helpers.
// The managed collector installs one while incremental marking is active.
type WriteTracker interface {
	// Add marks a byte range as dirty.
	Add(off, length int)
}
