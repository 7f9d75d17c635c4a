package heap

import (
	"fmt"

	"github.com/joshuapare/vmheap/internal/buf"
	"github.com/joshuapare/vmheap/internal/format"
	"github.com/joshuapare/vmheap/internal/vmem"
)

// Memory is the heap's flat address space. It owns ReservedLowBytes plus the
// configured maximum heap, reserved once and never released.
type Memory struct {
	data []byte

	// claimed is the absolute offset of the first unclaimed byte. It only
	// ever advances.
	claimed uint64

	tracker WriteTracker
}

// NewMemory reserves an address space able to hold maxHeapBytes of objects.
func NewMemory(maxHeapBytes uint64) (*Memory, error) {
	if maxHeapBytes == 0 || maxHeapBytes > format.MaxAddressSpace-format.ReservedLowBytes {
		return nil, fmt.Errorf("%w: max heap %d", ErrInvalidConfig, maxHeapBytes)
	}
	data, err := vmem.Reserve(format.ReservedLowBytes + maxHeapBytes)
	if err != nil {
		return nil, err
	}
	return &Memory{
		data:    data,
		claimed: format.ReservedLowBytes,
	}, nil
}

// Base returns the first address that may be handed out.
func (m *Memory) Base() Address { return format.ReservedLowBytes }

// Limit returns the exclusive end of the address space.
func (m *Memory) Limit() uint64 { return uint64(len(m.data)) }

// Capacity returns the number of bytes available to backends.
func (m *Memory) Capacity() uint64 { return m.Limit() - format.ReservedLowBytes }

// Claimed returns how many bytes backends have claimed so far.
func (m *Memory) Claimed() uint64 { return m.claimed - format.ReservedLowBytes }

// Remaining returns the number of unclaimed bytes.
func (m *Memory) Remaining() uint64 { return m.Limit() - m.claimed }

// Bytes exposes the whole address space. Writes made through this slice
// bypass the write tracker; hosts that write object fields while an
// incremental collection is running must use the Store helpers or MarkDirty.
func (m *Memory) Bytes() []byte { return m.data }

// Claim reserves size bytes of fresh address space starting on an align
// boundary. Claimed space is never returned or reused.
func (m *Memory) Claim(size, align uint64) (Address, error) {
	if size == 0 {
		return 0, fmt.Errorf("%w: empty claim", ErrBadAddress)
	}
	if !format.IsPowerOfTwo(align) {
		return 0, fmt.Errorf("%w: claim alignment %d is not a power of two", ErrBadAddress, align)
	}
	start := format.AlignUp(m.claimed, align)
	end, err := buf.CheckRange(m.Limit(), start, size)
	if err != nil {
		return 0, fmt.Errorf("%w: claim %d bytes: %v", ErrOutOfMemory, size, err)
	}
	m.claimed = end
	return Address(start), nil
}

// Contains reports whether [addr, addr+n) lies inside claimed memory.
func (m *Memory) Contains(addr Address, n uint32) bool {
	if uint64(addr) < format.ReservedLowBytes {
		return false
	}
	_, err := buf.CheckRange(m.claimed, uint64(addr), uint64(n))
	return err == nil
}

// Slice returns the n bytes at addr.
func (m *Memory) Slice(addr Address, n uint32) ([]byte, error) {
	if !m.Contains(addr, n) {
		return nil, fmt.Errorf("%w: [%#x, +%d)", ErrBadAddress, addr, n)
	}
	return m.data[addr : uint64(addr)+uint64(n)], nil
}

// Zero clears n bytes at addr.
func (m *Memory) Zero(addr Address, n uint32) {
	clear(m.data[addr : uint64(addr)+uint64(n)])
}

// SetTracker installs (or with nil, removes) the tracker notified by stores.
func (m *Memory) SetTracker(t WriteTracker) { m.tracker = t }

// MarkDirty reports a write made directly through Bytes to the tracker.
func (m *Memory) MarkDirty(addr Address, n uint32) {
	if m.tracker != nil {
		m.tracker.Add(int(addr), int(n))
	}
}

func (m *Memory) checkAligned(addr Address, n uint32) error {
	if addr&format.WordMask != 0 || !m.Contains(addr, n) {
		return fmt.Errorf("%w: %d-byte access at %#x", ErrBadAddress, n, addr)
	}
	return nil
}

// Load32 reads the little-endian word at addr.
func (m *Memory) Load32(addr Address) (uint32, error) {
	if err := m.checkAligned(addr, format.WordSize); err != nil {
		return 0, err
	}
	return format.ReadU32(m.data, int(addr)), nil
}

// Store32 writes the little-endian word v at addr.
func (m *Memory) Store32(addr Address, v uint32) error {
	if err := m.checkAligned(addr, format.WordSize); err != nil {
		return err
	}
	format.PutU32(m.data, int(addr), v)
	m.MarkDirty(addr, format.WordSize)
	return nil
}

// Load64 reads the two-word value at addr (low word first).
func (m *Memory) Load64(addr Address) (int64, error) {
	if err := m.checkAligned(addr, format.LongSize); err != nil {
		return 0, err
	}
	return int64(format.ReadU64(m.data, int(addr))), nil
}

// Store64 writes v at addr as two words (low word first).
func (m *Memory) Store64(addr Address, v int64) error {
	if err := m.checkAligned(addr, format.LongSize); err != nil {
		return err
	}
	format.PutU64(m.data, int(addr), uint64(v))
	m.MarkDirty(addr, format.LongSize)
	return nil
}
