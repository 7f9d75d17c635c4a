package gc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vmheap/heap"
)

func TestLinks_WeakSlotDoesNotRetain(t *testing.T) {
	c := newTestCollector(t, nil)

	holder := mustAlloc(t, c, 8, heap.Uncollectable)
	target := mustAlloc(t, c, 16, heap.Ordinary)
	store(t, c, holder, target)
	require.NoError(t, c.RegisterDisappearingLink(holder, target))

	c.ForceCollection()

	assert.False(t, isLive(c, target), "a link alone does not keep its referent alive")
	assert.Equal(t, uint32(0), load(t, c, holder))
	assert.Zero(t, c.Stats().Links)
}

func TestLinks_Unregister(t *testing.T) {
	c := newTestCollector(t, nil)

	holder := mustAlloc(t, c, 8, heap.Uncollectable)
	target := mustAlloc(t, c, 16, heap.Ordinary)
	store(t, c, holder, target)
	require.NoError(t, c.RegisterDisappearingLink(holder, target))

	assert.True(t, c.UnregisterDisappearingLink(holder))
	assert.False(t, c.UnregisterDisappearingLink(holder), "idempotent")

	c.ForceCollection()
	assert.True(t, isLive(c, target), "after unregistering, the slot is a strong reference again")
	assert.Equal(t, target, load(t, c, holder))
}

func TestLinks_Reregistration(t *testing.T) {
	c := newTestCollector(t, nil)

	holder := mustAlloc(t, c, 16, heap.Uncollectable)
	first := mustAlloc(t, c, 8, heap.Ordinary)
	second := mustAlloc(t, c, 8, heap.Ordinary)
	store(t, c, holder+8, second) // keeps second alive

	require.NoError(t, c.RegisterDisappearingLink(holder, first))
	require.NoError(t, c.RegisterDisappearingLink(holder, second))
	store(t, c, holder, 0xABCD0)
	assert.Equal(t, 1, c.Stats().Links)

	c.ForceCollection()
	assert.Equal(t, uint32(0xABCD0), load(t, c, holder), "link now follows a live referent")
	assert.Equal(t, 1, c.Stats().Links)
}

func TestLinks_Validation(t *testing.T) {
	c := newTestCollector(t, nil)
	holder := mustAlloc(t, c, 16, heap.Uncollectable)
	target := mustAlloc(t, c, 16, heap.Ordinary)

	require.ErrorIs(t, c.RegisterDisappearingLink(holder+2, target), heap.ErrBadAddress)
	require.ErrorIs(t, c.RegisterDisappearingLink(0x10, target), heap.ErrBadAddress)
	require.ErrorIs(t, c.RegisterDisappearingLink(0xFFFFFFF0, target), heap.ErrBadAddress)
	require.ErrorIs(t, c.RegisterDisappearingLink(holder, target+8), heap.ErrNotHeapObject)
	require.ErrorIs(t, c.RegisterDisappearingLink(holder, 0), heap.ErrNotHeapObject)
}

// TestLinks_SlotInsideFreedObject checks that a slot inside an explicitly
// freed object is never written afterwards.
func TestLinks_SlotInsideFreedObject(t *testing.T) {
	c := newTestCollector(t, nil)

	keeper := mustAlloc(t, c, 8, heap.Uncollectable)
	box := mustAlloc(t, c, 16, heap.Uncollectable)
	target := mustAlloc(t, c, 8, heap.Ordinary)
	store(t, c, keeper, target)

	require.NoError(t, c.RegisterDisappearingLink(box+4, target))
	require.NoError(t, c.Free(box))
	assert.Zero(t, c.Stats().Links)

	// The freed memory now holds unrelated data.
	store(t, c, box+4, 0x7777)
	store(t, c, keeper, 0)
	c.ForceCollection()

	assert.False(t, isLive(c, target))
	assert.Equal(t, uint32(0x7777), load(t, c, box+4))
	assert.Zero(t, c.Stats().LinksCleared)
}

// TestLinks_SlotInsideReclaimedObject covers a link stored in an object
// reclaimed in the same cycle as its referent.
func TestLinks_SlotInsideReclaimedObject(t *testing.T) {
	c := newTestCollector(t, nil)

	box := mustAlloc(t, c, 16, heap.Ordinary)
	target := mustAlloc(t, c, 8, heap.Ordinary)
	store(t, c, box+4, target)
	require.NoError(t, c.RegisterDisappearingLink(box+4, target))

	c.ForceCollection()

	assert.False(t, isLive(c, box))
	assert.False(t, isLive(c, target))
	st := c.Stats()
	assert.Zero(t, st.Links)
	assert.Zero(t, st.LinksCleared, "slot in reclaimed memory is dropped, not written")
	assert.Equal(t, target, load(t, c, box+4))
}

func TestLinks_FreedReferentClearsSlot(t *testing.T) {
	c := newTestCollector(t, nil)

	holder := mustAlloc(t, c, 8, heap.Uncollectable)
	u := mustAlloc(t, c, 8, heap.Uncollectable)
	store(t, c, holder, u)
	require.NoError(t, c.RegisterDisappearingLink(holder, u))

	require.NoError(t, c.Free(u))
	assert.Equal(t, uint32(0), load(t, c, holder))
	assert.Zero(t, c.Stats().Links)
}

func TestLinks_ClearedBeforeFinalizerRuns(t *testing.T) {
	c := newTestCollector(t, nil)

	holder := mustAlloc(t, c, 8, heap.Uncollectable)
	obj := mustAlloc(t, c, 8, heap.Ordinary)
	store(t, c, holder, obj)
	require.NoError(t, c.RegisterDisappearingLink(holder, obj))

	var slotDuringFinalizer uint32 = 1
	require.NoError(t, c.RegisterFinalizer(obj, func(heap.Address, any) {
		slotDuringFinalizer = load(t, c, holder)
	}, nil))

	c.ForceCollection()
	assert.Equal(t, uint32(0), slotDuringFinalizer)
}
