package gc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshuapare/vmheap/heap"
)

func TestObjectTable_FindInterior(t *testing.T) {
	tbl := newObjectTable(0x1000)
	a := &object{addr: 0x1000, size: 16}
	b := &object{addr: 0x1010, size: 1024}
	c := &object{addr: 0x2000, size: 8}
	for _, o := range []*object{a, b, c} {
		tbl.add(o)
	}

	tests := []struct {
		name string
		addr heap.Address
		want *object
	}{
		{"base of first", 0x1000, a},
		{"inside first", 0x100F, a},
		{"base of second", 0x1010, b},
		{"deep interior crosses bitmap words", 0x1010 + 1000, b},
		{"gap after second", 0x1410, nil},
		{"third", 0x2004, c},
		{"below table", 0x0800, nil},
		{"beyond bitmap", 0x900000, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, tbl.find(tt.addr))
		})
	}

	tbl.remove(b)
	assert.Nil(t, tbl.find(0x1010+8))
	assert.Same(t, a, tbl.find(0x1008))
	assert.Equal(t, 2, tbl.len())
}

func TestObjectTable_Next(t *testing.T) {
	tbl := newObjectTable(0x1000)
	a := &object{addr: 0x1008, size: 8}
	b := &object{addr: 0x1800, size: 8}
	tbl.add(a)
	tbl.add(b)

	assert.Same(t, a, tbl.next(0x1000, 0x2000))
	assert.Same(t, a, tbl.next(0x1008, 0x2000))
	assert.Same(t, b, tbl.next(0x1009, 0x2000), "unaligned addresses round up")
	assert.Nil(t, tbl.next(0x1009, 0x1800), "limit is exclusive")
	assert.Nil(t, tbl.next(0x1801, 0x10000))
	assert.Same(t, a, tbl.next(0, 0x2000), "addresses below the base clamp")
}
