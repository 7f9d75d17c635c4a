package inspect

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/vmheap/heap"
)

// DecodeUTF16 decodes little-endian UTF-16 code units, the layout the VM uses
// for char[] payloads. Unpaired surrogates become U+FFFD.
func DecodeUTF16(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", fmt.Errorf("inspect: odd UTF-16 length %d", len(b))
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return "", fmt.Errorf("inspect: decode UTF-16: %w", err)
	}
	return string(out), nil
}

// ReadChars decodes n UTF-16 code units stored at addr.
func ReadChars(mem *heap.Memory, addr heap.Address, n uint32) (string, error) {
	b, err := mem.Slice(addr, 2*n)
	if err != nil {
		return "", err
	}
	return DecodeUTF16(b)
}
