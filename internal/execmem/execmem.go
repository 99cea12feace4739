// Package execmem copies machine code into memory the processor may execute.
//
// Regions are never released: a Block stays valid for the rest of the
// process, which is what callers holding bindings to it rely on.
package execmem

import (
	"errors"
	"unsafe"
)

var (
	// ErrEmptyCode is returned by Load for a zero-length fragment.
	ErrEmptyCode = errors.New("no code to load")
	// ErrAllocation wraps a failure to map or protect a region.
	ErrAllocation = errors.New("executable memory allocation failed")
	// ErrUnsupportedPlatform is returned where executable regions cannot be created.
	ErrUnsupportedPlatform = errors.New("executable memory is not supported on this platform")
)

// Block is a loaded code region.
type Block struct {
	Addr uintptr
	Len  int
}

// Bytes returns the loaded code. The slice must not be written to.
func (b Block) Bytes() []byte {
	if b.Addr == 0 || b.Len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(b.Addr)), b.Len)
}

// Load copies code into a new executable region.
func Load(code []byte) (Block, error) {
	if len(code) == 0 {
		return Block{}, ErrEmptyCode
	}
	addr, err := load(code)
	if err != nil {
		return Block{}, err
	}
	return Block{Addr: addr, Len: len(code)}, nil
}

func roundToPage(size, pageSize int) int {
	return ((size + pageSize - 1) / pageSize) * pageSize
}
