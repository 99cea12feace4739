//go:build unix && amd64

package execmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

func load(code []byte) (uintptr, error) {
	size := roundToPage(len(code), unix.Getpagesize())

	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return 0, fmt.Errorf("%w: mmap %d bytes: %v", ErrAllocation, size, err)
	}

	copy(mem, code)

	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(mem)
		return 0, fmt.Errorf("%w: mprotect: %v", ErrAllocation, err)
	}

	return uintptr(unsafe.Pointer(&mem[0])), nil
}
