//go:build windows && amd64

package execmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const pageSize = 0x1000

func load(code []byte) (uintptr, error) {
	size := roundToPage(len(code), pageSize)

	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_EXECUTE_READWRITE)
	if addr == 0 {
		return 0, fmt.Errorf("%w: VirtualAlloc %d bytes: %v", ErrAllocation, size, err)
	}

	copy(unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), code)
	return addr, nil
}
