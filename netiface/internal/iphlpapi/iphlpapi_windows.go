// Package iphlpapi manages the memory that IP Helper fills with adapter tables.
package iphlpapi

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const lmemFixed = 0x0000

// AllocTable allocates a fixed block of size bytes from the local heap.
func AllocTable(size uint32) (unsafe.Pointer, error) {
	p, err := windows.LocalAlloc(lmemFixed, size)
	if err != nil {
		return nil, err
	}
	return *(*unsafe.Pointer)(unsafe.Pointer(&p)), nil
}

// FreeTable releases a block returned by [AllocTable].
func FreeTable(p unsafe.Pointer) error {
	if _, err := windows.LocalFree(windows.Handle(uintptr(p))); err != nil {
		return err
	}
	return nil
}
