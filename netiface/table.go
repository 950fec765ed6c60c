package netiface

import (
	"errors"
	"fmt"
	"unsafe"
)

const (
	// initialTableSize is the first buffer size guess.
	// The Win32 API docs recommend 15 KB.
	initialTableSize = 15000

	// maxTableAttempts caps the size-probe/retry loop.
	maxTableAttempts = 8
)

// errTableTooSmall is returned by a [tableProbe] when the buffer cannot
// hold the table. The probe stores the required size before returning it.
var errTableTooSmall = errors.New("adapter table buffer too small")

// tableBuffer is a block of memory the operating system fills with the
// adapter table.
type tableBuffer struct {
	ptr  unsafe.Pointer
	size uint32
}

// tableAllocator hands out and takes back table buffers.
type tableAllocator interface {
	alloc(size uint32) (tableBuffer, error)
	free(buf tableBuffer)
}

// tableProbe asks the operating system to fill buf.
//
// On overflow it stores the required size in *size and returns [errTableTooSmall].
type tableProbe func(buf tableBuffer, size *uint32) error

// adapterTable owns a populated table buffer.
// It must be closed exactly once, by the caller of [readTable].
type adapterTable struct {
	buf       tableBuffer
	allocator tableAllocator
}

// head returns the start of the table.
func (t *adapterTable) head() unsafe.Pointer {
	return t.buf.ptr
}

// contains reports whether the n bytes at p lie within the table buffer.
func (t *adapterTable) contains(p unsafe.Pointer, n uintptr) bool {
	if p == nil || t.buf.ptr == nil {
		return false
	}
	base := uintptr(t.buf.ptr)
	addr := uintptr(p)
	end := addr + n
	return addr >= base && end >= addr && end <= base+uintptr(t.buf.size)
}

// Close releases the table buffer. Subsequent calls are no-ops.
func (t *adapterTable) Close() {
	if t.buf.ptr == nil {
		return
	}
	t.allocator.free(t.buf)
	t.buf = tableBuffer{}
}

// readTable runs the size-probe/retry protocol.
//
// Every buffer allocated along the way is freed before returning, except
// the one owned by the returned table.
func readTable(allocator tableAllocator, probe tableProbe, size uint32) (*adapterTable, error) {
	for range maxTableAttempts {
		buf, err := allocator.alloc(size)
		if err != nil {
			return nil, fmt.Errorf("%w of %d bytes: %w", ErrTableAlloc, size, err)
		}

		err = probe(buf, &size)
		switch {
		case err == nil:
			return &adapterTable{buf: buf, allocator: allocator}, nil
		case errors.Is(err, errTableTooSmall):
			allocator.free(buf)
		default:
			allocator.free(buf)
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w after %d attempts (last requested size %d bytes)", ErrTableSizeUnstable, maxTableAttempts, size)
}
