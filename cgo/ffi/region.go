package ffi

import (
	"errors"
	"sync"
	"sync/atomic"
	"unsafe"
)

// ErrFreed is returned when a Region is used or freed after Free.
var ErrFreed = errors.New("ffi: region already freed")

var outstanding atomic.Int64

// Region is a contiguous allocation with an explicit lifetime.
type Region struct {
	mu    sync.Mutex
	base  unsafe.Pointer
	data  []byte
	freed bool
}

// Alloc reserves size bytes. A zero size still yields a Region that must be freed.
func Alloc(size int) (*Region, error) {
	if size < 0 {
		return nil, errors.New("ffi: negative allocation size")
	}
	base, data, err := allocate(size)
	if err != nil {
		return nil, err
	}
	outstanding.Add(1)
	return &Region{base: base, data: data}, nil
}

// Bytes returns the writable view of the region, or nil once freed.
func (r *Region) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.freed {
		return nil
	}
	return r.data
}

// Size returns the allocation size in bytes.
func (r *Region) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// Freed reports whether Free has been called.
func (r *Region) Freed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.freed
}

// Free releases the allocation. Calling it twice returns ErrFreed and does
// not touch the underlying memory again.
func (r *Region) Free() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.freed {
		return ErrFreed
	}
	release(r.base, r.data)
	r.base = nil
	r.data = nil
	r.freed = true
	outstanding.Add(-1)
	return nil
}

// Outstanding returns the number of regions allocated but not yet freed.
func Outstanding() int64 {
	return outstanding.Load()
}
