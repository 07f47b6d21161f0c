//go:build cgo

package ffi

/*
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"unsafe"
)

func allocate(size int) (unsafe.Pointer, []byte, error) {
	// malloc(0) may return NULL; always ask for at least one byte.
	n := size
	if n == 0 {
		n = 1
	}
	p := C.malloc(C.size_t(n))
	if p == nil {
		return nil, nil, errors.New("ffi: allocation failed")
	}
	return p, unsafe.Slice((*byte)(p), size), nil
}

func release(base unsafe.Pointer, _ []byte) {
	if base != nil {
		C.free(base)
	}
}
