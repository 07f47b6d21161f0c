//go:build !cgo

package ffi

import "unsafe"

func allocate(size int) (unsafe.Pointer, []byte, error) {
	return nil, make([]byte, size), nil
}

func release(_ unsafe.Pointer, _ []byte) {}
