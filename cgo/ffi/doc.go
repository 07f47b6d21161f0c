// Package ffi owns the raw memory that crosses the ranking engine boundary.
//
// A Region is a single contiguous allocation. With CGO enabled it is obtained
// from the C allocator so the engine can hold it independently of the Go heap;
// without CGO it is a plain Go byte slice with the same lifetime rules.
//
// Every Region must be freed exactly once. Outstanding reports the number of
// live regions so callers and tests can detect leaks.
package ffi
