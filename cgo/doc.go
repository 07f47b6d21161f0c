// Package cgo provides CGO bindings for native memory used at the engine boundary.
// This package isolates all CGO code from the pure Go core.
//
// Sub-packages:
//   - ffi: native allocations backing document batches handed to the ranking engine
package cgo
