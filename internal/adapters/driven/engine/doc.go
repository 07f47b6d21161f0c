// Package engine adapts the native ranking kernel to the driven.Engine port.
//
// Every call crosses the bridge: the kernel hands back document and embedding
// batches plus a count, the facade decodes them and releases both batches on
// every exit path. Calls are serialized because the kernel is not re-entrant.
package engine
