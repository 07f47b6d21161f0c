// Package bridge converts documents to and from the flat layout used at the
// ranking engine boundary.
//
// A batch of records is one contiguous native allocation (see cgo/ffi). The
// record count is not stored in the bytes: whoever hands a batch across the
// boundary passes the count alongside it, and DecodeMany never reads past the
// allocation whatever count it is given.
//
// # Layout
//
// All integers are little endian. Each record is:
//
//	id            16 bytes
//	stack_id      16 bytes
//	batch_index   uint32
//	timestamp     int64  (Unix nanoseconds, MinInt64 for the zero time)
//	date_pub      int64  (same encoding)
//	rank          uint32
//	score         float64 bits
//	is_active     uint8
//	reaction      uint8
//	title, snippet, url, source_url, thumbnail, country, language, topic
//	              uint32 length + UTF-8 bytes; thumbnail length 0xFFFFFFFF is null
//
// Embedding batches hold, per entry, a uint32 dimension followed by that many
// float32 values.
//
// # Lifetime
//
// Every Batch must be released exactly once. Use hands a batch to a function
// and releases it on every exit path; prefer it to manual Release.
package bridge
