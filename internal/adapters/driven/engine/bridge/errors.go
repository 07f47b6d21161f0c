package bridge

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// ErrBatchReleased is returned when a batch is used or released after Release.
var ErrBatchReleased = errors.New("bridge: batch already released")

// EncodingError reports a document field that cannot be represented.
type EncodingError struct {
	// Index is the position in the encoded slice, -1 for a single document.
	Index  int
	Field  string
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("bridge: encode %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("bridge: encode record %d %s: %s", e.Index, e.Field, e.Reason)
}

// Unwrap lets errors.Is match domain.ErrEncoding.
func (e *EncodingError) Unwrap() error {
	return domain.ErrEncoding
}

// DecodingError reports malformed or truncated batch data.
type DecodingError struct {
	Record int
	Field  string
	Offset int
	Reason string
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("bridge: decode record %d %s at offset %d: %s", e.Record, e.Field, e.Offset, e.Reason)
}

// Unwrap lets errors.Is match domain.ErrDecoding.
func (e *DecodingError) Unwrap() error {
	return domain.ErrDecoding
}
