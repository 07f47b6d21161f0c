package bridge

import (
	"errors"

	"github.com/custodia-labs/feedsync/cgo/ffi"
)

// Batch is a handle to an encoded allocation. It does not know how many
// records it holds.
type Batch struct {
	region *ffi.Region
}

func newBatch(size int) (*Batch, error) {
	region, err := ffi.Alloc(size)
	if err != nil {
		return nil, err
	}
	return &Batch{region: region}, nil
}

// Size returns the extent of the allocation in bytes.
func (b *Batch) Size() int {
	return b.region.Size()
}

// Released reports whether Release has been called.
func (b *Batch) Released() bool {
	return b.region.Freed()
}

// Release frees the allocation. A second call returns ErrBatchReleased and
// frees nothing.
func (b *Batch) Release() error {
	if err := b.region.Free(); err != nil {
		if errors.Is(err, ffi.ErrFreed) {
			return ErrBatchReleased
		}
		return err
	}
	return nil
}

func (b *Batch) bytes() ([]byte, error) {
	if b == nil || b.region.Freed() {
		return nil, ErrBatchReleased
	}
	return b.region.Bytes(), nil
}

// Use calls fn with batch and releases the batch whatever fn returns. A
// failed release is reported only when fn succeeded.
func Use(batch *Batch, fn func(batch *Batch) error) (err error) {
	defer func() {
		if rerr := batch.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn(batch)
}
