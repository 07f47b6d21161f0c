package bridge

import (
	"encoding/binary"
	"math"
)

// EncodeEmbeddings encodes float32 sequences of any length into one batch.
// The caller keeps len(embeddings) and must release the batch.
func EncodeEmbeddings(embeddings [][]float32) (*Batch, error) {
	size := 0
	for i, e := range embeddings {
		if uint64(len(e)) >= math.MaxUint32 {
			return nil, &EncodingError{Index: i, Field: "embedding", Reason: "too many dimensions"}
		}
		size += 4 + 4*len(e)
	}

	batch, err := newBatch(size)
	if err != nil {
		return nil, err
	}
	buf, _ := batch.bytes()
	off := 0
	for _, e := range embeddings {
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(e)))
		off += 4
		for _, v := range e {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
			off += 4
		}
	}
	return batch, nil
}

// DecodeEmbeddings reads n embeddings from batch with the same extent rules
// as DecodeMany. A zero dimension decodes to nil.
func DecodeEmbeddings(batch *Batch, n int) ([][]float32, error) {
	buf, err := batch.bytes()
	if err != nil {
		return nil, &DecodingError{Field: "batch", Reason: err.Error()}
	}
	if n < 0 {
		return nil, &DecodingError{Field: "length", Reason: "negative record count"}
	}
	r := reader{buf: buf}
	out := make([][]float32, 0, min(n, len(buf)/4+1))
	for i := 0; i < n; i++ {
		r.index = i
		dim := r.u32("dimension")
		if r.err != nil {
			return nil, r.err
		}
		if uint64(dim)*4 > uint64(len(buf)-r.off) {
			r.fail("embedding", "values extend past batch")
			return nil, r.err
		}
		var e []float32
		if dim > 0 {
			e = make([]float32, dim)
			for j := range e {
				e[j] = math.Float32frombits(r.u32("embedding"))
			}
		}
		out = append(out, e)
	}
	if r.off != len(buf) {
		return nil, &DecodingError{
			Record: n,
			Field:  "batch",
			Offset: r.off,
			Reason: "trailing bytes after declared records",
		}
	}
	return out, nil
}
