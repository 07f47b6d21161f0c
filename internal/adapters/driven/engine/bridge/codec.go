package bridge

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

const (
	fixedRecordSize = 16 + 16 + 4 + 8 + 8 + 4 + 8 + 1 + 1
	nullLength      = math.MaxUint32
)

// EncodeMany validates and encodes docs into one batch. The caller keeps
// len(docs) and must release the batch.
func EncodeMany(docs []domain.Document) (*Batch, error) {
	records := make([]Record, len(docs))
	size := 0
	for i := range docs {
		if err := validate(docs[i], i); err != nil {
			return nil, err
		}
		records[i] = FromDomain(docs[i])
		n, err := recordSize(&records[i], i)
		if err != nil {
			return nil, err
		}
		size += n
	}

	batch, err := newBatch(size)
	if err != nil {
		return nil, err
	}
	buf, _ := batch.bytes()
	w := writer{buf: buf}
	for i := range records {
		w.record(&records[i])
	}
	return batch, nil
}

// DecodeMany reads n records from batch. It fails with a *DecodingError when
// the batch holds fewer than n records, holds bytes beyond the n-th record,
// or holds malformed data. It never reads past the allocation.
func DecodeMany(batch *Batch, n int) ([]Record, error) {
	buf, err := batch.bytes()
	if err != nil {
		return nil, &DecodingError{Record: 0, Field: "batch", Reason: err.Error()}
	}
	if n < 0 {
		return nil, &DecodingError{Record: 0, Field: "length", Reason: "negative record count"}
	}
	r := reader{buf: buf}
	records := make([]Record, 0, min(n, len(buf)/fixedRecordSize+1))
	for i := 0; i < n; i++ {
		r.index = i
		rec := r.record()
		if r.err != nil {
			return nil, r.err
		}
		records = append(records, rec)
	}
	if r.off != len(buf) {
		return nil, &DecodingError{
			Record: n,
			Field:  "batch",
			Offset: r.off,
			Reason: "trailing bytes after declared records",
		}
	}
	return records, nil
}

// DecodeDocuments decodes n records and maps them to documents.
func DecodeDocuments(batch *Batch, n int) ([]domain.Document, error) {
	records, err := DecodeMany(batch, n)
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, len(records))
	for i := range records {
		docs[i] = ToDomain(records[i])
	}
	return docs, nil
}

func recordSize(rec *Record, index int) (int, error) {
	size := fixedRecordSize
	strs := []struct {
		field string
		value string
	}{
		{"title", rec.Title},
		{"snippet", rec.Snippet},
		{"url", rec.URL},
		{"source_url", rec.SourceURL},
		{"country", rec.Country},
		{"language", rec.Language},
		{"topic", rec.Topic},
	}
	if rec.Thumbnail != nil {
		strs = append(strs, struct {
			field string
			value string
		}{"thumbnail", *rec.Thumbnail})
	}
	for _, s := range strs {
		if uint64(len(s.value)) >= nullLength {
			return 0, &EncodingError{Index: index, Field: s.field, Reason: "string too long"}
		}
		if !utf8.ValidString(s.value) {
			return 0, &EncodingError{Index: index, Field: s.field, Reason: "invalid UTF-8"}
		}
		size += 4 + len(s.value)
	}
	if rec.Thumbnail == nil {
		size += 4
	}
	return size, nil
}

type writer struct {
	buf []byte
	off int
}

func (w *writer) bytes(b []byte) {
	w.off += copy(w.buf[w.off:], b)
}

func (w *writer) u8(v uint8) {
	w.buf[w.off] = v
	w.off++
}

func (w *writer) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *writer) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.off:], v)
	w.off += 8
}

func (w *writer) str(s string) {
	w.u32(uint32(len(s)))
	w.off += copy(w.buf[w.off:], s)
}

func (w *writer) record(rec *Record) {
	w.bytes(rec.ID[:])
	w.bytes(rec.StackID[:])
	w.u32(rec.BatchIndex)
	w.u64(uint64(rec.Timestamp))
	w.u64(uint64(rec.DatePublished))
	w.u32(rec.Rank)
	w.u64(math.Float64bits(rec.Score))
	if rec.IsActive {
		w.u8(1)
	} else {
		w.u8(0)
	}
	w.u8(rec.Reaction)
	w.str(rec.Title)
	w.str(rec.Snippet)
	w.str(rec.URL)
	w.str(rec.SourceURL)
	if rec.Thumbnail == nil {
		w.u32(nullLength)
	} else {
		w.str(*rec.Thumbnail)
	}
	w.str(rec.Country)
	w.str(rec.Language)
	w.str(rec.Topic)
}

type reader struct {
	buf   []byte
	off   int
	index int
	err   error
}

func (r *reader) fail(field, reason string) {
	if r.err == nil {
		r.err = &DecodingError{Record: r.index, Field: field, Offset: r.off, Reason: reason}
	}
}

func (r *reader) take(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.buf)-r.off < n {
		r.fail(field, "truncated data")
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8(field string) uint8 {
	b := r.take(1, field)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u32(field string) uint32 {
	b := r.take(4, field)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64(field string) uint64 {
	b := r.take(8, field)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) uuid(field string) [16]byte {
	var id [16]byte
	copy(id[:], r.take(16, field))
	return id
}

// nullableStr returns nil for the null marker. The bytes are copied so the
// result outlives the batch.
func (r *reader) nullableStr(field string) *string {
	n := r.u32(field)
	if r.err != nil || n == nullLength {
		return nil
	}
	if uint64(n) > uint64(len(r.buf)-r.off) {
		r.fail(field, "string extends past batch")
		return nil
	}
	b := r.take(int(n), field)
	if !utf8.Valid(b) {
		r.fail(field, "invalid UTF-8")
		return nil
	}
	s := string(b)
	return &s
}

func (r *reader) str(field string) string {
	start := r.off
	s := r.nullableStr(field)
	if r.err != nil {
		return ""
	}
	if s == nil {
		r.off = start
		r.fail(field, "unexpected null")
		return ""
	}
	return *s
}

func (r *reader) record() Record {
	var rec Record
	rec.ID = r.uuid("id")
	rec.StackID = r.uuid("stack_id")
	rec.BatchIndex = r.u32("batch_index")
	rec.Timestamp = int64(r.u64("timestamp"))
	rec.DatePublished = int64(r.u64("date_published"))
	rec.Rank = r.u32("rank")
	rec.Score = math.Float64frombits(r.u64("score"))
	switch active := r.u8("is_active"); active {
	case 0:
	case 1:
		rec.IsActive = true
	default:
		r.fail("is_active", "not a boolean")
	}
	rec.Reaction = r.u8("reaction")
	if r.err == nil && !domain.UserReaction(rec.Reaction).IsValid() {
		r.fail("reaction", "unknown reaction")
	}
	rec.Title = r.str("title")
	rec.Snippet = r.str("snippet")
	rec.URL = r.str("url")
	rec.SourceURL = r.str("source_url")
	rec.Thumbnail = r.nullableStr("thumbnail")
	rec.Country = r.str("country")
	rec.Language = r.str("language")
	rec.Topic = r.str("topic")
	return rec
}
