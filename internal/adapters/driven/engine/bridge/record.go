package bridge

import (
	"math"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// zeroTime marks the zero time.Time, which has no Unix nanosecond form.
const zeroTime = math.MinInt64

var (
	minTime = time.Unix(0, math.MinInt64+1).UTC()
	maxTime = time.Unix(0, math.MaxInt64).UTC()
)

// Record is the flat engine layout of a document.
type Record struct {
	ID            [16]byte
	StackID       [16]byte
	BatchIndex    uint32
	Timestamp     int64
	DatePublished int64
	Rank          uint32
	Score         float64
	IsActive      bool
	Reaction      uint8
	Title         string
	Snippet       string
	URL           string
	SourceURL     string

	// Thumbnail is nil for the null marker.
	Thumbnail *string

	Country  string
	Language string
	Topic    string
}

// EncodeOne validates doc and maps it to a Record.
func EncodeOne(doc domain.Document) (Record, error) {
	if err := validate(doc, -1); err != nil {
		return Record{}, err
	}
	return FromDomain(doc), nil
}

// FromDomain maps doc field by field without validation.
func FromDomain(doc domain.Document) Record {
	rec := Record{
		ID:            [16]byte(doc.ID),
		StackID:       [16]byte(doc.StackID),
		BatchIndex:    uint32(doc.BatchIndex),
		Timestamp:     toNanos(doc.Timestamp),
		DatePublished: toNanos(doc.Resource.DatePublished),
		Rank:          uint32(doc.Resource.Rank),
		Score:         doc.Resource.Score,
		IsActive:      doc.IsActive,
		Reaction:      uint8(doc.UserReaction),
		Title:         doc.Resource.Title,
		Snippet:       doc.Resource.Snippet,
		URL:           doc.Resource.URL,
		SourceURL:     doc.Resource.SourceURL,
		Country:       doc.Resource.Country,
		Language:      doc.Resource.Language,
		Topic:         doc.Resource.Topic,
	}
	if doc.Resource.Thumbnail != nil {
		thumb := *doc.Resource.Thumbnail
		rec.Thumbnail = &thumb
	}
	return rec
}

// ToDomain maps rec back to a document. Timestamps come back in UTC.
func ToDomain(rec Record) domain.Document {
	doc := domain.Document{
		ID:         domain.DocumentID(rec.ID),
		StackID:    domain.StackID(rec.StackID),
		BatchIndex: int(rec.BatchIndex),
		Timestamp:  fromNanos(rec.Timestamp),
		Resource: domain.NewsResource{
			Title:         rec.Title,
			Snippet:       rec.Snippet,
			URL:           rec.URL,
			SourceURL:     rec.SourceURL,
			DatePublished: fromNanos(rec.DatePublished),
			Rank:          int(rec.Rank),
			Score:         rec.Score,
			Country:       rec.Country,
			Language:      rec.Language,
			Topic:         rec.Topic,
		},
		IsActive:     rec.IsActive,
		UserReaction: domain.UserReaction(rec.Reaction),
	}
	if rec.Thumbnail != nil {
		thumb := *rec.Thumbnail
		doc.Resource.Thumbnail = &thumb
	}
	return doc
}

func validate(doc domain.Document, index int) error {
	fail := func(field, reason string) error {
		return &EncodingError{Index: index, Field: field, Reason: reason}
	}
	switch {
	case uuid.UUID(doc.ID) == uuid.Nil:
		return fail("id", "nil identifier")
	case uuid.UUID(doc.StackID) == uuid.Nil:
		return fail("stack_id", "nil identifier")
	case doc.BatchIndex < 0 || int64(doc.BatchIndex) > math.MaxUint32:
		return fail("batch_index", "out of uint32 range")
	case doc.Resource.Rank < 0 || int64(doc.Resource.Rank) > math.MaxUint32:
		return fail("rank", "out of uint32 range")
	case !doc.UserReaction.IsValid():
		return fail("reaction", "unknown reaction")
	case !representable(doc.Timestamp):
		return fail("timestamp", "outside Unix nanosecond range")
	case !representable(doc.Resource.DatePublished):
		return fail("date_published", "outside Unix nanosecond range")
	}
	if !absoluteURL(doc.Resource.URL) {
		return fail("url", "not an absolute URL")
	}
	if !absoluteURL(doc.Resource.SourceURL) {
		return fail("source_url", "not an absolute URL")
	}
	if doc.Resource.Thumbnail != nil && !absoluteURL(*doc.Resource.Thumbnail) {
		return fail("thumbnail", "not an absolute URL")
	}
	return nil
}

func absoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func representable(t time.Time) bool {
	return t.IsZero() || (!t.Before(minTime) && !t.After(maxTime))
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return zeroTime
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == zeroTime {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
