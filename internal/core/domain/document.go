package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentID uniquely identifies a document for its whole life.
type DocumentID uuid.UUID

// NewDocumentID returns a random document identifier.
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New())
}

// ParseDocumentID parses the canonical UUID text form.
func ParseDocumentID(s string) (DocumentID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return DocumentID{}, err
	}
	return DocumentID(id), nil
}

// String returns the canonical UUID text form.
func (id DocumentID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the nil UUID.
func (id DocumentID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// StackID identifies the batch or category a document was produced under.
type StackID uuid.UUID

// ParseStackID parses the canonical UUID text form.
func ParseStackID(s string) (StackID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return StackID{}, err
	}
	return StackID(id), nil
}

// String returns the canonical UUID text form.
func (id StackID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the nil UUID.
func (id StackID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// Document is a ranked document as stored locally.
// Only IsActive and UserReaction change after creation.
type Document struct {
	// ID is the immutable identifier.
	ID DocumentID

	// StackID links the document to the batch/category that produced it.
	StackID StackID

	// BatchIndex is the position within the originally ranked batch.
	BatchIndex int

	// Timestamp is when the document was created, in UTC.
	Timestamp time.Time

	// Resource is the content payload.
	Resource NewsResource

	// IsActive is true while the document may appear in the feed.
	IsActive bool

	// UserReaction is the user's latest reaction.
	UserReaction UserReaction
}

// PersonalizedRank is the tie-breaking order key within a batch.
// Lower ranks come first.
func (d Document) PersonalizedRank() int {
	return d.BatchIndex
}

// Historic projects the document into the form handed to the engine as context.
func (d Document) Historic() HistoricDocument {
	return HistoricDocument{
		ID:      d.ID,
		URL:     d.Resource.URL,
		Snippet: d.Resource.Snippet,
		Title:   d.Resource.Title,
	}
}

// NewsResource is the content payload of a document.
type NewsResource struct {
	Title     string
	Snippet   string
	URL       string
	SourceURL string

	// Thumbnail is nil when the resource has no image.
	Thumbnail *string

	DatePublished time.Time

	// Rank is the position assigned by the content provider.
	Rank int

	// Score is the relevance score computed by the engine.
	Score float64

	Country  string
	Language string
	Topic    string
}

// HistoricDocument is the read-only view of a past document given to the engine.
type HistoricDocument struct {
	ID      DocumentID
	URL     string
	Snippet string
	Title   string
}

// History builds the engine history for a set of documents.
func History(docs []Document) []HistoricDocument {
	history := make([]HistoricDocument, 0, len(docs))
	for i := range docs {
		history = append(history, docs[i].Historic())
	}
	return history
}

// RankedDocument pairs a newly ranked document with its engine side data.
type RankedDocument struct {
	Document Document
	Data     ActiveDocumentData
}

// Documents returns the documents of a ranked batch in engine order.
func Documents(ranked []RankedDocument) []Document {
	docs := make([]Document, 0, len(ranked))
	for i := range ranked {
		docs = append(docs, ranked[i].Document)
	}
	return docs
}
