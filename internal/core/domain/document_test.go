package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentID_RoundTrip(t *testing.T) {
	id := NewDocumentID()
	assert.False(t, id.IsZero())

	parsed, err := ParseDocumentID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestDocumentID_ParseInvalid(t *testing.T) {
	_, err := ParseDocumentID("not-a-uuid")
	assert.Error(t, err)
}

func TestDocumentID_Zero(t *testing.T) {
	assert.True(t, DocumentID{}.IsZero())
	assert.True(t, StackID(uuid.Nil).IsZero())
}

func TestDocument_Historic(t *testing.T) {
	doc := Document{
		ID: NewDocumentID(),
		Resource: NewsResource{
			Title:   "Title",
			Snippet: "Snippet",
			URL:     "https://example.com/a",
		},
	}

	h := doc.Historic()
	assert.Equal(t, doc.ID, h.ID)
	assert.Equal(t, "Title", h.Title)
	assert.Equal(t, "Snippet", h.Snippet)
	assert.Equal(t, "https://example.com/a", h.URL)
}

func TestHistory(t *testing.T) {
	docs := []Document{{ID: NewDocumentID()}, {ID: NewDocumentID()}}
	history := History(docs)
	require.Len(t, history, 2)
	assert.Equal(t, docs[1].ID, history[1].ID)
}

func TestDocuments_KeepsEngineOrder(t *testing.T) {
	a, b := NewDocumentID(), NewDocumentID()
	ranked := []RankedDocument{{Document: Document{ID: b}}, {Document: Document{ID: a}}}

	docs := Documents(ranked)
	require.Len(t, docs, 2)
	assert.Equal(t, b, docs[0].ID)
	assert.Equal(t, a, docs[1].ID)
}

func TestParseUserReaction(t *testing.T) {
	tests := []struct {
		in   string
		want UserReaction
	}{
		{"neutral", Neutral},
		{"Positive", Positive},
		{" like ", Positive},
		{"negative", Negative},
		{"down", Negative},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUserReaction(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseUserReaction("meh")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUserReaction_String(t *testing.T) {
	assert.Equal(t, "positive", Positive.String())
	assert.True(t, Negative.IsValid())
	assert.False(t, UserReaction(7).IsValid())
	assert.Equal(t, "reaction(7)", UserReaction(7).String())
}

func TestActiveDocumentData_AddViewTime(t *testing.T) {
	data := ActiveDocumentData{Embedding: []float32{1, 2}}

	updated := data.AddViewTime(ViewReader, 3*time.Second)
	updated = updated.AddViewTime(ViewReader, 2*time.Second)
	updated = updated.AddViewTime(ViewWeb, time.Second)

	assert.Nil(t, data.ViewTime, "original must not be modified")
	assert.Equal(t, 5*time.Second, updated.ViewTime[ViewReader])
	assert.Equal(t, 6*time.Second, updated.TotalViewTime())
	assert.Equal(t, []float32{1, 2}, updated.Embedding)
}

func TestParseViewMode(t *testing.T) {
	mode, err := ParseViewMode("Reader")
	require.NoError(t, err)
	assert.Equal(t, ViewReader, mode)
	assert.Equal(t, "reader", mode.String())

	_, err = ParseViewMode("tv")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
