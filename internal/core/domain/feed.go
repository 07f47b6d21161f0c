package domain

import (
	"bytes"
	"cmp"
	"slices"
)

// CompareFeedOrder is the total order of a restored feed: creation time
// ascending, then personalized rank ascending, then score descending, then
// document ID. Only a document compares equal to itself.
func CompareFeedOrder(a, b Document) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	if c := cmp.Compare(a.PersonalizedRank(), b.PersonalizedRank()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Resource.Score, a.Resource.Score); c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

// ActiveFeed keeps the active documents and sorts them by CompareFeedOrder.
// The input is not modified.
func ActiveFeed(docs []Document) []Document {
	feed := make([]Document, 0, len(docs))
	for i := range docs {
		if docs[i].IsActive {
			feed = append(feed, docs[i])
		}
	}
	slices.SortFunc(feed, CompareFeedOrder)
	return feed
}
