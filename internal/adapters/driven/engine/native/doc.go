// Package native is the reference ranking kernel that lives behind the engine
// boundary.
//
// The kernel plays the part of a native library: it keeps its own state,
// returns every document list as a bridge batch plus a count, and leaves
// decoding and release to the caller. It is not safe for concurrent use; the
// engine facade serializes calls.
//
// Ranking is deliberately simple. Articles are embedded by feature hashing of
// their case folded words; relevance is the cosine similarity to the centroid
// of positively rated documents minus the similarity to the negative centroid.
// Duplicate and malformed articles are filtered before ranking.
package native
