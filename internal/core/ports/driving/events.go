package driving

import (
	"errors"
	"time"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// ClientEvent is a request from the UI layer. The set of kinds is closed;
// every kind must have a handler.
type ClientEvent interface {
	clientEvent()
}

// FeedRequested asks for the feed restored from storage.
type FeedRequested struct{}

// NextFeedBatchRequested asks the engine for a new batch.
type NextFeedBatchRequested struct{}

// FeedDocumentsClosed deactivates documents dismissed by the user.
type FeedDocumentsClosed struct {
	IDs []domain.DocumentID
}

// UserReactionChanged records a reaction to a document.
type UserReactionChanged struct {
	ID       domain.DocumentID
	Reaction domain.UserReaction
}

// DocumentTimeSpent records dwell time on a document.
type DocumentTimeSpent struct {
	ID       domain.DocumentID
	Mode     domain.ViewMode
	Duration time.Duration
}

// SearchRequested runs a free text search.
type SearchRequested struct {
	Query    string
	Page     int
	PageSize int
}

// TopicSearchRequested searches documents on a topic.
type TopicSearchRequested struct {
	Topic    string
	Page     int
	PageSize int
}

// DeepSearchRequested searches related documents in one market.
type DeepSearchRequested struct {
	Term   string
	Market domain.FeedMarket
}

// TrendingTopicsRequested asks for the trending topics.
type TrendingTopicsRequested struct{}

// FeedMarketsChanged replaces the served markets.
type FeedMarketsChanged struct {
	Markets domain.FeedMarkets
}

// ExcludedSourcesChanged replaces the excluded sources.
type ExcludedSourcesChanged struct {
	Sources domain.Sources
}

// TrustedSourcesChanged replaces the trusted sources.
type TrustedSourcesChanged struct {
	Sources domain.Sources
}

// ResetAIRequested clears the engine's learned state.
type ResetAIRequested struct{}

func (FeedRequested) clientEvent()           {}
func (NextFeedBatchRequested) clientEvent()  {}
func (FeedDocumentsClosed) clientEvent()     {}
func (UserReactionChanged) clientEvent()     {}
func (DocumentTimeSpent) clientEvent()       {}
func (SearchRequested) clientEvent()         {}
func (TopicSearchRequested) clientEvent()    {}
func (DeepSearchRequested) clientEvent()     {}
func (TrendingTopicsRequested) clientEvent() {}
func (FeedMarketsChanged) clientEvent()      {}
func (ExcludedSourcesChanged) clientEvent()  {}
func (TrustedSourcesChanged) clientEvent()   {}
func (ResetAIRequested) clientEvent()        {}

// EngineEvent is the response to a ClientEvent.
type EngineEvent interface {
	engineEvent()
}

// FailureReason classifies a failed request.
type FailureReason string

// Failure reasons.
const (
	ReasonEngine          FailureReason = "engine"
	ReasonStore           FailureReason = "store"
	ReasonInvalidInput    FailureReason = "invalid_input"
	ReasonUnknownDocument FailureReason = "unknown_document"
	ReasonBridge          FailureReason = "bridge"
	ReasonUnknown         FailureReason = "unknown"
)

// ReasonOf classifies err.
func ReasonOf(err error) FailureReason {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrUnknownDocument):
		return ReasonUnknownDocument
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidMarket):
		return ReasonInvalidInput
	case errors.Is(err, domain.ErrEncoding), errors.Is(err, domain.ErrDecoding):
		return ReasonBridge
	case errors.Is(err, domain.ErrStore), errors.Is(err, domain.ErrNotFound):
		return ReasonStore
	case errors.Is(err, domain.ErrEngine), errors.Is(err, domain.ErrEngineDisposed):
		return ReasonEngine
	default:
		return ReasonUnknown
	}
}

// FeedRequestSucceeded carries the restored feed.
type FeedRequestSucceeded struct {
	Items []domain.Document
}

// FeedRequestFailed reports a failed feed restore.
type FeedRequestFailed struct {
	Reason FailureReason
	Err    error
}

// NextFeedBatchRequestSucceeded carries a new batch in engine order.
type NextFeedBatchRequestSucceeded struct {
	Items []domain.Document
}

// NextFeedBatchRequestFailed reports a failed batch.
type NextFeedBatchRequestFailed struct {
	Reason FailureReason
	Err    error
}

// DocumentsUpdated carries documents whose state changed.
type DocumentsUpdated struct {
	Items []domain.Document
}

// SearchRequestSucceeded carries search results in engine order.
type SearchRequestSucceeded struct {
	Items []domain.Document
}

// SearchRequestFailed reports a failed search.
type SearchRequestFailed struct {
	Reason FailureReason
	Err    error
}

// TrendingTopicsRequestSucceeded carries the trending topics.
type TrendingTopicsRequestSucceeded struct {
	Topics []domain.TrendingTopic
}

// ResetAISucceeded acknowledges ResetAIRequested.
type ResetAISucceeded struct{}

// ClientEventSucceeded is the generic acknowledgement.
type ClientEventSucceeded struct{}

// EngineExceptionRaised reports a failure for requests without a dedicated
// failure event.
type EngineExceptionRaised struct {
	Reason FailureReason
	Err    error
}

func (FeedRequestSucceeded) engineEvent()           {}
func (FeedRequestFailed) engineEvent()              {}
func (NextFeedBatchRequestSucceeded) engineEvent()  {}
func (NextFeedBatchRequestFailed) engineEvent()     {}
func (DocumentsUpdated) engineEvent()               {}
func (SearchRequestSucceeded) engineEvent()         {}
func (SearchRequestFailed) engineEvent()            {}
func (TrendingTopicsRequestSucceeded) engineEvent() {}
func (ResetAISucceeded) engineEvent()               {}
func (ClientEventSucceeded) engineEvent()           {}
func (EngineExceptionRaised) engineEvent()          {}
