package domain

import "time"

// TimeSpent records how long the user looked at a document.
type TimeSpent struct {
	ID        DocumentID
	Embedding []float32
	ViewMode  ViewMode
	Duration  time.Duration
	Reaction  UserReaction
}

// UserReacted records an explicit reaction to a document.
type UserReacted struct {
	ID        DocumentID
	StackID   StackID
	Title     string
	Snippet   string
	Embedding []float32
	Reaction  UserReaction
}

// TrendingTopic is a topic the engine considers popular.
type TrendingTopic struct {
	Name  string
	Query string

	// Image is nil when the topic has no representative image.
	Image *string
}

// Article is candidate content handed to the engine by an upstream ingester.
type Article struct {
	Title         string    `json:"title"`
	Snippet       string    `json:"snippet"`
	URL           string    `json:"url"`
	SourceURL     string    `json:"source_url"`
	Image         string    `json:"image,omitempty"`
	DatePublished time.Time `json:"date_published"`
	Country       string    `json:"country"`
	Language      string    `json:"language"`
	Topic         string    `json:"topic,omitempty"`
	Rank          int       `json:"rank"`
}

// Market returns the market the article was published for.
func (a Article) Market() FeedMarket {
	return FeedMarket{Country: a.Country, Language: a.Language}
}
