package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

// documentView is the JSON form of a document.
type documentView struct {
	ID        string    `json:"id"`
	StackID   string    `json:"stack_id"`
	Rank      int       `json:"rank"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"`
	Snippet   string    `json:"snippet"`
	URL       string    `json:"url"`
	SourceURL string    `json:"source_url"`
	Thumbnail *string   `json:"thumbnail,omitempty"`
	Topic     string    `json:"topic,omitempty"`
	Market    string    `json:"market"`
	Score     float64   `json:"score"`
	Active    bool      `json:"active"`
	Reaction  string    `json:"reaction"`
}

func newDocumentView(doc *domain.Document) documentView {
	return documentView{
		ID:        doc.ID.String(),
		StackID:   doc.StackID.String(),
		Rank:      doc.PersonalizedRank(),
		CreatedAt: doc.Timestamp,
		Title:     doc.Resource.Title,
		Snippet:   doc.Resource.Snippet,
		URL:       doc.Resource.URL,
		SourceURL: doc.Resource.SourceURL,
		Thumbnail: doc.Resource.Thumbnail,
		Topic:     doc.Resource.Topic,
		Market:    domain.FeedMarket{Country: doc.Resource.Country, Language: doc.Resource.Language}.String(),
		Score:     doc.Resource.Score,
		Active:    doc.IsActive,
		Reaction:  doc.UserReaction.String(),
	}
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputDocuments(cmd *cobra.Command, heading string, docs []domain.Document, asJSON bool) error {
	if asJSON {
		views := make([]documentView, len(docs))
		for i := range docs {
			views[i] = newDocumentView(&docs[i])
		}
		return outputJSON(cmd, views)
	}

	if len(docs) == 0 {
		cmd.Println("No documents.")
		return nil
	}

	cmd.Printf("%s (%d):\n", heading, len(docs))
	cmd.Println()
	for i := range docs {
		doc := &docs[i]
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, doc.Resource.Title, doc.Resource.Score)
		cmd.Printf("      %s\n", doc.Resource.URL)
		if doc.Resource.Snippet != "" {
			cmd.Printf("      %s\n", doc.Resource.Snippet)
		}
		cmd.Printf("      ID: %s  Reaction: %s\n", doc.ID, doc.UserReaction)
		cmd.Println()
	}
	return nil
}

func parseDocumentIDs(args []string) ([]domain.DocumentID, error) {
	ids := make([]domain.DocumentID, 0, len(args))
	for _, arg := range args {
		id, err := domain.ParseDocumentID(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid document id %q", domain.ErrInvalidInput, arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
