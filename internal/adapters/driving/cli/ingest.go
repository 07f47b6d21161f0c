package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/feedsync/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Add candidate articles from a JSON file",
	Long: `Reads a JSON array of articles and hands them to the engine. Use "-" to
read from standard input. Markup is stripped from the text fields; articles
without a URL, malformed articles and known URLs are skipped.

Each article has the fields title, snippet, url, source_url, country,
language and optionally image, topic, rank and date_published (RFC 3339).`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := requireFeed(); err != nil {
		return err
	}

	articles, err := readArticles(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	accepted, err := feedService.Ingest(cmd.Context(), articles)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	cmd.Printf("Accepted %d of %d articles.\n", accepted, len(articles))
	return nil
}

func readArticles(stdin io.Reader, path string) ([]domain.Article, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open articles: %w", err)
		}
		defer f.Close()
		r = f
	}

	var articles []domain.Article
	if err := json.NewDecoder(r).Decode(&articles); err != nil {
		return nil, fmt.Errorf("%w: decode articles: %w", domain.ErrInvalidInput, err)
	}
	return articles, nil
}
