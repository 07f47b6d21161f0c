package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driving"
)

var (
	searchPage     int
	searchPageSize int
	searchJSON     bool
	deepMarket     string
	trendingJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for documents",
	Long: `Searches the engine's articles for the query. Results are stored but do
not enter the feed.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var topicCmd = &cobra.Command{
	Use:   "topic [topic]",
	Short: "Search documents on a topic",
	Long:  `Lists the newest articles on a topic, e.g. one returned by "feedsync trending".`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTopic,
}

var deepSearchCmd = &cobra.Command{
	Use:   "deep-search [term]",
	Short: "Find documents related to a term",
	Long: `Finds articles related to the term within one market. Results are shown
but not stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeepSearch,
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show trending topics",
	Args:  cobra.NoArgs,
	RunE:  runTrending,
}

func init() {
	for _, cmd := range []*cobra.Command{searchCmd, topicCmd} {
		cmd.Flags().IntVarP(&searchPage, "page", "p", 1, "result page, starting at 1")
		cmd.Flags().IntVarP(&searchPageSize, "page-size", "n", 0, "results per page (0 uses the configured default)")
	}
	for _, cmd := range []*cobra.Command{searchCmd, topicCmd, deepSearchCmd} {
		cmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	}
	deepSearchCmd.Flags().StringVarP(&deepMarket, "market", "m", domain.DefaultMarket, "market as language-COUNTRY")
	trendingCmd.Flags().BoolVar(&trendingJSON, "json", false, "output topics as JSON")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(topicCmd)
	rootCmd.AddCommand(deepSearchCmd)
	rootCmd.AddCommand(trendingCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	event := driving.SearchRequested{Query: args[0], Page: searchPage, PageSize: searchPageSize}
	return runSearchEvent(cmd, event)
}

func runTopic(cmd *cobra.Command, args []string) error {
	event := driving.TopicSearchRequested{Topic: args[0], Page: searchPage, PageSize: searchPageSize}
	return runSearchEvent(cmd, event)
}

func runDeepSearch(cmd *cobra.Command, args []string) error {
	market, err := domain.ParseFeedMarket(deepMarket)
	if err != nil {
		return err
	}
	return runSearchEvent(cmd, driving.DeepSearchRequested{Term: args[0], Market: market})
}

func runSearchEvent(cmd *cobra.Command, event driving.ClientEvent) error {
	resp, err := expect[driving.SearchRequestSucceeded](cmd.Context(), event)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if !searchJSON && len(resp.Items) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	return outputDocuments(cmd, "Results", resp.Items, searchJSON)
}

// topicView is the JSON form of a trending topic.
type topicView struct {
	Name  string  `json:"name"`
	Query string  `json:"query"`
	Image *string `json:"image,omitempty"`
}

func runTrending(cmd *cobra.Command, _ []string) error {
	resp, err := expect[driving.TrendingTopicsRequestSucceeded](cmd.Context(), driving.TrendingTopicsRequested{})
	if err != nil {
		return fmt.Errorf("failed to get trending topics: %w", err)
	}

	if trendingJSON {
		views := make([]topicView, len(resp.Topics))
		for i, t := range resp.Topics {
			views[i] = topicView(t)
		}
		return outputJSON(cmd, views)
	}

	if len(resp.Topics) == 0 {
		cmd.Println("No trending topics.")
		return nil
	}
	cmd.Println("Trending topics:")
	for i, t := range resp.Topics {
		cmd.Printf("  %d. %s\n", i+1, t.Name)
	}
	return nil
}
