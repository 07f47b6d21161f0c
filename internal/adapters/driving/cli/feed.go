package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/feedsync/internal/core/ports/driving"
)

var (
	feedJSON bool
	nextJSON bool
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the current feed",
	Long: `Shows the active documents of the feed in the order they were served.

Documents stay in the feed until they are closed.`,
	Args: cobra.NoArgs,
	RunE: runFeed,
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Fetch the next batch of documents",
	Long: `Asks the engine for a new batch of documents, stores it and prints it
in ranked order.`,
	Args: cobra.NoArgs,
	RunE: runNext,
}

var closeCmd = &cobra.Command{
	Use:   "close [doc-id...]",
	Short: "Remove documents from the feed",
	Long: `Closes documents so they no longer appear in the feed. Closed documents
are kept in history and never served again. Unknown ids are ignored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClose,
}

func init() {
	feedCmd.Flags().BoolVar(&feedJSON, "json", false, "output documents as JSON")
	nextCmd.Flags().BoolVar(&nextJSON, "json", false, "output documents as JSON")
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(closeCmd)
}

func runFeed(cmd *cobra.Command, _ []string) error {
	resp, err := expect[driving.FeedRequestSucceeded](cmd.Context(), driving.FeedRequested{})
	if err != nil {
		return fmt.Errorf("failed to restore feed: %w", err)
	}
	return outputDocuments(cmd, "Feed", resp.Items, feedJSON)
}

func runNext(cmd *cobra.Command, _ []string) error {
	resp, err := expect[driving.NextFeedBatchRequestSucceeded](cmd.Context(), driving.NextFeedBatchRequested{})
	if err != nil {
		return fmt.Errorf("failed to fetch next batch: %w", err)
	}
	return outputDocuments(cmd, "New documents", resp.Items, nextJSON)
}

func runClose(cmd *cobra.Command, args []string) error {
	ids, err := parseDocumentIDs(args)
	if err != nil {
		return err
	}
	if _, err := dispatch(cmd.Context(), driving.FeedDocumentsClosed{IDs: ids}); err != nil {
		return fmt.Errorf("failed to close documents: %w", err)
	}
	// The feed ignores ids it does not hold and reports no count back.
	cmd.Printf("Close requested for %d document(s); unknown IDs are ignored.\n", len(ids))
	return nil
}
