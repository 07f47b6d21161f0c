package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driving"
)

var dwellMode string

var reactCmd = &cobra.Command{
	Use:   "react [doc-id] [reaction]",
	Short: "React to a document",
	Long: `Records your reaction to a document. The engine learns from it.

Reactions:
  positive (like, up)
  negative (dislike, down)
  neutral  (none)`,
	Args: cobra.ExactArgs(2),
	RunE: runReact,
}

var dwellCmd = &cobra.Command{
	Use:   "dwell [doc-id] [duration]",
	Short: "Record time spent reading a document",
	Long: `Records how long a document was read, e.g. "feedsync dwell <id> 45s".
Long enough reads count as interest.`,
	Args: cobra.ExactArgs(2),
	RunE: runDwell,
}

func init() {
	dwellCmd.Flags().StringVar(&dwellMode, "mode", domain.ViewStory.String(), "view mode: story, reader or web")
	rootCmd.AddCommand(reactCmd)
	rootCmd.AddCommand(dwellCmd)
}

func runReact(cmd *cobra.Command, args []string) error {
	ids, err := parseDocumentIDs(args[:1])
	if err != nil {
		return err
	}
	reaction, err := domain.ParseUserReaction(args[1])
	if err != nil {
		return err
	}

	resp, err := expect[driving.DocumentsUpdated](cmd.Context(), driving.UserReactionChanged{ID: ids[0], Reaction: reaction})
	if err != nil {
		return fmt.Errorf("failed to record reaction: %w", err)
	}
	for i := range resp.Items {
		cmd.Printf("%s: %s\n", resp.Items[i].Resource.Title, resp.Items[i].UserReaction)
	}
	return nil
}

func runDwell(cmd *cobra.Command, args []string) error {
	ids, err := parseDocumentIDs(args[:1])
	if err != nil {
		return err
	}
	d, err := time.ParseDuration(args[1])
	if err != nil {
		return fmt.Errorf("%w: invalid duration %q", domain.ErrInvalidInput, args[1])
	}
	mode, err := domain.ParseViewMode(dwellMode)
	if err != nil {
		return err
	}

	event := driving.DocumentTimeSpent{ID: ids[0], Mode: mode, Duration: d}
	if _, err := dispatch(cmd.Context(), event); err != nil {
		return fmt.Errorf("failed to record time spent: %w", err)
	}
	cmd.Printf("Recorded %s in %s view.\n", d, mode)
	return nil
}
