// Package cli implements the feedsync command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/feedsync/internal/core/ports/driving"
	"github.com/custodia-labs/feedsync/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	feedService     driving.FeedService
	settingsService driving.SettingsService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "feedsync",
	Short: "Personalized news feed on the command line",
	Long: `feedsync keeps a local, personalized news feed.

Candidate articles are ingested into a ranking engine that learns from your
reactions and reading time. Every batch it serves is stored locally, so the
feed can be restored exactly as it was left.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices sets the services used by the commands.
func SetServices(feed driving.FeedService, settings driving.SettingsService) {
	feedService = feed
	settingsService = settings
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// dispatch sends event to the feed service and turns failure events into
// errors.
func dispatch(ctx context.Context, event driving.ClientEvent) (driving.EngineEvent, error) {
	if err := requireFeed(); err != nil {
		return nil, err
	}
	switch resp := feedService.Handle(ctx, event).(type) {
	case driving.FeedRequestFailed:
		return nil, failure(resp.Reason, resp.Err)
	case driving.NextFeedBatchRequestFailed:
		return nil, failure(resp.Reason, resp.Err)
	case driving.SearchRequestFailed:
		return nil, failure(resp.Reason, resp.Err)
	case driving.EngineExceptionRaised:
		return nil, failure(resp.Reason, resp.Err)
	default:
		return resp, nil
	}
}

// expect dispatches event and checks the response kind.
func expect[T driving.EngineEvent](ctx context.Context, event driving.ClientEvent) (T, error) {
	var zero T
	resp, err := dispatch(ctx, event)
	if err != nil {
		return zero, err
	}
	out, ok := resp.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected response %T", resp)
	}
	return out, nil
}

func failure(reason driving.FailureReason, err error) error {
	return fmt.Errorf("%s failure: %w", reason, err)
}

func requireFeed() error {
	if feedService == nil {
		return errors.New("feed service not configured")
	}
	return nil
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}
