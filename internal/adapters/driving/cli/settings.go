package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/ports/driving"
)

var sourcesClear bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var marketsCmd = &cobra.Command{
	Use:   "markets [market...]",
	Short: "Show or set the served markets",
	Long: `Without arguments, prints the served markets. With arguments, replaces
them. Markets are written as language-COUNTRY, e.g. en-US or de-DE.`,
	RunE: runMarkets,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources [trusted|excluded] [host...]",
	Short: "Show or set trusted and excluded sources",
	Long: `Trusted sources are favoured when ranking. Excluded sources are never
served. Without hosts, prints the current list; with hosts, replaces it.
Use --clear to empty the list.`,
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: []string{"trusted", "excluded"},
	RunE:      runSources,
}

var resetAICmd = &cobra.Command{
	Use:   "reset-ai",
	Short: "Forget everything the engine has learned",
	Long: `Clears the engine's learned preferences. Stored documents and the
current feed are kept.`,
	Args: cobra.NoArgs,
	RunE: runResetAI,
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesClear, "clear", false, "remove all sources from the list")
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(marketsCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(resetAICmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()
	cmd.Println("[Feed]")
	cmd.Printf("  Max documents: %d\n", settings.MaxDocuments)
	cmd.Printf("  Search page size: %d\n", settings.PageSize)
	cmd.Println()
	cmd.Println("[Engine]")
	cmd.Printf("  Markets: %s\n", joinOrNone(settings.Markets.Strings()))
	cmd.Printf("  Trusted sources: %s\n", joinOrNone(settings.TrustedSources.Sorted()))
	cmd.Printf("  Excluded sources: %s\n", joinOrNone(settings.ExcludedSources.Sorted()))
	cmd.Printf("  Embedding dimension: %d\n", settings.EmbeddingDim)
	return nil
}

func runMarkets(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	if len(args) == 0 {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		for _, m := range settings.Markets.Strings() {
			cmd.Println(m)
		}
		return nil
	}

	markets, err := domain.ParseFeedMarkets(args)
	if err != nil {
		return err
	}
	if _, err := dispatch(cmd.Context(), driving.FeedMarketsChanged{Markets: markets}); err != nil {
		return fmt.Errorf("failed to set markets: %w", err)
	}
	if err := settingsService.SetMarkets(markets); err != nil {
		return err
	}
	cmd.Printf("Markets set to %s.\n", strings.Join(markets.Strings(), ", "))
	return nil
}

func runSources(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	kind, hosts := args[0], args[1:]
	if kind != "trusted" && kind != "excluded" {
		return fmt.Errorf("%w: unknown source list %q, want trusted or excluded", domain.ErrInvalidInput, kind)
	}

	if len(hosts) == 0 && !sourcesClear {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		current := settings.TrustedSources
		if kind == "excluded" {
			current = settings.ExcludedSources
		}
		for _, h := range current.Sorted() {
			cmd.Println(h)
		}
		return nil
	}

	sources := domain.NewSources(hosts...)
	if kind == "trusted" {
		if _, err := dispatch(cmd.Context(), driving.TrustedSourcesChanged{Sources: sources}); err != nil {
			return fmt.Errorf("failed to set trusted sources: %w", err)
		}
		if err := settingsService.SetTrustedSources(sources); err != nil {
			return err
		}
	} else {
		if _, err := dispatch(cmd.Context(), driving.ExcludedSourcesChanged{Sources: sources}); err != nil {
			return fmt.Errorf("failed to set excluded sources: %w", err)
		}
		if err := settingsService.SetExcludedSources(sources); err != nil {
			return err
		}
	}
	cmd.Printf("%s sources: %s\n", strings.ToUpper(kind[:1])+kind[1:], joinOrNone(sources.Sorted()))
	return nil
}

func runResetAI(cmd *cobra.Command, _ []string) error {
	if _, err := expect[driving.ResetAISucceeded](cmd.Context(), driving.ResetAIRequested{}); err != nil {
		return fmt.Errorf("failed to reset engine: %w", err)
	}
	cmd.Println("Engine state reset.")
	return nil
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}
