// Command feedsync is a personalized news feed for the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/feedsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/feedsync/internal/adapters/driven/engine"
	"github.com/custodia-labs/feedsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/feedsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/feedsync/internal/core/domain"
	"github.com/custodia-labs/feedsync/internal/core/services"
	"github.com/custodia-labs/feedsync/internal/logger"
	"github.com/custodia-labs/feedsync/internal/metrics"
	"github.com/custodia-labs/feedsync/internal/normalisers"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// homeEnv overrides the configuration directory, ~/.feedsync by default.
const homeEnv = "FEEDSYNC_HOME"

// keyMetricsTextfile names a file the metrics are written to on exit.
const keyMetricsTextfile = "metrics.textfile"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	home := os.Getenv(homeEnv)

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return report(fmt.Errorf("open config: %w", err))
	}
	aiDir := ""
	if home != "" {
		aiDir = filepath.Join(home, "engine")
	}
	aiConfig, err := file.NewAIConfigStore(aiDir)
	if err != nil {
		return report(fmt.Errorf("open engine config: %w", err))
	}

	settingsService := services.NewSettingsService(configStore, aiConfig)
	settings, err := settingsService.Get()
	if err != nil {
		return report(fmt.Errorf("load settings: %w", err))
	}
	logger.SetVerbose(settings.Verbose)
	if settings.DataDir == "" && home != "" {
		settings.DataDir = filepath.Join(home, "data")
	}

	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return report(fmt.Errorf("open store: %w", err))
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics()
	if err := m.Register(reg); err != nil {
		return report(fmt.Errorf("register metrics: %w", err))
	}
	if path := configStore.GetString(keyMetricsTextfile); path != "" {
		defer func() {
			if err := prometheus.WriteToTextfile(path, reg); err != nil {
				logger.Warn("Failed to write metrics to %s: %v", path, err)
			}
		}()
	}

	eng, err := openEngine(ctx, store, settings, m)
	if err != nil {
		return report(err)
	}
	defer func() {
		if err := eng.Dispose(context.Background()); err != nil {
			logger.Warn("Failed to dispose engine: %v", err)
		}
	}()

	feed := services.NewFeedManager(eng, store.DocumentStore(), store.ActiveDataStore(), store.EngineStateStore(), settings, m)
	feed.SetNormaliser(normalisers.Default())
	cli.SetServices(feed, settingsService)
	cli.SetVersion(version)

	// cobra reports command errors itself.
	return cli.Execute(ctx)
}

// openEngine restores the engine from the saved state and the stored
// documents. A state the engine cannot read is dropped with a warning.
func openEngine(ctx context.Context, store *sqlite.Store, settings domain.FeedSettings, m *metrics.Metrics) (*engine.Engine, error) {
	state, err := store.EngineStateStore().Load(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load engine state: %w", err)
	}
	docs, err := store.DocumentStore().FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	history := domain.History(docs)

	eng, err := engine.New(ctx, settings.Initializer(state, history), engine.WithMetrics(m))
	if err == nil || state == nil {
		return eng, err
	}
	logger.Warn("Discarding unreadable engine state: %v", err)
	return engine.New(ctx, settings.Initializer(nil, history), engine.WithMetrics(m))
}

func report(err error) error {
	logger.Error("%v", err)
	return err
}
