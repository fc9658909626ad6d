package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"macrofeed/internal/alpaca"
	"macrofeed/internal/cache"
	"macrofeed/internal/config"
	"macrofeed/internal/dataset"
	"macrofeed/internal/fetch"
	"macrofeed/internal/fred"
	"macrofeed/internal/refresh"
	"macrofeed/internal/source"
	"macrofeed/internal/synthetic"
	"macrofeed/internal/yahoo"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build providers. Alpaca is an optional fallback behind Yahoo for
	// the US symbols it can proxy.
	marketAdapters := []source.Adapter{yahoo.New(cfg.YahooBaseURL)}
	if cfg.HasAlpaca() {
		marketAdapters = append(marketAdapters, alpaca.New(cfg.AlpacaAPIKey, cfg.AlpacaAPISecret, cfg.AlpacaBaseURL))
		logger.Info("alpaca fallback provider enabled")
	}
	macroAdapters := []source.Adapter{fred.New(cfg.FredAPIKey, cfg.FredBaseURL)}
	gauges := []source.Adapter{synthetic.NewGauges()}

	policy := fetch.Policy{
		MaxAttempts: cfg.RetryMaxAttempts,
		MinDelay:    cfg.RetryMinDelay,
		MaxDelay:    cfg.RetryMaxDelay,
	}

	datasets := []dataset.Fetcher{
		dataset.NewMarketFetcher(dataset.DefaultIndices(), policy, marketAdapters, logger),
		dataset.NewEconomicFetcher(dataset.DefaultIndicators(), cfg.EconomicLookback, policy, macroAdapters, logger),
		dataset.NewRatesFetcher(dataset.DefaultRates(), cfg.RatesLookback, policy, macroAdapters, logger),
		dataset.NewCommoditiesFetcher(dataset.DefaultCommodities(), policy, marketAdapters, logger),
		dataset.NewRiskFetcher(policy, marketAdapters, gauges, cfg.RiskLookback, logger),
		dataset.NewNewsFetcher(policy, synthetic.NewNews()),
		dataset.NewPerformanceFetcher(dataset.DefaultPerformanceIndices(), cfg.PerformanceWindow, policy, marketAdapters, logger),
	}

	store := cache.NewStore()
	runner := refresh.New(refresh.Config{
		Interval:     cfg.RefreshInterval,
		FetchTimeout: cfg.FetchTimeout,
	}, store, datasets, logger)

	if err := runner.Start(ctx); err != nil {
		logger.Error("failed to start refresh loop", "error", err)
		os.Exit(1)
	}

	// SIGHUP maps to the dashboard's "refresh now" action; SIGINT and
	// SIGTERM shut down.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	summary := time.NewTicker(5 * time.Minute)
	defer summary.Stop()

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Info("manual refresh requested")
				refreshCtx, refreshCancel := context.WithTimeout(ctx, cfg.FetchTimeout)
				if err := runner.ForceRefresh(refreshCtx); err != nil {
					logger.Warn("manual refresh failed", "error", err)
				}
				refreshCancel()
				continue
			}

			logger.Info("received shutdown signal", "signal", sig)
			cancel()

			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			if err := runner.Stop(stopCtx); err != nil {
				logger.Error("refresh loop did not stop cleanly", "error", err)
				os.Exit(1)
			}
			return

		case <-summary.C:
			snap := store.Snapshot()
			logger.Info("snapshot summary",
				"datasets", len(snap.Data),
				"age", snap.Age(time.Now()).Round(time.Second),
				"errors_since_last_read", runner.Errors().Len(),
			)
		}
	}
}
