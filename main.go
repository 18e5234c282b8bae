package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockdata/cache"
	"stockdata/config"
	"stockdata/db"
	qhttp "stockdata/http"
	"stockdata/logging"
	"stockdata/market"
	"stockdata/market/providers"
	"stockdata/report"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logging.Init(cfg.Log.Level, cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Sync()
	logger := logging.L()

	if err := db.InitDB(cfg.Database.Path); err != nil {
		logger.Fatalw("failed to initialize database", "path", cfg.Database.Path, "error", err)
	}
	defer db.Close()
	logger.Infow("database initialized", "path", cfg.Database.Path)

	asm := report.NewAssembler(providers.NewRegistry(), logger)
	asm.Cache = cache.New(cfg.Cache.Size, cfg.CacheTTL())
	asm.Recorder = seriesRecorder{}

	go prefetch(asm, cfg.Watch)

	stopWatch, err := config.Watch("config.yaml", func(next *config.Config) {
		if err := logging.SetLevel(next.Log.Level); err != nil {
			logger.Warnw("bad log level in reloaded config", "level", next.Log.Level)
		}
		logger.Infow("config reloaded", "watch_entries", len(next.Watch))
		go prefetch(asm, next.Watch)
	})
	if err != nil {
		logger.Warnw("config watch disabled", "error", err)
	} else {
		defer stopWatch()
	}

	serverConfig := qhttp.DefaultServerConfig()
	serverConfig.Port = cfg.Http.Port
	server := qhttp.NewServer(serverConfig, asm, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Warnw("server forced to shutdown", "error", err)
	}
	logger.Info("exiting")
}

// prefetch warms the cache and the bar store for the configured
// watchlist. Failures are logged and skipped; the watchlist is a
// convenience, not a dependency.
func prefetch(asm *report.Assembler, watch []config.WatchEntry) {
	logger := logging.L()
	for _, entry := range watch {
		m, err := market.ParseMarket(entry.Market)
		if err != nil {
			logger.Warnw("skipping watch entry", "symbol", entry.Symbol, "error", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_, err = asm.Analyze(ctx, entry.Symbol, m, market.Period1Y)
		cancel()
		if err != nil {
			logger.Warnw("prefetch failed", "symbol", entry.Symbol, "market", m, "error", err)
			continue
		}
		logger.Infow("prefetched", "symbol", entry.Symbol, "market", m)
	}
}

// seriesRecorder adapts the db package to the assembler's Recorder.
type seriesRecorder struct{}

func (seriesRecorder) SaveSeries(s market.Series) error { return db.SaveSeries(s) }
