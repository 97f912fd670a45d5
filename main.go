// Ruleset Converter
// Converts proxy rule lists into normalized rule-set documents and compiles them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xxxbrian/ruleset-converter/internal/cache"
	"github.com/xxxbrian/ruleset-converter/internal/compiler"
	"github.com/xxxbrian/ruleset-converter/internal/config"
	"github.com/xxxbrian/ruleset-converter/internal/converter"
	"github.com/xxxbrian/ruleset-converter/internal/fetcher"
	"github.com/xxxbrian/ruleset-converter/internal/geoip"
	"github.com/xxxbrian/ruleset-converter/internal/logging"
	"github.com/xxxbrian/ruleset-converter/internal/manifest"
	"github.com/xxxbrian/ruleset-converter/internal/output"
	"github.com/xxxbrian/ruleset-converter/internal/runner"
	"github.com/xxxbrian/ruleset-converter/internal/server"
)

func main() {
	cfg := config.Load()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	logging.Init(cfg.LogJSON, logging.ParseLevel(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	// Initialize source cache
	sourceCache := cache.NewSourceCache(cfg.CacheTTL)
	if cfg.CachePath != "" {
		sourceCache.SetPersistPath(cfg.CachePath)
		if err := sourceCache.LoadFromFile(cfg.CachePath); err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("failed to load source cache", "path", cfg.CachePath, "err", err)
			}
		} else {
			slog.Info("loaded source cache", "path", cfg.CachePath)
		}
	}

	f := fetcher.NewFetcher(sourceCache, cfg.FetchTimeout)

	opts := converter.Options{
		KeepLeadingDot: !cfg.StripLeadingDot,
		SuffixDot:      cfg.SuffixDot,
	}
	if cfg.GeoIPDB != "" {
		data, err := fetcher.NewGeoIPFetcher(f, cfg.GeoIPDB).GetDB(ctx)
		if err != nil {
			return fmt.Errorf("load geoip database: %w", err)
		}
		g := geoip.NewGeoIP()
		if err := g.Load(data); err != nil {
			return err
		}
		opts.CIDRs = g
		slog.Info("geoip expansion enabled", "database", cfg.GeoIPDB, "codes", g.Codes())
	}

	sources, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return err
	}

	if cfg.Listen != "" {
		return serve(ctx, cfg, f, opts, sources)
	}

	var comp runner.Compiler
	if !cfg.SkipCompile {
		comp = compiler.New(cfg.CompilerPath)
	}
	results := runner.New(f, output.NewWriter(cfg.OutputDir), comp, opts, cfg.Workers).Run(ctx, sources)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		fmt.Println(res.JSONPath)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(results))
	}
	return nil
}

func serve(ctx context.Context, cfg config.Config, f *fetcher.Fetcher, opts converter.Options, sources []string) error {
	resultCache := cache.NewResultCache(24 * time.Hour)
	srv := server.NewServer(f, resultCache, opts, sources)

	// Setup routes
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start cache cleanup goroutine
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				resultCache.Cleanup()
			}
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("starting ruleset server", "addr", cfg.Listen, "sources", len(sources))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
