// Package common holds the setup shared by every command: logging, configuration,
// store and fetcher construction, and run bookkeeping.
package common

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dtnitsch/estate-harvester/models"
	"github.com/dtnitsch/estate-harvester/pkg/caching"
	"github.com/dtnitsch/estate-harvester/pkg/fetcher"
	"github.com/dtnitsch/estate-harvester/pkg/pacing"
	"github.com/dtnitsch/estate-harvester/pkg/store"
	"github.com/urfave/cli/v2"
)

// NewLogger builds the command logger from --log-format, --quiet and --verbose.
func NewLogger(c *cli.Context) *slog.Logger {
	return newLogger(os.Stderr, c.String("log-format"), c.Bool("quiet"), c.Bool("verbose"))
}

func newLogger(w io.Writer, format string, quiet, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	if quiet {
		logLevel = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: logLevel}

	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// LoadConfig reads the --config file and environment, then applies any flags set on the command line.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("store") {
		cfg.Store.Driver = c.String("store")
	}
	if c.IsSet("sqlite-path") {
		cfg.Store.SQLitePath = c.String("sqlite-path")
	}
	if c.IsSet("mongo-uri") {
		cfg.Store.MongoURI = c.String("mongo-uri")
	}
	if c.IsSet("start-path") {
		cfg.StartPath = c.String("start-path")
	}
	if c.IsSet("base-path") {
		cfg.BasePath = c.String("base-path")
	}
	if c.IsSet("batch-size") {
		cfg.Enrich.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("cache-dir") {
		cfg.HTTP.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("cache-ttl") {
		cfg.HTTP.CacheTTL = c.Duration("cache-ttl")
	}

	cfg.StartPath = SanitizeURL(cfg.StartPath)
	cfg.BasePath = strings.TrimSuffix(SanitizeURL(cfg.BasePath), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenStore opens the configured backend, bounding the connect time.
func OpenStore(ctx context.Context, cfg *models.Config) (store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	return s, nil
}

// NewFetcher builds a fetcher from the HTTP settings. Listing pages pass retry=false:
// a failed listing page is retried on the next run, not inside this one.
func NewFetcher(cfg *models.Config, logger *slog.Logger, retry bool) (*fetcher.Fetcher, error) {
	opts := fetcher.Options{
		Timeout:    cfg.HTTP.Timeout,
		Agents:     pacing.NewAgents(cfg.HTTP.UserAgents),
		RetryDelay: cfg.HTTP.RetryDelay,
		Logger:     logger,
		MaxRPS:     cfg.HTTP.MaxRPS,
	}
	if retry {
		opts.Retries = cfg.HTTP.Retries
	}
	if cfg.HTTP.CacheDir != "" {
		cache, err := caching.NewCache(cfg.HTTP.CacheDir, cfg.HTTP.CacheTTL)
		if err != nil {
			return nil, err
		}
		opts.Cache = cache
	}
	return fetcher.NewFetcher(opts), nil
}
