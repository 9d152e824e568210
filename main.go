package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/estate-harvester/internal/common"
	"github.com/dtnitsch/estate-harvester/internal/crawl"
	"github.com/dtnitsch/estate-harvester/internal/enrich"
	"github.com/dtnitsch/estate-harvester/internal/export"
	"github.com/dtnitsch/estate-harvester/internal/status"
	"github.com/dtnitsch/estate-harvester/models"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		slog.Error("estate-harvester failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "estate-harvester",
		Usage: "crawl real-estate listing pages and enrich them from their detail pages",
		Flags: globalFlags(),
		Commands: []*cli.Command{
			{
				Name:   "crawl",
				Usage:  "walk the listing pager, resuming after the last completed page",
				Action: crawl.CrawlAction,
			},
			{
				Name:   "enrich",
				Usage:  "fetch detail pages for listings that have not been processed",
				Action: enrich.EnrichAction,
			},
			{
				Name:   "run",
				Usage:  "crawl or enrich depending on SCRAPER_MODE",
				Action: runAction,
			},
			{
				Name:  "status",
				Usage: "show crawl and enrichment progress",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "text", Usage: "text or yaml"},
					&cli.IntFlag{Name: "runs", Value: 10, Usage: "number of recent runs to show"},
					&cli.IntFlag{Name: "top", Value: 5, Usage: "number of categories and stations to rank"},
				},
				Action: status.StatusAction,
			},
			{
				Name:  "export",
				Usage: "write all listings as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file (default stdout)"},
				},
				Action: export.ExportAction,
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"CONFIG_FILE"}, Usage: "YAML config file"},
		&cli.StringFlag{Name: "log-format", Value: "json", Usage: "json or text"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "log errors only"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug detail"},
		&cli.StringFlag{Name: "store", Usage: "storage backend: sqlite or mongo"},
		&cli.StringFlag{Name: "sqlite-path", Usage: "SQLite database file"},
		&cli.StringFlag{Name: "mongo-uri", Usage: "MongoDB connection string"},
		&cli.StringFlag{Name: "start-path", Usage: "listing pager URL (page number is appended)"},
		&cli.StringFlag{Name: "base-path", Usage: "prefix for relative detail links"},
		&cli.IntFlag{Name: "batch-size", Usage: "listings per enrichment batch"},
		&cli.StringFlag{Name: "cache-dir", Usage: "reuse fetched HTML from this directory"},
		&cli.DurationFlag{Name: "cache-ttl", Usage: "maximum age of cached HTML"},
	}
}

// runAction dispatches on the configured mode so one entry point serves both schedules.
func runAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}
	mode, err := models.ResolveRunMode(cfg.Mode)
	if err != nil {
		return err
	}

	switch mode {
	case models.RunModeListing:
		return crawl.CrawlAction(c)
	case models.RunModeDetail:
		return enrich.EnrichAction(c)
	default:
		return fmt.Errorf("unsupported run mode %q", mode)
	}
}
