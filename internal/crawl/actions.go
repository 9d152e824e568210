// Package crawl walks the listing pager and stores one record per listing card.
package crawl

import (
	"fmt"

	"github.com/dtnitsch/estate-harvester/internal/common"
	"github.com/dtnitsch/estate-harvester/models"
	"github.com/dtnitsch/estate-harvester/pkg/pacing"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func CrawlAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}
	if err := common.ValidateHTTPURL("START_PATH", cfg.StartPath); err != nil {
		return err
	}
	if err := common.ValidateHTTPURL("BASE_PATH", cfg.BasePath); err != nil {
		return err
	}

	ctx := c.Context
	s, err := common.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := common.NewFetcher(cfg, logger, false)
	if err != nil {
		return err
	}

	tracker, logger := common.BeginRun(ctx, s, models.RunModeListing, logger)

	ctrl := &Controller{
		Pages:     &PageCrawler{Fetcher: f, BasePath: cfg.BasePath},
		Counter:   &PagerCounter{Fetcher: f, StartPath: cfg.StartPath},
		Store:     s,
		Delay:     pacing.NewJitter(cfg.Crawl.DelayMin, cfg.Crawl.DelayMax),
		Sleeper:   pacing.ContextSleeper{},
		Logger:    logger,
		StartPath: cfg.StartPath,
		Name:      cfg.Crawl.Name,
	}

	summary, runErr := ctrl.Run(ctx)
	result := summary.Result()
	if runErr != nil {
		result.Status = models.RunStatusFailed
		result.Message = runErr.Error()
	}
	tracker.Finish(result)

	if runErr != nil {
		return fmt.Errorf("crawl failed: %w", runErr)
	}

	logger.Info("crawl summary",
		"status", string(result.Status),
		"pages", fmt.Sprintf("%d-%d", summary.StartPage, summary.MaxPage),
		"pages_succeeded", summary.PagesSucceeded,
		"pages_failed", summary.PagesFailed,
		"listings_found", humanize.Comma(int64(summary.Found)),
		"listings_new", humanize.Comma(int64(summary.Inserted)),
		"elapsed", summary.Elapsed.Round(1e6).String(),
	)
	return nil
}
