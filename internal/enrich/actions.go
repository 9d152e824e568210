// Package enrich fetches the detail page of every unprocessed listing and stores what it finds.
package enrich

import (
	"fmt"

	"github.com/dtnitsch/estate-harvester/internal/common"
	"github.com/dtnitsch/estate-harvester/models"
	"github.com/dtnitsch/estate-harvester/pkg/pacing"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func EnrichAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}

	ctx := c.Context
	s, err := common.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := common.NewFetcher(cfg, logger, true)
	if err != nil {
		return err
	}

	tracker, logger := common.BeginRun(ctx, s, models.RunModeDetail, logger)

	ctrl := &Controller{
		Store:             s,
		Scraper:           &DetailScraper{Fetcher: f},
		BatchSize:         cfg.Enrich.BatchSize,
		ItemDelay:         pacing.NewJitter(cfg.Enrich.DelayMin, cfg.Enrich.DelayMax),
		BatchPause:        cfg.Enrich.BatchPause,
		CountErrorBackoff: cfg.Enrich.CountErrorBackoff,
		BatchErrorBackoff: cfg.Enrich.BatchErrorBackoff,
		MaxBatchErrors:    cfg.Enrich.MaxBatchErrors,
		Sleeper:           pacing.ContextSleeper{},
		Logger:            logger,
	}

	summary, runErr := ctrl.Run(ctx)
	result := summary.Result()
	if runErr != nil {
		result.Status = models.RunStatusFailed
		result.Message = runErr.Error()
	}
	tracker.Finish(result)

	if runErr != nil {
		logger.Error("enrichment stopped",
			"processed", summary.Processed, "successes", summary.Successes, "errors", summary.Errors, "error", runErr)
		return fmt.Errorf("enrichment failed: %w", runErr)
	}

	logger.Info("enrichment summary",
		"status", string(result.Status),
		"batches", summary.Batches,
		"processed", humanize.Comma(int64(summary.Processed)),
		"successes", humanize.Comma(int64(summary.Successes)),
		"errors", humanize.Comma(int64(summary.Errors)),
		"deferred", summary.Deferred,
		"success_rate", fmt.Sprintf("%.1f%%", summary.SuccessRate()),
		"remaining", humanize.Comma(summary.Remaining),
		"elapsed", summary.Elapsed.Round(1e6).String(),
		"avg_per_item", summary.AveragePerItem().Round(1e6).String(),
	)
	return nil
}
