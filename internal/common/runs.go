package common

import (
	"context"
	"log/slog"
	"time"

	"github.com/dtnitsch/estate-harvester/models"
	"github.com/google/uuid"
)

// RunStore is the part of the store that records runs.
type RunStore interface {
	StartRun(ctx context.Context, run *models.RunRecord) error
	FinishRun(ctx context.Context, run *models.RunRecord) error
}

// RunTracker records one crawl or enrichment invocation. Bookkeeping failures are logged, never fatal.
type RunTracker struct {
	Record *models.RunRecord
	store  RunStore
	logger *slog.Logger
}

// BeginRun writes a running RunRecord and returns a logger tagged with its run_id.
func BeginRun(ctx context.Context, s RunStore, mode models.RunMode, logger *slog.Logger) (*RunTracker, *slog.Logger) {
	run := &models.RunRecord{
		ID:        uuid.NewString(),
		Mode:      mode,
		StartedAt: time.Now().UTC(),
		Status:    models.RunStatusRunning,
	}
	logger = logger.With("run_id", run.ID, "mode", string(mode))

	if err := s.StartRun(ctx, run); err != nil {
		logger.Warn("failed to record run start", "error", err)
	}
	return &RunTracker{Record: run, store: s, logger: logger}, logger
}

// Finish stores the result. It uses a fresh context so a cancelled run is still recorded.
func (t *RunTracker) Finish(result models.RunResult) {
	finished := time.Now().UTC()
	t.Record.FinishedAt = &finished
	t.Record.Status = result.Status
	t.Record.Items = result.Items
	t.Record.Successes = result.Successes
	t.Record.Errors = result.Errors
	t.Record.Message = result.Message

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := t.store.FinishRun(ctx, t.Record); err != nil {
		t.logger.Warn("failed to record run result", "error", err)
	}
}
