package models

import (
	"fmt"
	"strings"
	"time"
)

// RunMode selects what a single invocation of the harvester does.
type RunMode string

const (
	// RunModeListing walks the result pager and stores listing summaries.
	RunModeListing RunMode = "listing"
	RunModeDetail  RunMode = "detail" // enrich unprocessed listings from their detail pages
)

// ResolveRunMode maps the configured mode selector onto a RunMode.
// An empty selector means a listing crawl.
func ResolveRunMode(raw string) (RunMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "listing", "listings", "crawl", "crawler":
		return RunModeListing, nil
	case "detail", "details", "enrich", "detailcrawler":
		return RunModeDetail, nil
	default:
		return "", fmt.Errorf("unknown run mode %q (want %q or %q)", raw, RunModeListing, RunModeDetail)
	}
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusAborted   RunStatus = "aborted"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is the bookkeeping row written for every crawl or enrichment invocation.
type RunRecord struct {
	ID         string     `json:"id" yaml:"id" bson:"_id"`
	Mode       RunMode    `json:"mode" yaml:"mode" bson:"mode"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at" bson:"startedAt"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty" bson:"finishedAt,omitempty"`
	Status     RunStatus  `json:"status" yaml:"status" bson:"status"`
	Items      int        `json:"items" yaml:"items" bson:"items"`
	Successes  int        `json:"successes" yaml:"successes" bson:"successes"`
	Errors     int        `json:"errors" yaml:"errors" bson:"errors"`
	Message    string     `json:"message,omitempty" yaml:"message,omitempty" bson:"message,omitempty"`
}

// RunResult is what a finished controller reports back for its RunRecord.
type RunResult struct {
	Status    RunStatus
	Items     int
	Successes int
	Errors    int
	Message   string
}
