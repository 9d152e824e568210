// Package status reports crawl and enrichment progress from the store.
package status

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dtnitsch/estate-harvester/models"
	"github.com/dtnitsch/estate-harvester/pkg/mapreduce"
	"github.com/dustin/go-humanize"
)

// Source is the read side of the store used for reporting.
type Source interface {
	CountListings(ctx context.Context) (int64, error)
	CountUnprocessed(ctx context.Context) (int64, error)
	CountDetails(ctx context.Context) (int64, error)
	LastCompletedPage(ctx context.Context, name string) (*models.CrawlState, error)
	RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error)
	AllListings(ctx context.Context, fn func(models.Listing) error) error
}

type Report struct {
	Listings          int64              `yaml:"listings"`
	Processed         int64              `yaml:"processed"`
	Unprocessed       int64              `yaml:"unprocessed"`
	Progress          float64            `yaml:"progress_percent"`
	Details           int64              `yaml:"details"`
	CrawlName         string             `yaml:"crawl_name"`
	LastCompletedPage int                `yaml:"last_completed_page"`
	Categories        []mapreduce.Count  `yaml:"top_categories"`
	Stations          []mapreduce.Count  `yaml:"top_stations"`
	Runs              []models.RunRecord `yaml:"recent_runs"`
}

// BuildReport gathers counts, crawl state, recent runs and the top most frequent
// categories and station lines.
func BuildReport(ctx context.Context, src Source, crawlName string, runLimit, top int) (*Report, error) {
	listings, err := src.CountListings(ctx)
	if err != nil {
		return nil, err
	}
	unprocessed, err := src.CountUnprocessed(ctx)
	if err != nil {
		return nil, err
	}
	details, err := src.CountDetails(ctx)
	if err != nil {
		return nil, err
	}
	state, err := src.LastCompletedPage(ctx, crawlName)
	if err != nil {
		return nil, err
	}
	runs, err := src.RecentRuns(ctx, runLimit)
	if err != nil {
		return nil, err
	}

	categories, stations := mapreduce.NewTally(), mapreduce.NewTally()
	err = src.AllListings(ctx, func(l models.Listing) error {
		categories.Add(l.Category)
		stations.Add(stationLine(l.Station))
		return nil
	})
	if err != nil {
		return nil, err
	}

	r := &Report{
		Listings:    listings,
		Processed:   listings - unprocessed,
		Unprocessed: unprocessed,
		Details:     details,
		CrawlName:   crawlName,
		Categories:  categories.TopN(top),
		Stations:    stations.TopN(top),
		Runs:        runs,
	}
	if listings > 0 {
		r.Progress = float64(r.Processed) / float64(listings) * 100
	}
	if state != nil {
		r.LastCompletedPage = state.LastCompletedPage
	}
	return r, nil
}

// stationLine drops the walking time, keeping "line「station」".
func stationLine(station string) string {
	if fields := strings.Fields(station); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// WriteText prints the report as an aligned table.
func WriteText(w io.Writer, r *Report) {
	fmt.Fprintf(w, "Listings:             %s\n", humanize.Comma(r.Listings))
	fmt.Fprintf(w, "  processed:          %s (%.1f%%)\n", humanize.Comma(r.Processed), r.Progress)
	fmt.Fprintf(w, "  unprocessed:        %s\n", humanize.Comma(r.Unprocessed))
	fmt.Fprintf(w, "Details:              %s\n", humanize.Comma(r.Details))
	fmt.Fprintf(w, "Last completed page:  %d (%s)\n", r.LastCompletedPage, r.CrawlName)

	writeCounts(w, "Top categories", r.Categories)
	writeCounts(w, "Top stations", r.Stations)

	if len(r.Runs) == 0 {
		fmt.Fprintln(w, "\nNo runs recorded")
		return
	}

	fmt.Fprintf(w, "\n%-36s %-8s %-10s %-16s %-8s %-8s %-8s\n",
		"Run", "Mode", "Status", "Started", "Items", "OK", "Errors")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, run := range r.Runs {
		fmt.Fprintf(w, "%-36s %-8s %-10s %-16s %-8d %-8d %-8d\n",
			run.ID,
			run.Mode,
			run.Status,
			humanize.Time(run.StartedAt),
			run.Items,
			run.Successes,
			run.Errors,
		)
	}
}

func writeCounts(w io.Writer, title string, counts []mapreduce.Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for i, c := range counts {
		fmt.Fprintf(w, "  %d. %s: %s\n", i+1, c.Key, humanize.Comma(int64(c.Value)))
	}
}
