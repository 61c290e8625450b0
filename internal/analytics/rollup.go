package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cinelink/cinelink/internal/metrics"
	"github.com/cinelink/cinelink/internal/model"
)

// Rollup steps reported to metrics.
const (
	StepCleanup   = "cleanup"
	StepSummarize = "summarize"
)

// RollupStore is the event log surface used by the daily rollup.
type RollupStore interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	EventsBetween(ctx context.Context, from, to time.Time) ([]*model.ClickEvent, error)
	UpsertDailySummaries(ctx context.Context, summaries []model.DailyMovieSummary) error
}

// Rollup prunes expired click events and summarizes the previous UTC day.
type Rollup struct {
	store     RollupStore
	retention time.Duration // zero means one calendar year
	logger    *slog.Logger
	metrics   metrics.Recorder
	now       func() time.Time
}

// NewRollup creates a new Rollup. A non-positive retention keeps events for
// one calendar year.
func NewRollup(store RollupStore, retention time.Duration, logger *slog.Logger, recorder metrics.Recorder) *Rollup {
	if retention < 0 {
		retention = 0
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Rollup{
		store:     store,
		retention: retention,
		logger:    logger.With("component", "analytics.rollup"),
		metrics:   recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run executes cleanup and summary as independent steps. A failure in one
// does not skip or undo the other; their errors are joined.
func (r *Rollup) Run(ctx context.Context) error {
	_, cleanupErr := r.Cleanup(ctx)

	day := startOfDay(r.now()).AddDate(0, 0, -1)
	_, summaryErr := r.Summarize(ctx, day)

	return errors.Join(cleanupErr, summaryErr)
}

// Cleanup deletes events strictly older than the retention horizon and
// returns the number removed.
func (r *Rollup) Cleanup(ctx context.Context) (int64, error) {
	start := time.Now()
	cutoff := r.cutoff()

	deleted, err := r.store.DeleteBefore(ctx, cutoff)
	r.metrics.ObserveRollupDuration(StepCleanup, time.Since(start))
	if err != nil {
		r.metrics.IncRollupRun(StepCleanup, "error")
		r.logger.Error("click event cleanup failed", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("cleanup: %w", err)
	}

	r.metrics.IncRollupRun(StepCleanup, "success")
	r.metrics.AddClickEventsPruned(deleted)
	r.logger.Info("click event cleanup completed", "cutoff", cutoff, "deleted", deleted)
	return deleted, nil
}

// cutoff returns the retention horizon. The calendar year follows leap days.
func (r *Rollup) cutoff() time.Time {
	now := r.now()
	if r.retention == 0 {
		return now.AddDate(-1, 0, 0)
	}
	return now.Add(-r.retention)
}

// Summarize computes per-movie clicks and unique IPs for the UTC day
// containing day, stores them and returns them ordered by clicks.
func (r *Rollup) Summarize(ctx context.Context, day time.Time) ([]model.DailyMovieSummary, error) {
	start := time.Now()
	from := startOfDay(day)
	to := from.AddDate(0, 0, 1)

	summaries, err := r.summarize(ctx, from, to)
	r.metrics.ObserveRollupDuration(StepSummarize, time.Since(start))
	if err != nil {
		r.metrics.IncRollupRun(StepSummarize, "error")
		r.logger.Error("daily summary failed", "date", from.Format(time.DateOnly), "error", err)
		return nil, fmt.Errorf("summarize: %w", err)
	}

	r.metrics.IncRollupRun(StepSummarize, "success")
	r.logger.Info("daily summary completed",
		"date", from.Format(time.DateOnly),
		"movies", len(summaries),
	)
	for _, s := range summaries {
		r.logger.Debug("daily movie summary",
			"date", from.Format(time.DateOnly),
			"movie_id", s.MovieID,
			"clicks", s.Clicks,
			"unique_ips", s.UniqueIPs,
		)
	}
	return summaries, nil
}

func (r *Rollup) summarize(ctx context.Context, from, to time.Time) ([]model.DailyMovieSummary, error) {
	events, err := r.store.EventsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summaries := summarizeDay(events, from)
	if err := r.store.UpsertDailySummaries(ctx, summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

type movieAccumulator struct {
	clicks int64
	ips    map[string]struct{}
}

// summarizeDay groups events by movie, counting clicks and distinct IPs.
// Events without an IP count toward clicks only.
func summarizeDay(events []*model.ClickEvent, date time.Time) []model.DailyMovieSummary {
	byMovie := make(map[string]*movieAccumulator)
	for _, event := range events {
		acc, ok := byMovie[event.MovieID]
		if !ok {
			acc = &movieAccumulator{ips: make(map[string]struct{})}
			byMovie[event.MovieID] = acc
		}
		acc.clicks++
		if event.IPAddress != "" {
			acc.ips[event.IPAddress] = struct{}{}
		}
	}

	summaries := make([]model.DailyMovieSummary, 0, len(byMovie))
	for movieID, acc := range byMovie {
		summaries = append(summaries, model.DailyMovieSummary{
			MovieID:   movieID,
			Date:      date,
			Clicks:    acc.clicks,
			UniqueIPs: int64(len(acc.ips)),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Clicks != summaries[j].Clicks {
			return summaries[i].Clicks > summaries[j].Clicks
		}
		return summaries[i].MovieID < summaries[j].MovieID
	})
	return summaries
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
