// Package process runs one tracker job: fetch every configured feed, extract
// events, merge them into the dataset and alert on high-impact ones.
package process

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"layoff-watch/tracker/internal/dataset"
	"layoff-watch/tracker/internal/extract"
	"layoff-watch/tracker/internal/feeds"
	"layoff-watch/tracker/internal/metrics"
	"layoff-watch/tracker/internal/models"
	"layoff-watch/tracker/internal/notify"
)

// Fetcher retrieves a parsed feed.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*feeds.Feed, error)
}

// Archive keeps every persisted event and the fetch health of each feed.
type Archive interface {
	UpsertEvents(ctx context.Context, events []models.Event) (inserted, updated int, err error)
	RecordFetch(ctx context.Context, url, status string, entries, matched int, fetchErr error) error
}

// FeedResult is the outcome of processing one feed.
type FeedResult struct {
	URL     string
	Status  string
	Entries int
	Matched int
	Err     error
}

// Report summarises a run.
type Report struct {
	Feeds     []FeedResult
	Extracted int
	Filtered  int
	Degraded  int
	Written   int
	Alerts    []notify.Outcome
}

// Job processes a fixed list of feeds. A job is meant to be run once.
type Job struct {
	urls      []string
	fetcher   Fetcher
	extractor *extract.Extractor
	store     *dataset.Store
	notifier  *notify.Notifier
	archive   Archive
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// Option configures optional collaborators of a Job.
type Option func(*Job)

func WithArchive(a Archive) Option {
	return func(j *Job) { j.archive = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(j *Job) { j.metrics = m }
}

func NewJob(urls []string, fetcher Fetcher, extractor *extract.Extractor, store *dataset.Store,
	notifier *notify.Notifier, logger zerolog.Logger, opts ...Option) *Job {
	j := &Job{
		urls:      urls,
		fetcher:   fetcher,
		extractor: extractor,
		store:     store,
		notifier:  notifier,
		log:       logger,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run executes the job. Feed, archive and notification failures are logged
// and reflected in the report; the returned error is reserved for failing to
// write the dataset.
func (j *Job) Run(ctx context.Context) (*Report, error) {
	report := &Report{Feeds: make([]FeedResult, 0, len(j.urls))}

	j.log.Info().Int("feeds", len(j.urls)).Msg("job_start")
	if len(j.urls) == 0 {
		j.log.Warn().Msg("no_feeds_configured")
	}

	var fresh []models.Event
	for _, url := range j.urls {
		if ctx.Err() != nil {
			j.log.Warn().Err(ctx.Err()).Msg("job_cancelled")
			break
		}

		started := time.Now()
		res, events := j.processFeed(ctx, url, report)
		if j.metrics != nil {
			j.metrics.FeedProcessed(res.Status, time.Since(started))
		}
		j.recordFetch(ctx, res)

		report.Feeds = append(report.Feeds, res)
		fresh = append(fresh, events...)
	}

	merged := j.store.Merge(j.store.Load(), fresh)
	if err := j.store.Save(merged); err != nil {
		j.log.Error().Err(err).Str("path", j.store.Path).Msg("write_failed")
		return report, fmt.Errorf("failed to write dataset: %w", err)
	}
	report.Written = len(merged)
	j.log.Info().Str("path", j.store.Path).Int("count", len(merged)).Msg("written")
	if j.metrics != nil {
		j.metrics.DatasetWritten(len(merged))
	}

	j.archiveEvents(ctx, merged)

	report.Alerts = j.notifier.Notify(ctx, fresh)
	if j.metrics != nil {
		for _, a := range report.Alerts {
			j.metrics.AlertOutcome(string(a.Status))
		}
		j.metrics.RunFinished(time.Now())
	}

	j.log.Info().Msg("job_end")
	return report, nil
}

// processFeed fetches one feed and extracts its entries. It never panics out;
// a panic is converted into a failed result.
func (j *Job) processFeed(ctx context.Context, url string, report *Report) (res FeedResult, events []models.Event) {
	res = FeedResult{URL: url, Status: models.FeedStatusOK}

	defer func() {
		if r := recover(); r != nil {
			res.Status = models.FeedStatusFailed
			res.Err = fmt.Errorf("panic while processing feed: %v", r)
			events = nil
			j.log.Error().Str("url", url).Err(res.Err).Msg("feed_error")
		}
	}()

	j.log.Info().Str("url", url).Msg("fetch_feed")

	feed, err := j.fetcher.Fetch(ctx, url)
	if err != nil {
		res.Status = models.FeedStatusFailed
		res.Err = err
		j.log.Error().Str("url", url).Err(err).Msg("feed_error")
		return res, nil
	}
	if feed.Warning != nil {
		res.Status = models.FeedStatusWarn
		res.Err = feed.Warning
		j.log.Warn().Str("url", url).Err(feed.Warning).Msg("feed_parse_issue")
	}

	entries := feed.Entries
	if len(entries) > feeds.MaxEntriesPerFeed {
		entries = entries[:feeds.MaxEntriesPerFeed]
	}
	res.Entries = len(entries)

	for _, entry := range entries {
		r := j.extractor.Extract(entry)
		if j.metrics != nil {
			j.metrics.EntryOutcome(r.Status.String())
		}

		switch r.Status {
		case extract.StatusFiltered:
			report.Filtered++
			continue
		case extract.StatusDegraded:
			report.Degraded++
		}
		report.Extracted++
		res.Matched++
		events = append(events, *r.Event)
	}

	j.log.Debug().
		Str("url", url).
		Int("entries", res.Entries).
		Int("matched", res.Matched).
		Msg("feed_done")
	return res, events
}

func (j *Job) recordFetch(ctx context.Context, res FeedResult) {
	if j.archive == nil {
		return
	}
	var fetchErr error
	if res.Status == models.FeedStatusFailed {
		fetchErr = res.Err
	}
	if err := j.archive.RecordFetch(ctx, res.URL, res.Status, res.Entries, res.Matched, fetchErr); err != nil {
		j.log.Error().Str("url", res.URL).Err(err).Msg("archive_error")
	}
}

func (j *Job) archiveEvents(ctx context.Context, events []models.Event) {
	if j.archive == nil {
		return
	}
	inserted, updated, err := j.archive.UpsertEvents(ctx, events)
	if err != nil {
		j.log.Error().Err(err).Msg("archive_error")
		return
	}
	j.log.Info().Int("inserted", inserted).Int("updated", updated).Msg("archived")
}
