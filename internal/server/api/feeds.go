package api

import (
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"layoff-watch/tracker/internal/models"
)

var feedsCSVHeader = []string{
	"url", "status", "failures_count", "last_error", "last_entries", "last_matched", "last_retrieved_at",
}

// FeedLister returns the recorded fetch health of every feed.
type FeedLister interface {
	ListFeeds(ctx context.Context) ([]models.Feed, error)
}

// FeedsHandler exports feed health as CSV.
type FeedsHandler struct {
	feeds FeedLister
}

func NewFeedsHandler(feeds FeedLister) *FeedsHandler {
	return &FeedsHandler{feeds: feeds}
}

// ExportFeeds writes one CSV row per feed, ordered by URL.
func (h *FeedsHandler) ExportFeeds(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	feeds, err := h.feeds.ListFeeds(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to query feeds")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=feeds.csv")

	cw := csv.NewWriter(w)
	if err := cw.Write(feedsCSVHeader); err != nil {
		log.Error().Err(err).Msg("Failed to write CSV header")
		return
	}
	for _, f := range feeds {
		if err := cw.Write(feedRecord(f)); err != nil {
			log.Error().Err(err).Str("url", f.URL).Msg("Failed to write CSV record")
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Error().Err(err).Msg("Error flushing CSV data")
		return
	}

	log.Info().Int("feed_count", len(feeds)).Msg("Exported feeds as CSV")
}

func feedRecord(f models.Feed) []string {
	var lastErr, retrieved string
	if f.LastError.Valid {
		lastErr = f.LastError.String
	}
	if f.LastRetrievedAt.Valid {
		retrieved = f.LastRetrievedAt.Time.UTC().Format(time.RFC3339)
	}
	return []string{
		f.URL,
		f.Status,
		strconv.Itoa(f.FailuresCount),
		lastErr,
		strconv.Itoa(f.LastEntries),
		strconv.Itoa(f.LastMatched),
		retrieved,
	}
}
