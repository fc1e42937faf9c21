package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"layoff-watch/tracker/internal/models"
	"layoff-watch/tracker/internal/server/pagination"
	"layoff-watch/tracker/internal/server/storage"
)

const defaultLimit = 100
const maxLimit = 1000

// Response structure for the events endpoint
type Response struct {
	Items      []models.Event `json:"items"`
	NextCursor *string        `json:"next_cursor,omitempty"`
}

// EventsHandler serves archived events.
type EventsHandler struct {
	repo storage.EventRepository
}

// NewEventsHandler creates a new handler instance.
func NewEventsHandler(repo storage.EventRepository) *EventsHandler {
	return &EventsHandler{
		repo: repo,
	}
}

// GetEvents handles requests to list events, newest first.
func (h *EventsHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	log.Debug().Msg("Processing events request")

	if r.Method != http.MethodGet {
		log.Warn().Str("method", r.Method).Msg("Method not allowed")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	limitStr := query.Get("limit")
	sinceStr := query.Get("since")
	cursorStr := query.Get("cursor")
	eventType := query.Get("event_type")
	minHeadcountStr := query.Get("min_headcount")

	filter := storage.EventFilter{Limit: defaultLimit}

	if limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit <= 0 || parsedLimit > maxLimit {
			log.Warn().Err(err).Str("limit", limitStr).Msg("Invalid 'limit' parameter value")
			http.Error(w, fmt.Sprintf("Invalid 'limit' parameter: must be between 1 and %d", maxLimit), http.StatusBadRequest)
			return
		}
		filter.Limit = parsedLimit
	}

	if cursorStr != "" {
		date, id, err := pagination.DecodeCursor(cursorStr)
		if err != nil {
			log.Warn().Err(err).Str("cursor", cursorStr).Msg("Invalid 'cursor' parameter")
			http.Error(w, "Invalid 'cursor' parameter", http.StatusBadRequest)
			return
		}
		filter.CursorDate = date
		filter.CursorID = id
	}

	if sinceStr != "" {
		if _, err := time.Parse(models.DateLayout, sinceStr); err != nil {
			log.Warn().Err(err).Str("since", sinceStr).Msg("Invalid 'since' parameter format")
			http.Error(w, "Invalid 'since' parameter: use YYYY-MM-DD (e.g., 2024-05-21)", http.StatusBadRequest)
			return
		}
		filter.Since = sinceStr
	}

	if eventType != "" {
		if !models.EventType(eventType).Valid() {
			log.Warn().Str("event_type", eventType).Msg("Invalid 'event_type' parameter")
			http.Error(w, "Invalid 'event_type' parameter: use voluntary_retirement, layoff or restructure", http.StatusBadRequest)
			return
		}
		filter.EventType = eventType
	}

	if minHeadcountStr != "" {
		n, err := strconv.Atoi(minHeadcountStr)
		if err != nil || n < 0 {
			log.Warn().Err(err).Str("min_headcount", minHeadcountStr).Msg("Invalid 'min_headcount' parameter")
			http.Error(w, "Invalid 'min_headcount' parameter: must be a non-negative integer", http.StatusBadRequest)
			return
		}
		filter.MinHeadcount = n
	}

	limit := filter.Limit
	filter.Limit = limit + 1 // Fetch one extra

	rows, err := h.repo.FetchEvents(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Str("since", sinceStr).Str("cursor", cursorStr).Msg("Error fetching events from repository")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var nextCursorStr *string
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		cursor := pagination.EncodeCursor(last.Date, last.ID)
		nextCursorStr = &cursor
	}

	items := make([]models.Event, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.Event())
	}

	writeJSON(w, r, Response{Items: items, NextCursor: nextCursorStr})
}

// GetEvent returns a single archived event by id.
func (h *EventsHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	id := r.PathValue("id")

	row, err := h.repo.GetEvent(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Error fetching event from repository")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if row == nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	writeJSON(w, r, row.Event())
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	log := hlog.FromRequest(r)

	jsonBytes, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling JSON response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(jsonBytes); err != nil {
		log.Error().Err(err).Msg("Error writing JSON response body to client")
	}
	log.Debug().Int("bytes_written", len(jsonBytes)).Msg("Response completed")
}
