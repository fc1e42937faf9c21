package api

import (
	"net/http"

	"github.com/rs/zerolog/hlog"

	"layoff-watch/tracker/internal/dataset"
)

// DatasetHandler serves the rolling JSON dataset written by the last run.
type DatasetHandler struct {
	store *dataset.Store
}

func NewDatasetHandler(store *dataset.Store) *DatasetHandler {
	return &DatasetHandler{store: store}
}

// GetDataset returns the dataset as loaded from disk; a missing or corrupt
// file yields an empty array.
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	events := h.store.Load()
	hlog.FromRequest(r).Debug().Int("count", len(events)).Msg("Serving dataset")
	writeJSON(w, r, events)
}
