package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"layoff-watch/tracker/internal/dedup"
	"layoff-watch/tracker/internal/models"
)

// DefaultMaxItems is the retention cap of the rolling dataset.
const DefaultMaxItems = 100

// Store is the rolling JSON dataset of detected events.
type Store struct {
	Path     string
	MaxItems int

	log zerolog.Logger
}

// NewStore creates a store for the dataset file at path. maxItems <= 0 uses
// DefaultMaxItems.
func NewStore(path string, maxItems int, logger zerolog.Logger) *Store {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Store{Path: path, MaxItems: maxItems, log: logger}
}

// Load reads the persisted dataset. A missing, unreadable or malformed file
// is treated as an empty dataset; a malformed record is dropped on its own.
func (s *Store) Load() []models.Event {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Debug().Err(err).Str("path", s.Path).Msg("dataset_unreadable")
		}
		return []models.Event{}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		s.log.Debug().Err(err).Str("path", s.Path).Msg("dataset_corrupt")
		return []models.Event{}
	}

	events := make([]models.Event, 0, len(raw))
	for i, r := range raw {
		var ev models.Event
		if err := json.Unmarshal(r, &ev); err != nil {
			s.log.Warn().Err(err).Str("path", s.Path).Int("index", i).Msg("dataset_record_skipped")
			continue
		}
		events = append(events, ev)
	}
	return events
}

// Merge combines the persisted records with freshly extracted ones. Existing
// records come first so they win over near-duplicates, the result is sorted
// newest first (stable for equal dates) and cut to MaxItems.
func (s *Store) Merge(existing, fresh []models.Event) []models.Event {
	merged := make([]models.Event, 0, len(existing)+len(fresh))
	merged = append(merged, existing...)
	merged = append(merged, fresh...)

	merged = dedup.Dedupe(merged)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date > merged[j].Date
	})
	if len(merged) > s.MaxItems {
		merged = merged[:s.MaxItems]
	}
	return merged
}

// Save writes events as an indented JSON array, replacing the previous file
// atomically. Parent directories are created as needed.
func (s *Store) Save(events []models.Event) error {
	if events == nil {
		events = []models.Event{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for dataset: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close dataset: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to chmod dataset: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("failed to replace dataset %s: %w", s.Path, err)
	}
	return nil
}
