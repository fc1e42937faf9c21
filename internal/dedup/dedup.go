// Package dedup suppresses near-duplicate event records.
package dedup

import (
	"time"

	"layoff-watch/tracker/internal/models"
)

const (
	// DefaultWindowDays is how far apart (inclusive) two dates may be for the
	// records to be compared at all.
	DefaultWindowDays = 3
	// DefaultThreshold is the token-set ratio at or above which two records
	// are considered the same event.
	DefaultThreshold = 90.0
)

// Dedupe returns events with near-duplicates removed. Input order is
// preserved and the first occurrence of a duplicate group is kept, so callers
// put previously persisted records before fresh ones. Empty records are
// dropped. Applying Dedupe to its own output removes nothing further.
func Dedupe(events []models.Event) []models.Event {
	out := make([]models.Event, 0, len(events))
	keys := make([]string, 0, len(events))

	for _, ev := range events {
		if ev.IsEmpty() {
			continue
		}
		key := compositeKey(ev)
		if isDuplicate(ev, key, out, keys) {
			continue
		}
		out = append(out, ev)
		keys = append(keys, key)
	}
	return out
}

// IsDuplicate reports whether a and b describe the same event.
func IsDuplicate(a, b models.Event) bool {
	if !NearDate(a.Date, b.Date, DefaultWindowDays) {
		return false
	}
	return TokenSetRatio(compositeKey(a), compositeKey(b)) >= DefaultThreshold
}

func isDuplicate(ev models.Event, key string, accepted []models.Event, keys []string) bool {
	for i, ex := range accepted {
		if !NearDate(ev.Date, ex.Date, DefaultWindowDays) {
			continue
		}
		if TokenSetRatio(key, keys[i]) >= DefaultThreshold {
			return true
		}
	}
	return false
}

// NearDate reports whether two YYYY-MM-DD dates are at most days apart.
// Unparseable dates are never near anything.
func NearDate(d1, d2 string, days int) bool {
	a, err := time.Parse(models.DateLayout, d1)
	if err != nil {
		return false
	}
	b, err := time.Parse(models.DateLayout, d2)
	if err != nil {
		return false
	}
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(days)*24*time.Hour
}

func compositeKey(ev models.Event) string {
	return ev.Company + "-" + string(ev.EventType) + "-" + ev.Date + "-" + ev.Summary
}
