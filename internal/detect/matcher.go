package detect

import (
	"strings"

	"layoff-watch/tracker/internal/models"
)

// Matcher tests text against a rule table. The zero value matches nothing;
// build one with NewMatcher.
type Matcher struct {
	table Table
	lower []string // lowercased Keywords, same order
}

// NewMatcher returns a Matcher over a private copy of t.
func NewMatcher(t Table) *Matcher {
	t = t.clone()
	lower := make([]string, len(t.Keywords))
	for i, kw := range t.Keywords {
		lower[i] = strings.ToLower(kw)
	}
	return &Matcher{table: t, lower: lower}
}

// Table returns a copy of the rule table the matcher was built from.
func (m *Matcher) Table() Table {
	return m.table.clone()
}

// Match reports whether any keyword occurs in text. A keyword matches either
// verbatim or after lowercasing both sides, which makes Latin keywords
// case-insensitive while CJK keywords (unchanged by lowercasing) stay exact.
func (m *Matcher) Match(text string) bool {
	low := strings.ToLower(text)
	for i, kw := range m.table.Keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) || strings.Contains(low, m.lower[i]) {
			return true
		}
	}
	return false
}

// Tags returns the keywords occurring verbatim in text, in keyword-list order.
func (m *Matcher) Tags(text string) []string {
	tags := []string{}
	for _, kw := range m.table.Keywords {
		if kw != "" && strings.Contains(text, kw) {
			tags = append(tags, kw)
		}
	}
	return tags
}

// Classify picks the event type for text. Bands are checked in priority
// order: voluntary retirement (verbatim), layoff (verbatim or lowercased),
// restructure (lowercased). Text matching no band is a restructure.
func (m *Matcher) Classify(text string) models.EventType {
	low := strings.ToLower(text)

	for _, kw := range m.table.VoluntaryRetirement {
		if kw != "" && strings.Contains(text, kw) {
			return models.EventVoluntaryRetirement
		}
	}
	for _, kw := range m.table.Layoff {
		if kw != "" && (strings.Contains(text, kw) || strings.Contains(low, kw)) {
			return models.EventLayoff
		}
	}
	for _, kw := range m.table.Restructure {
		if kw != "" && strings.Contains(low, kw) {
			return models.EventRestructure
		}
	}
	return models.EventRestructure
}
