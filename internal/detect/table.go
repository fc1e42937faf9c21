package detect

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNoKeywords is returned when a rule table ends up without detection keywords.
var ErrNoKeywords = errors.New("rule table has no detection keywords")

// Table holds the detection keywords and the per-event-type keyword bands used
// for classification. Tables are plain values; callers get their own copy.
type Table struct {
	// Keywords is the bilingual detection list. Its order is the order of Event.Tags.
	Keywords []string `yaml:"keywords"`

	// Classification bands, checked in this priority order.
	VoluntaryRetirement []string `yaml:"voluntary_retirement"`
	Layoff              []string `yaml:"layoff"`
	Restructure         []string `yaml:"restructure"`
}

// DefaultTable returns the built-in Japanese + English rule table.
func DefaultTable() Table {
	return Table{
		Keywords: []string{
			// Japanese
			"リストラ",
			"レイオフ",
			"人員削減",
			"人員整理",
			"人員減",
			"希望退職",
			"希望退職者",
			"早期希望退職",
			"早期退職",
			"早期優遇退職",
			// English
			"layoff",
			"layoffs",
			"job cut",
			"job cuts",
			"job reduction",
			"reduce workforce",
			"restructuring",
			"restructure",
			"redundancies",
		},
		VoluntaryRetirement: []string{"希望退職", "早期退職", "早期優遇退職"},
		Layoff: []string{
			"リストラ", "レイオフ", "人員削減", "人員整理",
			"layoff", "layoffs", "job cut", "job cuts", "redundancies",
		},
		Restructure: []string{"restructure", "restructuring"},
	}
}

// LoadTable reads a YAML rule file. Lists missing from the file keep their
// default values.
func LoadTable(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read rules: %w", err)
	}
	var override Table
	if err := yaml.Unmarshal(b, &override); err != nil {
		return Table{}, fmt.Errorf("parse rules %s: %w", path, err)
	}

	t := DefaultTable()
	if len(override.Keywords) > 0 {
		t.Keywords = override.Keywords
	}
	if len(override.VoluntaryRetirement) > 0 {
		t.VoluntaryRetirement = override.VoluntaryRetirement
	}
	if len(override.Layoff) > 0 {
		t.Layoff = override.Layoff
	}
	if len(override.Restructure) > 0 {
		t.Restructure = override.Restructure
	}
	if err := t.Validate(); err != nil {
		return Table{}, fmt.Errorf("rules %s: %w", path, err)
	}
	return t, nil
}

// Validate checks that the table can detect anything at all.
func (t Table) Validate() error {
	for _, kw := range t.Keywords {
		if kw != "" {
			return nil
		}
	}
	return ErrNoKeywords
}

// clone returns a deep copy so a Matcher never aliases caller slices.
func (t Table) clone() Table {
	return Table{
		Keywords:            append([]string(nil), t.Keywords...),
		VoluntaryRetirement: append([]string(nil), t.VoluntaryRetirement...),
		Layoff:              append([]string(nil), t.Layoff...),
		Restructure:         append([]string(nil), t.Restructure...),
	}
}
