package models

import "time"

// Entry is a single feed item reduced to the fields the extractor reads.
type Entry struct {
	Title     string
	Summary   string
	Link      string
	Published *time.Time
	Updated   *time.Time
}

// Text returns title and summary joined by a newline, the form the keyword
// matcher and event classifier operate on.
func (e Entry) Text() string {
	return e.Title + "\n" + e.Summary
}

// JoinedText returns title and summary concatenated without a separator, the
// form tag collection and headcount extraction operate on.
func (e Entry) JoinedText() string {
	return e.Title + e.Summary
}
