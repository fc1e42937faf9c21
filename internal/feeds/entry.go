package feeds

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"layoff-watch/tracker/internal/models"
)

// ToEntry converts a parsed feed item. The summary is the item description,
// falling back to its content, reduced to plain text.
func ToEntry(item *gofeed.Item) models.Entry {
	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}

	return models.Entry{
		Title:     plainText(item.Title),
		Summary:   plainText(summary),
		Link:      strings.TrimSpace(item.Link),
		Published: item.PublishedParsed,
		Updated:   item.UpdatedParsed,
	}
}

// plainText strips markup from s. Strings without markup are returned as is.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
