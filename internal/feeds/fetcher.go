// Package feeds retrieves RSS/Atom feeds and converts their items into
// entries for extraction.
package feeds

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/mmcdole/gofeed"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"layoff-watch/tracker/internal/models"
)

// MaxEntriesPerFeed caps how many items of a single feed are processed.
const MaxEntriesPerFeed = 50

const DefaultUserAgent = "layoff-watch/1.0 (+https://github.com/layoff-watch/tracker)"

// ErrUnexpectedStatus is returned for non-200 feed responses.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Feed is a fetched and parsed feed.
type Feed struct {
	Title   string
	Entries []models.Entry

	// Warning is set when the document was malformed and only parsed after
	// sanitising.
	Warning error
}

// Fetcher downloads and parses feeds.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a fetcher. A nil client uses a client without a timeout;
// cancellation comes from the context passed to Fetch.
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

// Fetch retrieves and parses the feed at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	return Parse(body)
}

// Parse parses a feed document. A malformed document is sanitised and parsed
// once more; if that succeeds the original error is kept as Feed.Warning.
func Parse(body []byte) (*Feed, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err == nil {
		return newFeed(parsed, nil), nil
	}

	clean, serr := sanitize(body)
	if serr != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	parsed, rerr := gofeed.NewParser().Parse(bytes.NewReader(clean))
	if rerr != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return newFeed(parsed, err), nil
}

func newFeed(parsed *gofeed.Feed, warning error) *Feed {
	feed := &Feed{
		Title:   parsed.Title,
		Entries: make([]models.Entry, 0, len(parsed.Items)),
		Warning: warning,
	}
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		feed.Entries = append(feed.Entries, ToEntry(item))
	}
	return feed
}

var reBareAmp = regexp.MustCompile(`&(#[0-9]+;|#[xX][0-9a-fA-F]+;|[A-Za-z][A-Za-z0-9]*;)?`)

func isIllegalXML(r rune) bool {
	return !(r == 0x09 ||
		r == 0x0A ||
		r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF)
}

// sanitize removes characters XML forbids and escapes ampersands that do not
// start an entity reference.
func sanitize(body []byte) ([]byte, error) {
	clean, _, err := transform.Bytes(runes.Remove(runes.Predicate(isIllegalXML)), body)
	if err != nil {
		return nil, err
	}
	return reBareAmp.ReplaceAllFunc(clean, func(m []byte) []byte {
		if len(m) == 1 {
			return []byte("&amp;")
		}
		return m
	}), nil
}
