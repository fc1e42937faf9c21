package feeds

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>経済ニュース</title>
<item>
<title>A社 希望退職300人を発表</title>
<link>http://example.com/a</link>
<description>&lt;p&gt;A社は&lt;b&gt;希望退職&lt;/b&gt;を募集&lt;/p&gt;</description>
<pubDate>Mon, 20 May 2024 09:00:00 +0900</pubDate>
</item>
<item>
<title>Acme cuts jobs</title>
<link>http://example.com/b</link>
</item>
</channel>
</rss>`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := serve(t, http.StatusOK, rssFixture)

	feed, err := NewFetcher(srv.Client(), "test-agent").Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.NoError(t, feed.Warning)
	assert.Equal(t, "経済ニュース", feed.Title)
	require.Len(t, feed.Entries, 2)

	first := feed.Entries[0]
	assert.Equal(t, "A社 希望退職300人を発表", first.Title)
	assert.Equal(t, "A社は希望退職を募集", first.Summary)
	assert.Equal(t, "http://example.com/a", first.Link)
	require.NotNil(t, first.Published)
	assert.True(t, first.Published.Equal(time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)))

	second := feed.Entries[1]
	assert.Equal(t, "", second.Summary)
	assert.Nil(t, second.Published)
	assert.Nil(t, second.Updated)
}

func TestFetchUnexpectedStatus(t *testing.T) {
	srv := serve(t, http.StatusNotFound, "gone")

	_, err := NewFetcher(srv.Client(), "test-agent").Fetch(context.Background(), srv.URL)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
}

func TestFetchCancelled(t *testing.T) {
	srv := serve(t, http.StatusOK, rssFixture)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(srv.Client(), "test-agent").Fetch(ctx, srv.URL)
	assert.Error(t, err)
}

func TestParseMalformedRecovers(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>t</title>
<item><title>B社 早期退職` + "\x01" + `を募集</title><link>http://example.com/b</link></item>
</channel></rss>`

	feed, err := Parse([]byte(body))
	require.NoError(t, err)
	assert.Error(t, feed.Warning)
	require.Len(t, feed.Entries, 1)
	assert.Equal(t, "B社 早期退職を募集", feed.Entries[0].Title)
}

func TestParseGarbage(t *testing.T) {
	_, err := Parse([]byte("this is not a feed"))
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	out, err := sanitize([]byte("a\x01b & c &amp; d &#38; e &#x26; f\x0b"))
	require.NoError(t, err)
	assert.Equal(t, "ab &amp; c &amp; d &#38; e &#x26; f", string(out))

	out, err = sanitize([]byte("日本語\tOK\n"))
	require.NoError(t, err)
	assert.Equal(t, "日本語\tOK\n", string(out))
}

func TestToEntry(t *testing.T) {
	pub := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		item *gofeed.Item
		want string
	}{
		{"description", &gofeed.Item{Description: "plain text"}, "plain text"},
		{"html description", &gofeed.Item{Description: "<div>人員 <i>削減</i></div>"}, "人員 削減"},
		{"content fallback", &gofeed.Item{Content: "<p>from content</p>"}, "from content"},
		{"blank description", &gofeed.Item{Description: "  ", Content: "body"}, "body"},
		{"entity", &gofeed.Item{Description: "AT&amp;T"}, "AT&T"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.item.Title = "title"
			tt.item.Link = " http://example.com/x "
			tt.item.PublishedParsed = &pub

			e := ToEntry(tt.item)
			assert.Equal(t, tt.want, e.Summary)
			assert.Equal(t, "title", e.Title)
			assert.Equal(t, "http://example.com/x", e.Link)
			assert.Equal(t, &pub, e.Published)
		})
	}
}
