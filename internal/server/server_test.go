package server

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layoff-watch/tracker/internal/database"
	"layoff-watch/tracker/internal/dataset"
	"layoff-watch/tracker/internal/metrics"
	"layoff-watch/tracker/internal/models"
	"layoff-watch/tracker/internal/server/api"
)

func ev(id, date string, typ models.EventType, headcount int) models.Event {
	return models.Event{
		ID:                id,
		Date:              date,
		Company:           strings.Split(id, "-")[3],
		EventType:         typ,
		HeadcountAffected: headcount,
		Summary:           id,
		SourceURLs:        []string{"http://example.com/" + id},
		Region:            "JP",
		Sector:            "Unknown",
		Tags:              []string{},
	}
}

var fixtures = []models.Event{
	ev("2024-05-10-D社-2000", "2024-05-10", models.EventLayoff, 2000),
	ev("2024-05-21-B社-1500", "2024-05-21", models.EventLayoff, 1500),
	ev("2024-05-20-C社-n", "2024-05-20", models.EventRestructure, 0),
	ev("2024-05-21-A社-300", "2024-05-21", models.EventVoluntaryRetirement, 300),
}

func newTestHandler(t *testing.T, apiKey string) (http.Handler, *metrics.Metrics) {
	t.Helper()
	dir := t.TempDir()

	db, err := database.NewDB(database.NewConfig(filepath.Join(dir, "events.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	_, _, err = db.UpsertEvents(ctx, fixtures)
	require.NoError(t, err)
	require.NoError(t, db.RecordFetch(ctx, "http://a.example/rss", models.FeedStatusOK, 10, 2, nil))
	require.NoError(t, db.RecordFetch(ctx, "http://b.example/rss", models.FeedStatusFailed, 0, 0, errors.New("boom")))

	store := dataset.NewStore(filepath.Join(dir, "layoff_news.json"), 100, zerolog.Nop())
	require.NoError(t, store.Save(fixtures[:2]))

	m := metrics.New()
	return NewHandler(Deps{DB: db, Store: store, Metrics: m}, zerolog.Nop(), apiKey), m
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEvents(t *testing.T, rec *httptest.ResponseRecorder) api.Response {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp api.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func ids(resp api.Response) []string {
	out := []string{}
	for _, e := range resp.Items {
		out = append(out, e.ID)
	}
	return out
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t, "")
	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestEventsPagination(t *testing.T) {
	h, _ := newTestHandler(t, "")

	first := decodeEvents(t, get(t, h, "/v1/events?limit=2"))
	assert.Equal(t, []string{"2024-05-21-A社-300", "2024-05-21-B社-1500"}, ids(first))
	require.NotNil(t, first.NextCursor)

	second := decodeEvents(t, get(t, h, "/v1/events?limit=2&cursor="+*first.NextCursor))
	assert.Equal(t, []string{"2024-05-20-C社-n", "2024-05-10-D社-2000"}, ids(second))
	assert.Nil(t, second.NextCursor)

	all := decodeEvents(t, get(t, h, "/v1/events"))
	require.Len(t, all.Items, 4)
	assert.Equal(t, fixtures[3], all.Items[0])
}

func TestGetEvent(t *testing.T) {
	h, _ := newTestHandler(t, "")

	rec := get(t, h, "/v1/events/"+url.PathEscape("2024-05-21-B社-1500"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, fixtures[1], got)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/v1/events/2024-01-01-none-n").Code)
}

func TestEventsFilters(t *testing.T) {
	h, _ := newTestHandler(t, "")

	tests := []struct {
		query string
		want  []string
	}{
		{"event_type=layoff", []string{"2024-05-21-B社-1500", "2024-05-10-D社-2000"}},
		{"min_headcount=1000", []string{"2024-05-21-B社-1500", "2024-05-10-D社-2000"}},
		{"since=2024-05-20", []string{"2024-05-21-A社-300", "2024-05-21-B社-1500", "2024-05-20-C社-n"}},
		{"since=2024-05-20&event_type=layoff", []string{"2024-05-21-B社-1500"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(decodeEvents(t, get(t, h, "/v1/events?"+tt.query))))
		})
	}
}

func TestEventsBadRequests(t *testing.T) {
	h, _ := newTestHandler(t, "")

	for _, q := range []string{
		"limit=0", "limit=1001", "limit=abc",
		"since=21-05-2024", "event_type=merger", "min_headcount=-1",
		"cursor=not-a-cursor",
	} {
		t.Run(q, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, get(t, h, "/v1/events?"+q).Code)
		})
	}
}

func TestDataset(t *testing.T) {
	h, _ := newTestHandler(t, "")
	rec := get(t, h, "/v1/dataset")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var events []models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Equal(t, fixtures[:2], events)
}

func TestFeedsExport(t *testing.T) {
	h, _ := newTestHandler(t, "")
	rec := get(t, h, "/v1/feeds")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "url", records[0][0])
	assert.Equal(t, []string{"http://a.example/rss", "ok", "0", "", "10", "2"}, records[1][:6])
	assert.Equal(t, []string{"http://b.example/rss", "failed", "1", "boom"}, records[2][:4])
}

func TestMetricsEndpoint(t *testing.T) {
	h, m := newTestHandler(t, "")
	m.DatasetWritten(2)

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "layoffwatch_dataset_records 2")
}

func TestAPIKey(t *testing.T) {
	h, _ := newTestHandler(t, "secret")

	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/v1/events").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/v1/events", "X-API-Key", "wrong").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/v1/events", "X-API-Key", "secret").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t, "")
	req := httptest.NewRequest(http.MethodPost, "/v1/events", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
