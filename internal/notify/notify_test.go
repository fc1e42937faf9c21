package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layoff-watch/tracker/internal/models"
)

type recordingSender struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (r *recordingSender) Send(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return r.err
}

func event(id string, headcount int, urls ...string) models.Event {
	if urls == nil {
		urls = []string{}
	}
	return models.Event{
		ID:                id,
		Date:              "2024-05-21",
		Company:           "A社",
		EventType:         models.EventLayoff,
		HeadcountAffected: headcount,
		SourceURLs:        urls,
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "[High] 2024-05-21 A社 layoff 影響人数=1500\nhttp://x.jp/1",
		Format(event("a", 1500, "http://x.jp/1", "http://x.jp/2")))
	assert.Equal(t, "[High] 2024-05-21 A社 layoff 影響人数=1500\n",
		Format(event("a", 1500)))
}

func TestNotifyThreshold(t *testing.T) {
	sender := &recordingSender{}
	n := New(sender, 0, zerolog.Nop())

	out := n.Notify(context.Background(), []models.Event{
		event("big", 1500, "http://x.jp/1"),
		event("small", 400),
		event("edge", 1000),
		event("below", 999),
	})

	require.Len(t, out, 2)
	assert.Equal(t, "big", out[0].EventID)
	assert.Equal(t, "edge", out[1].EventID)
	assert.Equal(t, StatusSent, out[0].Status)
	assert.Len(t, sender.texts, 2)
}

func TestNotifySingleDispatch(t *testing.T) {
	sender := &recordingSender{}
	n := New(sender, DefaultThreshold, zerolog.Nop())

	n.Notify(context.Background(), []models.Event{event("big", 1500)})
	assert.Len(t, sender.texts, 1)

	sender.texts = nil
	assert.Empty(t, n.Notify(context.Background(), []models.Event{event("small", 400)}))
	assert.Empty(t, sender.texts)
}

func TestNotifyWithoutSenderLogsOnly(t *testing.T) {
	var buf bytes.Buffer
	n := New(nil, 0, zerolog.New(&buf))

	out := n.Notify(context.Background(), []models.Event{event("big", 2000)})
	require.Len(t, out, 1)
	assert.Equal(t, StatusSkipped, out[0].Status)
	assert.Contains(t, buf.String(), `"message":"alert_high"`)
	assert.Contains(t, buf.String(), `"headcount":2000`)
}

func TestNotifyFailureIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("boom")}
	n := New(sender, 0, zerolog.Nop())

	out := n.Notify(context.Background(), []models.Event{event("one", 1500), event("two", 3000)})
	require.Len(t, out, 2)
	for _, o := range out {
		assert.Equal(t, StatusFailed, o.Status)
		assert.EqualError(t, o.Err, "boom")
	}
	assert.Len(t, sender.texts, 2, "failure must not stop later alerts")
}

func TestWebhookSender(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL)
	require.NotNil(t, s)
	require.NoError(t, s.Send(context.Background(), "[High] 影響人数=1500\n"))
	assert.Equal(t, "[High] 影響人数=1500\n", got["text"])
}

func TestWebhookSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewWebhookSender(srv.URL).Send(context.Background(), "x")
	assert.ErrorContains(t, err, "status 500")
}

func TestNewWebhookSenderEmpty(t *testing.T) {
	assert.Nil(t, NewWebhookSender(""))
}
