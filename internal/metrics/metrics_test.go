package metrics

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.FeedProcessed("ok", 200*time.Millisecond)
	m.FeedProcessed("ok", time.Second)
	m.FeedProcessed("failed", 0)
	m.EntryOutcome("extracted")
	m.AlertOutcome("skipped")
	m.DatasetWritten(42)
	m.RunFinished(time.Unix(1716300000, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.feeds.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.feeds.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entries.WithLabelValues("extracted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alerts.WithLabelValues("skipped")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.datasetRecords))
	assert.Equal(t, 1716300000.0, testutil.ToFloat64(m.lastRun))
	assert.Equal(t, 1, testutil.CollectAndCount(m.fetchDuration))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.DatasetWritten(7)

	path := filepath.Join(t.TempDir(), "layoffwatch.prom")
	require.NoError(t, m.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "layoffwatch_dataset_records 7")
}

func TestHandler(t *testing.T) {
	m := New()
	m.EntryOutcome("filtered")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `layoffwatch_entries_total{outcome="filtered"} 1`)
}
