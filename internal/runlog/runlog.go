// Package runlog writes the append-only JSON-lines log of a tracker run.
package runlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// TimestampField is the key of the event timestamp in every record.
	TimestampField = "ts"

	timestampLayout = "2006-01-02T15:04:05.000000-07:00"
)

var jst = time.FixedZone("JST", 9*60*60)

// Options configures Open.
type Options struct {
	Dir string

	// Console receives a human-readable copy of records at ConsoleLevel and
	// above. Nil disables the copy.
	Console      io.Writer
	ConsoleLevel zerolog.Level

	Now func() time.Time
}

// Log is the logger of a single run together with its backing file.
type Log struct {
	zerolog.Logger

	Path  string
	RunID string

	file *os.File
}

// FileName returns the daily log file name for t, dated in Japan time.
func FileName(t time.Time) string {
	return fmt.Sprintf("fetch_%s.jsonl", t.In(jst).Format("20060102"))
}

// Open creates the log directory if needed and opens today's log file for
// appending.
func Open(opts Options) (*Log, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(opts.Dir, FileName(now()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	var w io.Writer = file
	if opts.Console != nil {
		console := zerolog.ConsoleWriter{
			Out:          opts.Console,
			TimeFormat:   "2006-01-02 15:04:05",
			PartsExclude: []string{zerolog.TimestampFieldName},
			NoColor:      opts.Console != os.Stderr,
		}
		w = zerolog.MultiLevelWriter(file, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: console},
			Level:  opts.ConsoleLevel,
		})
	}

	runID := uuid.NewString()
	logger := zerolog.New(w).
		Hook(zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
			e.Str(TimestampField, now().In(jst).Format(timestampLayout))
		})).
		With().Str("run_id", runID).Logger()

	return &Log{Logger: logger, Path: path, RunID: runID, file: file}, nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	return l.file.Close()
}
