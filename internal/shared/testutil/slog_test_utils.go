package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// LogRecord is one captured slog record with its attributes flattened.
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// recordStore is shared between a handler and the handlers derived from it.
type recordStore struct {
	mu      sync.Mutex
	records []LogRecord
}

// BufferedSlogHandler captures log records in memory. It never writes to the
// test log, so goroutines that outlive a test can still log safely.
type BufferedSlogHandler struct {
	store *recordStore
	attrs []slog.Attr
}

// NewBufferedSlogHandler creates an empty capturing handler.
func NewBufferedSlogHandler() *BufferedSlogHandler {
	return &BufferedSlogHandler{store: &recordStore{}}
}

func (h *BufferedSlogHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.store.mu.Lock()
	h.store.records = append(h.store.records, LogRecord{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	h.store.mu.Unlock()
	return nil
}

func (h *BufferedSlogHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *BufferedSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &BufferedSlogHandler{store: h.store, attrs: merged}
}

// WithGroup flattens groups.
func (h *BufferedSlogHandler) WithGroup(string) slog.Handler {
	return h
}

// Records returns a copy of the captured records matching keep. A nil keep
// returns all of them.
func (h *BufferedSlogHandler) Records(keep func(LogRecord) bool) []LogRecord {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	out := make([]LogRecord, 0, len(h.store.records))
	for _, r := range h.store.records {
		if keep == nil || keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// ContainsMessage reports whether any record message contains message.
func (h *BufferedSlogHandler) ContainsMessage(message string) bool {
	return len(h.Records(func(r LogRecord) bool { return strings.Contains(r.Message, message) })) > 0
}

// Count returns the number of captured records.
func (h *BufferedSlogHandler) Count() int {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return len(h.store.records)
}

// NewTestLogger returns a logger backed by a fresh BufferedSlogHandler.
func NewTestLogger(t *testing.T) (*slog.Logger, *BufferedSlogHandler) {
	t.Helper()
	handler := NewBufferedSlogHandler()
	return slog.New(handler), handler
}

// AssertLogContains fails t unless a record at level contains message.
func AssertLogContains(t *testing.T, handler *BufferedSlogHandler, level slog.Level, message string) {
	t.Helper()

	atLevel := handler.Records(func(r LogRecord) bool { return r.Level == level })
	for _, r := range atLevel {
		if strings.Contains(r.Message, message) {
			return
		}
	}

	t.Errorf("log message %q not found at level %s", message, level)
	for _, r := range atLevel {
		t.Logf("  - %s", r.Message)
	}
}

// AssertLogAttr fails t unless some record carries key=expected.
func AssertLogAttr(t *testing.T, handler *BufferedSlogHandler, key string, expected any) {
	t.Helper()

	matches := handler.Records(func(r LogRecord) bool {
		v, ok := r.Attrs[key]
		return ok && v == expected
	})
	if len(matches) > 0 {
		return
	}

	t.Errorf("log attribute %s=%v not found", key, expected)
	for _, r := range handler.Records(nil) {
		t.Logf("  - %s: %v", r.Message, r.Attrs)
	}
}
