package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tinytelemetry/syslog-sniffer/internal/model"
)

// JSONSink writes each snapshot as one pretty-printed JSON object.
type JSONSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONSink creates a sink writing to w (usually stdout).
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w}
}

func (s *JSONSink) Emit(snapshot model.StatsSnapshot) error {
	if snapshot.Hosts == nil {
		snapshot.Hosts = map[string]model.HostRecord{}
	}
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(out.Bytes()); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Latest remembers the most recent snapshot for read surfaces.
type Latest struct {
	mu       sync.RWMutex
	snapshot model.StatsSnapshot
	count    uint64
}

func (l *Latest) Emit(snapshot model.StatsSnapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshot = snapshot
	l.count++
	return nil
}

// Snapshot returns the latest snapshot and whether any was emitted yet.
func (l *Latest) Snapshot() (model.StatsSnapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot, l.count > 0
}

// Count returns how many snapshots have been emitted.
func (l *Latest) Count() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Multi fans a snapshot out to several sinks. A failing sink is logged and
// does not keep the others from receiving the snapshot.
type Multi struct {
	sinks  []model.SnapshotSink
	logger *slog.Logger
}

// NewMulti drops nil sinks.
func NewMulti(logger *slog.Logger, sinks ...model.SnapshotSink) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Multi{logger: logger}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Emit returns the first error encountered, after every sink has run.
func (m *Multi) Emit(snapshot model.StatsSnapshot) error {
	var first error
	for _, s := range m.sinks {
		if err := s.Emit(snapshot); err != nil {
			m.logger.Warn("report: sink failed", "sink", fmt.Sprintf("%T", s), "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
