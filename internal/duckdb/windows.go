package duckdb

import (
	"fmt"
	"sort"

	"github.com/tinytelemetry/syslog-sniffer/internal/model"
)

// Emit records one emitted window and its per-host rows in a single
// transaction. It satisfies model.SnapshotSink.
func (s *Store) Emit(snapshot model.StatsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin window insert: %w", err)
	}
	defer tx.Rollback()

	var windowID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO windows (emitted_at, interval_seconds, host_count, message_count)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		s.now().UTC(), int64(snapshot.IntervalSeconds), int64(len(snapshot.Hosts)), int64(snapshot.MessageCount()),
	).Scan(&windowID)
	if err != nil {
		return fmt.Errorf("insert window: %w", err)
	}

	hosts := make([]string, 0, len(snapshot.Hosts))
	for name := range snapshot.Hosts {
		hosts = append(hosts, name)
	}
	sort.Strings(hosts)

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO window_hosts (window_id, hostname, messages, sample) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare window hosts: %w", err)
	}
	defer stmt.Close()

	for _, name := range hosts {
		rec := snapshot.Hosts[name]
		if _, err := stmt.ExecContext(ctx, windowID, name, int64(rec.Count), rec.Sample); err != nil {
			return fmt.Errorf("insert window host %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit window: %w", err)
	}
	return nil
}

// Windows returns the most recent windows, newest first.
func (s *Store) Windows(limit int) ([]model.WindowSummary, error) {
	if limit <= 0 {
		limit = model.DefaultHistoryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, emitted_at, interval_seconds, host_count, message_count
		 FROM windows ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WindowSummary
	for rows.Next() {
		var w model.WindowSummary
		var interval int64
		if err := rows.Scan(&w.ID, &w.EmittedAt, &interval, &w.HostCount, &w.MessageCount); err != nil {
			return nil, err
		}
		w.IntervalSeconds = uint64(interval)
		out = append(out, w)
	}
	return out, rows.Err()
}

// HostTotals returns message totals per host across every emitted window.
func (s *Store) HostTotals(limit int) ([]model.DimensionCount, error) {
	if limit <= 0 {
		limit = model.DefaultHistoryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT hostname, CAST(SUM(messages) AS BIGINT) AS total
		 FROM window_hosts
		 GROUP BY hostname
		 ORDER BY total DESC, hostname
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DimensionCount
	for rows.Next() {
		var dc model.DimensionCount
		if err := rows.Scan(&dc.Value, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}
