package model

// SnapshotSink receives every emitted window.
type SnapshotSink interface {
	Emit(snapshot StatsSnapshot) error
}

// HistoryReader provides read-only access to the windows emitted so far.
type HistoryReader interface {
	Windows(limit int) ([]WindowSummary, error)
	HostTotals(limit int) ([]DimensionCount, error)
	ExecuteQuery(query string) ([]map[string]interface{}, error)
}

// CounterSource exposes live scheduler diagnostics.
type CounterSource interface {
	Counters() CaptureCounters
}
