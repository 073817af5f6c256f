package stats

import "github.com/tinytelemetry/syslog-sniffer/internal/model"

// Aggregator accumulates per-host message counts for the current window.
// It is owned by a single goroutine and is not safe for concurrent use.
type Aggregator struct {
	hosts map[string]*model.HostRecord
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{hosts: make(map[string]*model.HostRecord)}
}

// Record counts one message for hostname. The first message seen for a
// host becomes its sample; later messages only bump the count.
func (a *Aggregator) Record(hostname, message string) {
	if rec, ok := a.hosts[hostname]; ok {
		rec.Count++
		return
	}
	a.hosts[hostname] = &model.HostRecord{Count: 1, Sample: message}
}

func (a *Aggregator) IsEmpty() bool { return len(a.hosts) == 0 }

// Len returns the number of distinct hosts in the window.
func (a *Aggregator) Len() int { return len(a.hosts) }

// Reset drops every record.
func (a *Aggregator) Reset() {
	clear(a.hosts)
}

// Snapshot copies the current records into a summary labeled with
// windowSeconds. The aggregator is left untouched.
func (a *Aggregator) Snapshot(windowSeconds uint64) model.StatsSnapshot {
	hosts := make(map[string]model.HostRecord, len(a.hosts))
	for name, rec := range a.hosts {
		hosts[name] = *rec
	}
	return model.StatsSnapshot{
		IntervalSeconds: windowSeconds,
		Hosts:           hosts,
	}
}
