package model

import "time"

// UnknownHost is the host key used when a message parsed but carried no
// recognizable hostname field.
const UnknownHost = "Unknown"

// HeaderGrammar identifies which syslog header layout matched a message.
type HeaderGrammar int

const (
	GrammarNone HeaderGrammar = iota
	GrammarRFC5424
	GrammarRFC3164
)

func (g HeaderGrammar) String() string {
	switch g {
	case GrammarRFC5424:
		return "rfc5424"
	case GrammarRFC3164:
		return "rfc3164"
	default:
		return "none"
	}
}

// ParsedMessage is one syslog message extracted from a captured frame.
// Text holds the decoded payload verbatim, PRI and timestamp included.
type ParsedMessage struct {
	Text        string
	Hostname    string
	HasHostname bool
	Grammar     HeaderGrammar
}

// Host returns the hostname, or UnknownHost when none was found.
func (m ParsedMessage) Host() string {
	if m.HasHostname {
		return m.Hostname
	}
	return UnknownHost
}

// HostRecord is the per-host tally for one window. Sample is the text of
// the first message recorded for the host and never changes afterwards.
type HostRecord struct {
	Count  uint64 `json:"count"`
	Sample string `json:"sample"`
}

// StatsSnapshot is an immutable copy of the aggregator state labeled with
// the length of the window it covers.
type StatsSnapshot struct {
	IntervalSeconds uint64                `json:"interval_seconds"`
	Hosts           map[string]HostRecord `json:"hosts"`
}

// MessageCount sums the per-host counts.
func (s StatsSnapshot) MessageCount() uint64 {
	var total uint64
	for _, rec := range s.Hosts {
		total += rec.Count
	}
	return total
}

// WindowSummary describes one emitted window as kept in the run history.
type WindowSummary struct {
	ID              int64     `json:"id"`
	EmittedAt       time.Time `json:"emitted_at"`
	IntervalSeconds uint64    `json:"interval_seconds"`
	HostCount       int64     `json:"host_count"`
	MessageCount    int64     `json:"message_count"`
}

// DimensionCount represents grouped counts by a single dimension value
// (for example hostname).
type DimensionCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// CaptureCounters are cumulative diagnostics for one scheduler run.
type CaptureCounters struct {
	Frames    uint64 `json:"frames"`
	Parsed    uint64 `json:"parsed"`
	Unparsed  uint64 `json:"unparsed"`
	Timeouts  uint64 `json:"timeouts"`
	Errors    uint64 `json:"errors"`
	Emissions uint64 `json:"emissions"`
}
