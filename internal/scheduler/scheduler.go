package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tinytelemetry/syslog-sniffer/internal/logparse"
	"github.com/tinytelemetry/syslog-sniffer/internal/model"
	"github.com/tinytelemetry/syslog-sniffer/internal/packetsource"
	"github.com/tinytelemetry/syslog-sniffer/internal/stats"
)

// Config controls one capture run. Durations are whole seconds.
type Config struct {
	TotalDuration  uint64
	Periodic       bool
	FlushFrequency uint64 // only used when Periodic is set
	ErrorBackoff   time.Duration
}

// Scheduler pulls frames from a packet source, aggregates the syslog
// messages found in them and emits windowed summaries to a sink.
type Scheduler struct {
	cfg    Config
	source packetsource.Source
	sink   model.SnapshotSink
	logger *slog.Logger
	clock  Clock

	frames    atomic.Uint64
	parsed    atomic.Uint64
	unparsed  atomic.Uint64
	timeouts  atomic.Uint64
	errs      atomic.Uint64
	emissions atomic.Uint64
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates a scheduler. The source must already be open.
func New(cfg Config, source packetsource.Source, sink model.SnapshotSink, opts ...Option) *Scheduler {
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = model.DefaultErrorBackoff
	}
	s := &Scheduler{
		cfg:    cfg,
		source: source,
		sink:   sink,
		logger: slog.Default(),
		clock:  realClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives the capture loop until the configured duration has elapsed or
// ctx is canceled, then performs the final emission. Source errors are
// absorbed; Run itself never fails.
func (s *Scheduler) Run(ctx context.Context) {
	total := time.Duration(s.cfg.TotalDuration) * time.Second
	frequency := time.Duration(s.cfg.FlushFrequency) * time.Second

	s.logger.Debug("scheduler: starting capture loop",
		"datalink", s.source.LinkDescription(),
		"interval", s.cfg.TotalDuration,
		"periodic", s.cfg.Periodic,
		"frequency", s.cfg.FlushFrequency,
	)

	agg := stats.NewAggregator()
	runStart := s.clock.Now()
	lastFlush := runStart

	for s.clock.Now().Sub(runStart) < total && ctx.Err() == nil {
		if s.cfg.Periodic && s.clock.Now().Sub(lastFlush) >= frequency {
			if !agg.IsEmpty() {
				s.emit(agg.Snapshot(s.cfg.FlushFrequency))
				agg.Reset()
			}
			lastFlush = s.clock.Now()
		}
		s.poll(ctx, agg)
	}

	switch {
	case !s.cfg.Periodic:
		s.emit(agg.Snapshot(s.cfg.TotalDuration))
	case !agg.IsEmpty():
		partial := s.clock.Now().Sub(lastFlush) / time.Second
		s.emit(agg.Snapshot(uint64(partial)))
	}
}

// poll pulls a single frame and records any syslog message it carries.
func (s *Scheduler) poll(ctx context.Context, agg *stats.Aggregator) {
	frame, err := s.source.NextFrame(ctx)
	switch {
	case err == nil:
		s.frames.Add(1)
		s.logger.Debug("scheduler: received packet", "len", len(frame))

		msg, ok := logparse.ExtractFrame(frame)
		if !ok {
			s.unparsed.Add(1)
			return
		}
		s.parsed.Add(1)
		agg.Record(msg.Host(), msg.Text)
		s.logger.Debug("scheduler: captured message", "host", msg.Host(), "grammar", msg.Grammar.String(), "message", msg.Text)
	case errors.Is(err, packetsource.ErrNoData):
		s.timeouts.Add(1)
	case ctx.Err() != nil:
		// Canceled mid-read; the loop condition ends the run.
	default:
		s.errs.Add(1)
		s.clock.Sleep(s.cfg.ErrorBackoff)
		s.logger.Debug("scheduler: error capturing packet", "error", err)
	}
}

func (s *Scheduler) emit(snapshot model.StatsSnapshot) {
	if err := s.sink.Emit(snapshot); err != nil {
		s.logger.Error("scheduler: failed to emit summary", "error", err)
		return
	}
	s.emissions.Add(1)
}

// Counters returns cumulative diagnostics. Safe to call from any goroutine.
func (s *Scheduler) Counters() model.CaptureCounters {
	return model.CaptureCounters{
		Frames:    s.frames.Load(),
		Parsed:    s.parsed.Load(),
		Unparsed:  s.unparsed.Load(),
		Timeouts:  s.timeouts.Load(),
		Errors:    s.errs.Load(),
		Emissions: s.emissions.Load(),
	}
}
