package fault

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// IncidentReporter receives the full diagnostic representation of an
// Internal failure, keyed by its incident id. Reporting must not stall
// the response path.
type IncidentReporter interface {
	Report(incidentID string, cls Classification, err error)
}

// NewIncidentID returns a collision-resistant incident identifier.
// Process-local randomness is sufficient; uniqueness is a log
// correlation convenience, not a correctness requirement.
func NewIncidentID() string {
	return uuid.NewString()
}

// IncidentSink is a buffered, fire-and-forget IncidentReporter backed
// by one drain goroutine writing through a slog.Logger. When the buffer
// is full the record is dropped and counted rather than blocking the
// request that is already failing.
type IncidentSink struct {
	log *slog.Logger
	ch  chan incidentRecord

	mu      sync.Mutex
	closed  bool
	done    chan struct{}
	dropped int
}

type incidentRecord struct {
	id  string
	cls Classification
	err error
}

// NewIncidentSink creates a sink with the given buffer size and starts
// its drain goroutine. Close must be called on shutdown to flush.
func NewIncidentSink(log *slog.Logger, buffer int) *IncidentSink {
	if buffer <= 0 {
		buffer = 64
	}
	s := &IncidentSink{
		log:  log,
		ch:   make(chan incidentRecord, buffer),
		done: make(chan struct{}),
	}
	go s.drain()
	return s
}

// Report implements IncidentReporter. It never blocks.
func (s *IncidentSink) Report(incidentID string, cls Classification, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	select {
	case s.ch <- incidentRecord{id: incidentID, cls: cls, err: err}:
		s.mu.Unlock()
	default:
		s.dropped++
		s.mu.Unlock()
	}
}

// Dropped returns the number of records discarded because the buffer
// was full.
func (s *IncidentSink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close stops accepting records and waits for buffered ones to be
// written.
func (s *IncidentSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
	<-s.done
}

func (s *IncidentSink) drain() {
	defer close(s.done)
	for rec := range s.ch {
		// The only place the full unredacted chain leaves the typed-error
		// domain, including causes retained under opaque wrapping.
		s.log.LogAttrs(context.Background(), slog.LevelError, "incident",
			slog.String("incident", rec.id),
			slog.String("error_type", rec.cls.Identifier),
			slog.Int("status", rec.cls.Status),
			slog.String("detail", fmt.Sprintf("%+v", rec.err)),
		)
	}
}
