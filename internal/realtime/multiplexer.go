// Package realtime shares one change-feed connection per resource table
// across every consumer in the process and rebroadcasts its notifications on
// an in-process Bus.
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ganot/taskdeck/internal/dataservice"
)

// DefaultGraceDelay is how long a handle with no consumers stays open.
const DefaultGraceDelay = 100 * time.Millisecond

// State is the connection status of a multiplexer's handle.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateActive     State = "active"
)

// Status is a point-in-time view of a multiplexer.
type Status struct {
	Table   string `json:"table"`
	State   State  `json:"state"`
	Session string `json:"session,omitempty"`
	Refs    int    `json:"refs"`
}

// Options configures a Multiplexer.
type Options struct {
	GraceDelay time.Duration
	Logger     *slog.Logger
}

// Multiplexer owns at most one change-feed subscription for one table. Any
// number of consumers call Subscribe/Unsubscribe; the connection is opened by
// the first and closed a grace delay after the last leaves.
type Multiplexer struct {
	table  string
	feed   dataservice.Feed
	bus    *Bus
	grace  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	refs    int
	state   State
	session string
	sub     dataservice.Subscription
	// generation changes whenever the current handle is abandoned; a connect
	// or notification carrying an older generation is stale.
	generation uint64
	timer      *time.Timer
	closed     bool
}

// NewMultiplexer creates an idle multiplexer for table.
func NewMultiplexer(table string, feed dataservice.Feed, bus *Bus, opts Options) *Multiplexer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	grace := opts.GraceDelay
	if grace <= 0 {
		grace = DefaultGraceDelay
	}
	return &Multiplexer{
		table:  table,
		feed:   feed,
		bus:    bus,
		grace:  grace,
		logger: logger.With("table", table),
		state:  StateIdle,
	}
}

// Table returns the resource table this multiplexer serves.
func (m *Multiplexer) Table() string {
	return m.table
}

// Subscribe registers one consumer for sessionID. A connection is opened
// unless one is already connecting or active for the same session; a handle
// owned by another session is torn down first. Connection failures are logged
// and leave the multiplexer idle so the next Subscribe retries.
func (m *Multiplexer) Subscribe(ctx context.Context, sessionID string) {
	m.mu.Lock()
	m.refs++
	consumers.WithLabelValues(m.table).Set(float64(m.refs))

	if m.closed || sessionID == "" {
		m.mu.Unlock()
		return
	}
	if m.state != StateIdle && m.session == sessionID {
		m.mu.Unlock()
		return
	}

	previous := m.sub
	hadPrevious := m.state == StateActive
	previousSession := m.session

	m.generation++
	gen := m.generation
	m.state = StateConnecting
	m.session = sessionID
	m.sub = dataservice.Subscription{}
	m.mu.Unlock()

	if hadPrevious {
		m.logger.Info("realtime session changed", "from", previousSession, "to", sessionID)
		m.release(previous, "session_change")
	}

	m.connect(ctx, gen, sessionID)
}

func (m *Multiplexer) connect(ctx context.Context, gen uint64, sessionID string) {
	m.logger.Debug("opening realtime subscription", "session_id", sessionID)

	sub, err := m.feed.Subscribe(ctx, m.table, func(change dataservice.Change) {
		m.notify(gen, change)
	})

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		connectAttempts.WithLabelValues(m.table, "superseded").Inc()
		if err == nil {
			if uerr := m.feed.Unsubscribe(sub); uerr != nil {
				m.logger.Warn("failed to close superseded subscription", "error", uerr)
			}
		}
		return
	}
	if err != nil {
		m.state = StateIdle
		m.session = ""
		m.mu.Unlock()
		connectAttempts.WithLabelValues(m.table, "error").Inc()
		m.logger.Warn("realtime subscription failed", "session_id", sessionID, "error", err)
		return
	}
	m.state = StateActive
	m.sub = sub
	m.mu.Unlock()

	connectAttempts.WithLabelValues(m.table, "ok").Inc()
	openHandles.WithLabelValues(m.table).Inc()
	m.logger.Info("realtime subscription active", "session_id", sessionID)
}

func (m *Multiplexer) notify(gen uint64, change dataservice.Change) {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return
	}
	session := m.session
	m.mu.Unlock()

	broadcasts.WithLabelValues(m.table).Inc()
	m.bus.Publish(Event{Topic: m.table, Session: session, Change: change})
}

// Unsubscribe releases one consumer. The count never drops below zero. When
// the grace delay passes with no consumers the handle is closed.
func (m *Multiplexer) Unsubscribe() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refs > 0 {
		m.refs--
	}
	consumers.WithLabelValues(m.table).Set(float64(m.refs))

	if m.closed {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.grace, m.reap)
}

func (m *Multiplexer) reap() {
	m.mu.Lock()
	if m.closed || m.refs > 0 || m.state == StateIdle {
		m.mu.Unlock()
		return
	}
	previous := m.sub
	hadPrevious := m.state == StateActive
	m.generation++
	m.state = StateIdle
	m.session = ""
	m.sub = dataservice.Subscription{}
	m.mu.Unlock()

	m.logger.Info("closing idle realtime subscription")
	if hadPrevious {
		m.release(previous, "grace")
	}
}

// release closes a subscription that reached StateActive.
func (m *Multiplexer) release(sub dataservice.Subscription, reason string) {
	openHandles.WithLabelValues(m.table).Dec()
	teardowns.WithLabelValues(m.table, reason).Inc()
	if err := m.feed.Unsubscribe(sub); err != nil {
		m.logger.Warn("failed to close realtime subscription", "reason", reason, "error", err)
	}
}

// Status reports the current state.
func (m *Multiplexer) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Table:   m.table,
		State:   m.state,
		Session: m.session,
		Refs:    m.refs,
	}
}

// Close stops the grace timer and closes any open handle. Later Subscribe
// calls only count consumers.
func (m *Multiplexer) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	previous := m.sub
	hadPrevious := m.state == StateActive
	m.generation++
	m.state = StateIdle
	m.session = ""
	m.sub = dataservice.Subscription{}
	m.mu.Unlock()

	if hadPrevious {
		m.release(previous, "close")
	}
}
