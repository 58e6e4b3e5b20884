// Package collection keeps an in-memory copy of one entity collection in sync
// with the data service. A Collection refetches wholesale on mount, after every
// write made through it, and whenever the realtime bus reports a change on one
// of its watched tables.
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ganot/taskdeck/internal/realtime"
)

// FetchFunc loads the full collection for a session.
type FetchFunc[T any] func(ctx context.Context, sessionID string) ([]T, error)

// Source is a per-table live-update subscription shared with other
// collections. *realtime.Multiplexer implements it.
type Source interface {
	Table() string
	Subscribe(ctx context.Context, sessionID string)
	Unsubscribe()
}

// Options configures a Collection.
type Options struct {
	// Name labels logs and metrics.
	Name    string
	Bus     *realtime.Bus
	Sources []Source
	Logger  *slog.Logger
}

// Collection is the authoritative in-memory copy of one entity collection.
type Collection[T any] struct {
	name    string
	fetch   FetchFunc[T]
	bus     *realtime.Bus
	sources []Source
	logger  *slog.Logger

	mu      sync.Mutex
	items   []T
	loading bool
	session string
	// issued is the sequence number of the latest Refetch; responses from
	// earlier requests are discarded.
	issued    uint64
	version   uint64
	mounted   bool
	events    <-chan realtime.Event
	observers []func()

	wg sync.WaitGroup
}

// New creates an unmounted collection.
func New[T any](fetch FetchFunc[T], opts Options) *Collection[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Collection[T]{
		name:    opts.Name,
		fetch:   fetch,
		bus:     opts.Bus,
		sources: opts.Sources,
		logger:  logger.With("collection", opts.Name),
	}
}

// Mount binds the collection to sessionID, subscribes its live-update sources,
// starts listening for change events and performs the initial fetch. Fetch
// failures are logged and leave the collection empty. Mounting twice is a
// no-op.
func (c *Collection[T]) Mount(ctx context.Context, sessionID string) {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.session = sessionID
	c.mu.Unlock()

	for _, src := range c.sources {
		src.Subscribe(ctx, sessionID)
	}

	if c.bus != nil && len(c.sources) > 0 {
		topics := make([]string, 0, len(c.sources))
		for _, src := range c.sources {
			topics = append(topics, src.Table())
		}
		// One slot: events arriving while a refetch is pending coalesce.
		events := c.bus.Subscribe(1, topics...)
		c.mu.Lock()
		c.events = events
		c.mu.Unlock()

		c.wg.Add(1)
		go c.listen(context.WithoutCancel(ctx), events)
	}

	_ = c.Refetch(ctx)
}

func (c *Collection[T]) listen(ctx context.Context, events <-chan realtime.Event) {
	defer c.wg.Done()
	for ev := range events {
		c.logger.Debug("change received", "table", ev.Topic, "op", ev.Change.Op, "seq", ev.Seq)
		_ = c.Refetch(ctx)
	}
}

// Unmount stops reacting to change events and releases the live-update
// sources. Fetches already in flight are not cancelled.
func (c *Collection[T]) Unmount() {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = false
	events := c.events
	c.events = nil
	c.mu.Unlock()

	if events != nil {
		c.bus.Unsubscribe(events)
	}
	c.wg.Wait()

	for _, src := range c.sources {
		src.Unsubscribe()
	}
}

// Refetch reloads the whole collection. Only the most recently issued request
// may apply its result; a failed latest request empties the collection and
// returns the error. Without a session the collection is emptied and nothing
// is fetched.
func (c *Collection[T]) Refetch(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	if session == "" {
		c.items = nil
		c.loading = false
		c.mu.Unlock()
		return nil
	}
	c.issued++
	seq := c.issued
	c.loading = true
	c.mu.Unlock()

	start := time.Now()
	items, err := c.fetch(ctx, session)
	fetchDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())

	c.mu.Lock()
	if seq != c.issued {
		c.mu.Unlock()
		refetches.WithLabelValues(c.name, "stale").Inc()
		c.logger.Debug("discarding stale fetch", "seq", seq)
		return nil
	}
	c.loading = false
	c.version++
	if err != nil {
		c.items = nil
	} else {
		c.items = items
	}
	observers := append([]func(){}, c.observers...)
	c.mu.Unlock()

	for _, fn := range observers {
		fn()
	}

	if err != nil {
		refetches.WithLabelValues(c.name, "error").Inc()
		c.logger.Error("refetch failed", "session_id", session, "error", err)
		return fmt.Errorf("refetch %s: %w", c.name, err)
	}
	refetches.WithLabelValues(c.name, "applied").Inc()
	return nil
}

// Items returns a copy of the current collection.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Loading reports whether the latest fetch is still in flight.
func (c *Collection[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Version increases every time a fetch result is applied.
func (c *Collection[T]) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Session returns the mounted session identifier.
func (c *Collection[T]) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Name returns the collection's label.
func (c *Collection[T]) Name() string {
	return c.name
}

// OnChange registers fn to run after every applied fetch. fn must not block.
func (c *Collection[T]) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}
