package realtime

import (
	"sort"

	"github.com/ganot/taskdeck/internal/dataservice"
)

// Registry holds one Multiplexer per resource table, all publishing on one
// Bus. Build it once at startup and hand its multiplexers to consumers.
type Registry struct {
	bus   *Bus
	muxes map[string]*Multiplexer
}

// NewRegistry creates a multiplexer for each table.
func NewRegistry(feed dataservice.Feed, bus *Bus, opts Options, tables ...string) *Registry {
	r := &Registry{
		bus:   bus,
		muxes: make(map[string]*Multiplexer, len(tables)),
	}
	for _, t := range tables {
		r.muxes[t] = NewMultiplexer(t, feed, bus, opts)
	}
	return r
}

// Bus returns the shared event bus.
func (r *Registry) Bus() *Bus {
	return r.bus
}

// Multiplexer returns the multiplexer for table, or nil if none was built.
func (r *Registry) Multiplexer(table string) *Multiplexer {
	return r.muxes[table]
}

// Statuses returns the status of every multiplexer ordered by table.
func (r *Registry) Statuses() []Status {
	out := make([]Status, 0, len(r.muxes))
	for _, m := range r.muxes {
		out = append(out, m.Status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out
}

// Close closes every multiplexer.
func (r *Registry) Close() {
	for _, m := range r.muxes {
		m.Close()
	}
}
