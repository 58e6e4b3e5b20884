package dashboard

import (
	"context"
	"sync"
)

// Manager hands out one shared Dashboard per session. A dashboard is mounted
// by its first holder and unmounted when the last holder releases it.
type Manager struct {
	deps Deps

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	dash  *Dashboard
	refs  int
	ready chan struct{}
}

// NewManager creates a manager building dashboards from deps.
func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps, entries: make(map[string]*entry)}
}

// Acquire returns the mounted dashboard for sessionID and a release func that
// must be called exactly once. An empty session yields an empty dashboard.
func (m *Manager) Acquire(ctx context.Context, sessionID string) (*Dashboard, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	e, ok := m.entries[sessionID]
	if ok {
		e.refs++
		m.mu.Unlock()
		select {
		case <-e.ready:
		case <-ctx.Done():
			m.release(sessionID, e)
			return nil, nil, ctx.Err()
		}
		return e.dash, m.releaser(sessionID, e), nil
	}

	e = &entry{dash: New(m.deps), refs: 1, ready: make(chan struct{})}
	m.entries[sessionID] = e
	m.mu.Unlock()

	// Dashboards outlive the request that first mounts them.
	e.dash.Mount(context.WithoutCancel(ctx), sessionID)
	close(e.ready)
	return e.dash, m.releaser(sessionID, e), nil
}

func (m *Manager) releaser(sessionID string, e *entry) func() {
	var once sync.Once
	return func() {
		once.Do(func() { m.release(sessionID, e) })
	}
}

func (m *Manager) release(sessionID string, e *entry) {
	m.mu.Lock()
	e.refs--
	last := e.refs == 0
	if last && m.entries[sessionID] == e {
		delete(m.entries, sessionID)
	}
	m.mu.Unlock()

	if last {
		<-e.ready
		e.dash.Unmount()
	}
}

// Active returns the number of sessions with a mounted dashboard.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close unmounts every dashboard regardless of outstanding holders.
func (m *Manager) Close() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range entries {
		<-e.ready
		e.dash.Unmount()
	}
}
