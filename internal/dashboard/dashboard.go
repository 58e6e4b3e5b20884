// Package dashboard composes the task, client, team and profile collections of
// one session into a single view with derived analytics.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ganot/taskdeck/internal/analytics"
	"github.com/ganot/taskdeck/internal/collection"
	"github.com/ganot/taskdeck/internal/dataservice"
	"github.com/ganot/taskdeck/internal/domain/client"
	"github.com/ganot/taskdeck/internal/domain/profile"
	"github.com/ganot/taskdeck/internal/domain/task"
	"github.com/ganot/taskdeck/internal/domain/team"
	"github.com/ganot/taskdeck/internal/realtime"
)

// Deps are the process-wide collaborators shared by every dashboard.
type Deps struct {
	Rows dataservice.Rows
	// Registry supplies live-update sources. Nil disables live updates.
	Registry *realtime.Registry
	Logger   *slog.Logger
	// Now is the analytics clock. Defaults to time.Now.
	Now func() time.Time
}

// Loading reports which collections have a fetch in flight.
type Loading struct {
	Tasks   bool `json:"tasks"`
	Clients bool `json:"clients"`
	Team    bool `json:"team"`
	Profile bool `json:"profile"`
}

// State is a snapshot of every collection.
type State struct {
	Session   string            `json:"session"`
	Profile   *profile.Profile  `json:"profile,omitempty"`
	Tasks     []task.Task       `json:"tasks"`
	Clients   []client.Client   `json:"clients"`
	Team      []team.Member     `json:"team"`
	Loading   Loading           `json:"loading"`
	Analytics analytics.Summary `json:"analytics"`
}

// Dashboard is the per-session aggregation. The services are exposed directly
// for their CRUD and refetch operations.
type Dashboard struct {
	Tasks   *task.Service
	Clients *client.Service
	Team    *team.Service
	Profile *profile.Service

	now    func() time.Time
	logger *slog.Logger

	mu      sync.Mutex
	session string
	memo    *analytics.Summary
	memoKey analyticsKey

	changes chan struct{}
}

type analyticsKey struct {
	tasks, clients, team uint64
	day                  string
}

// New builds an unmounted dashboard.
func New(deps Deps) *Dashboard {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	d := &Dashboard{
		now:     now,
		logger:  logger,
		changes: make(chan struct{}, 1),
	}
	d.Tasks = task.NewService(deps.Rows, options(deps, logger, dataservice.TableTasks))
	d.Clients = client.NewService(deps.Rows, options(deps, logger, dataservice.TableClients))
	d.Team = team.NewService(deps.Rows, options(deps, logger, dataservice.TableProfiles, dataservice.TableTasks))
	d.Profile = profile.NewService(deps.Rows, options(deps, logger, dataservice.TableProfiles))

	d.Tasks.OnChange(d.signal)
	d.Clients.OnChange(d.signal)
	d.Team.OnChange(d.signal)
	d.Profile.OnChange(d.signal)
	return d
}

func options(deps Deps, logger *slog.Logger, tables ...string) collection.Options {
	opts := collection.Options{Logger: logger}
	if deps.Registry == nil {
		return opts
	}
	opts.Bus = deps.Registry.Bus()
	for _, t := range tables {
		if m := deps.Registry.Multiplexer(t); m != nil {
			opts.Sources = append(opts.Sources, m)
		}
	}
	return opts
}

func (d *Dashboard) signal() {
	select {
	case d.changes <- struct{}{}:
	default:
	}
}

// Changes fires after any collection applies a fetch. Signals coalesce.
func (d *Dashboard) Changes() <-chan struct{} {
	return d.changes
}

// Session returns the mounted session identifier.
func (d *Dashboard) Session() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session
}

// Mount mounts every collection for sessionID; initial fetches run
// concurrently.
func (d *Dashboard) Mount(ctx context.Context, sessionID string) {
	d.mu.Lock()
	d.session = sessionID
	d.mu.Unlock()

	var wg sync.WaitGroup
	for _, mount := range []func(context.Context, string){
		d.Tasks.Mount, d.Clients.Mount, d.Team.Mount, d.Profile.Mount,
	} {
		wg.Go(func() { mount(ctx, sessionID) })
	}
	wg.Wait()
	d.logger.Debug("dashboard mounted", "session_id", sessionID)
}

// Unmount unmounts every collection.
func (d *Dashboard) Unmount() {
	d.Tasks.Unmount()
	d.Clients.Unmount()
	d.Team.Unmount()
	d.Profile.Unmount()
	d.logger.Debug("dashboard unmounted", "session_id", d.Session())
}

// Refetch reloads every collection concurrently and returns the first error.
// A failing collection does not cancel the others.
func (d *Dashboard) Refetch(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return d.Tasks.Refetch(ctx) })
	g.Go(func() error { return d.Clients.Refetch(ctx) })
	g.Go(func() error { return d.Team.Refetch(ctx) })
	g.Go(func() error { return d.Profile.Refetch(ctx) })
	return g.Wait()
}

// Analytics returns the summary for the current collections, recomputing it
// only when a collection version or the calendar day has changed.
func (d *Dashboard) Analytics() analytics.Summary {
	now := d.now()
	key := analyticsKey{
		tasks:   d.Tasks.Version(),
		clients: d.Clients.Version(),
		team:    d.Team.Version(),
		day:     now.Format(time.DateOnly),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.memo != nil && d.memoKey == key {
		return *d.memo
	}
	summary := analytics.Compute(d.Tasks.Tasks(), d.Clients.Clients(), d.Team.Members(), now)
	d.memo = &summary
	d.memoKey = key
	return summary
}

// State snapshots every collection.
func (d *Dashboard) State() State {
	st := State{
		Session: d.Session(),
		Tasks:   d.Tasks.Tasks(),
		Clients: d.Clients.Clients(),
		Team:    d.Team.Members(),
		Loading: Loading{
			Tasks:   d.Tasks.Loading(),
			Clients: d.Clients.Loading(),
			Team:    d.Team.Loading(),
			Profile: d.Profile.Loading(),
		},
		Analytics: d.Analytics(),
	}
	if p, ok := d.Profile.Profile(); ok {
		st.Profile = &p
	}
	return st
}
