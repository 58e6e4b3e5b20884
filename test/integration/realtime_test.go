package integration_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ganot/taskdeck/internal/collection"
	"github.com/ganot/taskdeck/internal/dataservice"
	"github.com/ganot/taskdeck/internal/domain/task"
	"github.com/ganot/taskdeck/internal/realtime"
	"github.com/ganot/taskdeck/internal/sqlite"
	"github.com/stretchr/testify/require"
)

const grace = 40 * time.Millisecond

type testEnv struct {
	store    *sqlite.Store
	feed     *countingFeed
	registry *realtime.Registry
}

// countingFeed records change-feed subscriptions made against the store.
type countingFeed struct {
	*sqlite.Store

	mu       sync.Mutex
	attempts int
	open     int
	closed   int
}

func (f *countingFeed) Subscribe(ctx context.Context, table string, onChange func(dataservice.Change)) (dataservice.Subscription, error) {
	sub, err := f.Store.Subscribe(ctx, table, onChange)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if err == nil {
		f.open++
	}
	return sub, err
}

func (f *countingFeed) Unsubscribe(sub dataservice.Subscription) error {
	err := f.Store.Unsubscribe(sub)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open--
	f.closed++
	return err
}

func (f *countingFeed) counts() (attempts, open, closed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts, f.open, f.closed
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	store := sqlite.NewStore(db)
	feed := &countingFeed{Store: store}
	registry := realtime.NewRegistry(feed, realtime.NewBus(), realtime.Options{GraceDelay: grace},
		dataservice.TableTasks, dataservice.TableProfiles)
	t.Cleanup(registry.Close)

	ctx := context.Background()
	for _, seed := range []struct {
		table string
		row   dataservice.Row
	}{
		{dataservice.TableOrganizations, dataservice.Row{"id": "org-1", "name": "Studio"}},
		{dataservice.TableProfiles, dataservice.Row{"id": "user-1", "organization_id": "org-1", "email": "one@example.com"}},
	} {
		_, err := store.Insert(ctx, seed.table, seed.row)
		require.NoError(t, err)
	}

	return &testEnv{store: store, feed: feed, registry: registry}
}

func (e *testEnv) taskService() *task.Service {
	return task.NewService(e.store, collection.Options{
		Bus:     e.registry.Bus(),
		Sources: []collection.Source{e.registry.Multiplexer(dataservice.TableTasks)},
	})
}

// Two consumers subscribing in the same tick share one connection attempt,
// and the connection closes only after the grace delay once both leave.
func TestIntegration_SameTickConsumersShareConnection(t *testing.T) {
	env := newTestEnv(t)
	mux := env.registry.Multiplexer(dataservice.TableTasks)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mux.Subscribe(ctx, "user-1")
		}()
	}
	wg.Wait()

	attempts, open, _ := env.feed.counts()
	require.Equal(t, 1, attempts)
	require.Equal(t, 1, open)

	mux.Unsubscribe()
	mux.Unsubscribe()

	_, open, _ = env.feed.counts()
	require.Equal(t, 1, open, "still open inside the grace delay")

	require.Eventually(t, func() bool {
		_, open, closed := env.feed.counts()
		return open == 0 && closed == 1
	}, time.Second, 5*time.Millisecond)
}

// A created task shows up after refetch with the server-assigned id.
func TestIntegration_CreateThenRefetch(t *testing.T) {
	env := newTestEnv(t)
	svc := env.taskService()
	ctx := context.Background()
	svc.Mount(ctx, "user-1")
	defer svc.Unmount()

	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	created, err := svc.Create(ctx, task.CreateRequest{Title: "Spring campaign", Priority: task.PriorityHigh, DueDate: &due})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	require.NoError(t, svc.Refetch(ctx))
	var found *task.Task
	for _, tk := range svc.Tasks() {
		if tk.ID == created.ID {
			found = &tk
		}
	}
	require.NotNil(t, found)
	require.Equal(t, "Spring campaign", found.Title)
	require.Equal(t, "org-1", found.OrganizationID)
	require.True(t, due.Equal(*found.DueDate))
}

// Writes from anywhere reach every mounted collection through one connection.
func TestIntegration_LiveUpdatesFanOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, second := env.taskService(), env.taskService()
	first.Mount(ctx, "user-1")
	defer first.Unmount()
	second.Mount(ctx, "user-1")
	defer second.Unmount()

	_, err := env.store.Insert(ctx, dataservice.TableTasks, dataservice.Row{"organization_id": "org-1", "title": "Story"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(first.Tasks()) == 1 && len(second.Tasks()) == 1
	}, time.Second, 5*time.Millisecond)

	attempts, open, _ := env.feed.counts()
	require.Equal(t, 1, attempts)
	require.Equal(t, 1, open)
}

// Unmounting and remounting within the grace delay keeps the connection.
func TestIntegration_RemountWithinGrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	svc := env.taskService()
	svc.Mount(ctx, "user-1")
	svc.Unmount()

	again := env.taskService()
	again.Mount(ctx, "user-1")
	defer again.Unmount()

	time.Sleep(2 * grace)
	attempts, open, closed := env.feed.counts()
	require.Equal(t, 1, attempts)
	require.Equal(t, 1, open)
	require.Zero(t, closed)
}
