package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/taskdeck/internal/dashboard"
	"github.com/ganot/taskdeck/internal/dataservice"
	"github.com/ganot/taskdeck/internal/realtime"
	"github.com/stretchr/testify/require"
)

func TestManager_SharesDashboardPerSession(t *testing.T) {
	f := newFixture(t)
	m := dashboard.NewManager(f.deps)
	defer m.Close()
	ctx := context.Background()

	a, releaseA, err := m.Acquire(ctx, "lead")
	require.NoError(t, err)
	b, releaseB, err := m.Acquire(ctx, "lead")
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Equal(t, 1, m.Active())

	other, releaseOther, err := m.Acquire(ctx, "member")
	require.NoError(t, err)
	require.NotSame(t, a, other)
	require.Equal(t, 2, m.Active())

	releaseA()
	releaseA()
	require.Equal(t, 2, m.Active())
	releaseB()
	releaseOther()
	require.Equal(t, 0, m.Active())
}

func TestManager_RemountWithinGraceKeepsConnection(t *testing.T) {
	f := newFixture(t)
	m := dashboard.NewManager(f.deps)
	defer m.Close()
	ctx := context.Background()

	_, release, err := m.Acquire(ctx, "lead")
	require.NoError(t, err)
	release()

	_, release, err = m.Acquire(ctx, "lead")
	require.NoError(t, err)
	defer release()

	time.Sleep(60 * time.Millisecond)
	tasks := f.registry.Multiplexer(dataservice.TableTasks).Status()
	require.Equal(t, realtime.StateActive, tasks.State)
	require.Equal(t, "lead", tasks.Session)
}

func TestManager_CancelledContext(t *testing.T) {
	f := newFixture(t)
	m := dashboard.NewManager(f.deps)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := m.Acquire(ctx, "lead")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, m.Active())
}
