package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBus_DeliversByTopic(t *testing.T) {
	bus := NewBus()
	tasks := bus.Subscribe(4, "tasks")
	both := bus.Subscribe(4, "tasks", "clients")
	defer bus.Unsubscribe(tasks)
	defer bus.Unsubscribe(both)

	first := bus.Publish(Event{Topic: "tasks"})
	second := bus.Publish(Event{Topic: "clients"})
	require.Less(t, first.Seq, second.Seq)
	require.False(t, first.At.IsZero())

	require.Equal(t, first.Seq, (<-tasks).Seq)
	require.Len(t, tasks, 0)

	require.Equal(t, "tasks", (<-both).Topic)
	require.Equal(t, "clients", (<-both).Topic)
}

func TestBus_DropsWhenFull(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(0, "tasks")
	defer bus.Unsubscribe(ch)

	bus.Publish(Event{Topic: "tasks"})
	bus.Publish(Event{Topic: "tasks"})
	bus.Publish(Event{Topic: "tasks"})

	require.Len(t, ch, 1)
	ev := <-ch
	require.Equal(t, uint64(1), ev.Seq)
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(1, "tasks")
	require.Equal(t, 1, bus.Listeners())

	bus.Unsubscribe(ch)
	bus.Unsubscribe(ch)
	bus.Unsubscribe(nil)
	require.Equal(t, 0, bus.Listeners())

	_, ok := <-ch
	require.False(t, ok)

	bus.Publish(Event{Topic: "tasks"})
}
