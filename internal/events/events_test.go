package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDispatchesToSubscribers(t *testing.T) {
	bus := NewBus(16)

	var got Event
	bus.Subscribe(EventVideoCreated, func(event Event) { got = event })

	err := bus.Publish(context.Background(), NewSystemEvent(EventVideoCreated, "Created", "/a.mp4"))
	require.NoError(t, err)
	assert.Equal(t, EventVideoCreated, got.Type)
	assert.Equal(t, "/a.mp4", got.Message)
}

func TestSubscribeFiltersByType(t *testing.T) {
	bus := NewBus(16)

	var calls int
	bus.Subscribe(EventScanStarted, func(Event) { calls++ })

	_ = bus.Publish(context.Background(), NewSystemEvent(EventVideoCreated, "", ""))
	_ = bus.Publish(context.Background(), NewSystemEvent(EventScanStarted, "", ""))
	assert.Equal(t, 1, calls)
}

func TestSubscribeAllWithEmptyType(t *testing.T) {
	bus := NewBus(16)

	var calls int
	bus.Subscribe("", func(Event) { calls++ })

	_ = bus.Publish(context.Background(), NewSystemEvent(EventVideoCreated, "", ""))
	_ = bus.Publish(context.Background(), NewSystemEvent(EventScanCompleted, "", ""))
	assert.Equal(t, 2, calls)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(16)

	var calls int
	id := bus.Subscribe(EventVideoCreated, func(Event) { calls++ })
	bus.Unsubscribe(id)

	_ = bus.Publish(context.Background(), NewSystemEvent(EventVideoCreated, "", ""))
	assert.Zero(t, calls)
}

func TestPublishAsync(t *testing.T) {
	bus := NewBus(16)
	require.NoError(t, bus.Start(context.Background()))
	defer bus.Stop(context.Background())

	var mu sync.Mutex
	var calls int
	bus.Subscribe(EventScanProgress, func(Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	bus.PublishAsync(NewSystemEvent(EventScanProgress, "", ""))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRecentEventsNewestFirst(t *testing.T) {
	bus := NewBus(16)

	_ = bus.Publish(context.Background(), NewSystemEvent(EventScanStarted, "first", ""))
	_ = bus.Publish(context.Background(), NewSystemEvent(EventScanCompleted, "second", ""))

	recent := bus.RecentEvents(10)
	require.Len(t, recent, 2)
	assert.Equal(t, "second", recent[0].Title)
	assert.Equal(t, "first", recent[1].Title)

	limited := bus.RecentEvents(1)
	require.Len(t, limited, 1)
	assert.Equal(t, "second", limited[0].Title)
}

func TestHistoryIsBounded(t *testing.T) {
	bus := NewBus(16)
	bus.historySize = 5

	for i := 0; i < 20; i++ {
		_ = bus.Publish(context.Background(), NewSystemEvent(EventScanProgress, "", ""))
	}
	assert.Len(t, bus.RecentEvents(0), 5)
}
