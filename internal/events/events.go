// Package events provides the in-process event bus used to propagate
// catalog lifecycle notifications (scan progress, file discovery, tag
// changes) to interested subscribers and the API layer.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event.
type EventType string

// System-wide event types.
const (
	// Scan events
	EventScanStarted   EventType = "scan.started"
	EventScanProgress  EventType = "scan.progress"
	EventScanCompleted EventType = "scan.completed"
	EventScanFailed    EventType = "scan.failed"
	EventScanCancelled EventType = "scan.cancelled"

	// Catalog events
	EventVideoCreated  EventType = "video.created"
	EventVideoUpdated  EventType = "video.updated"
	EventTagsReplaced  EventType = "video.tags.replaced"
	EventVideoSkipped  EventType = "video.skipped"
	EventWatchTriggers EventType = "watch.rescan"

	// System events
	EventSystemStarted EventType = "system.started"
	EventSystemStopped EventType = "system.stopped"
)

// Event represents a system event.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewSystemEvent creates an event originating from the system itself.
func NewSystemEvent(eventType EventType, title, message string) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "system",
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Handler processes a published event.
type Handler func(event Event)

// EventBus distributes events to subscribers and keeps a bounded history
// of recent events for the API layer.
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	PublishAsync(event Event)
	Subscribe(eventType EventType, handler Handler) (subscriptionID string)
	Unsubscribe(subscriptionID string)
	RecentEvents(limit int) []Event
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type subscription struct {
	id        string
	eventType EventType
	handler   Handler
}

// Bus is the default in-process EventBus implementation.
type Bus struct {
	mu          sync.RWMutex
	subs        map[string]*subscription
	history     []Event
	historySize int
	queue       chan Event
	done        chan struct{}
	running     bool
}

// NewBus creates an event bus with the given async queue capacity.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Bus{
		subs:        make(map[string]*subscription),
		historySize: 500,
		queue:       make(chan Event, bufferSize),
		done:        make(chan struct{}),
	}
}

// Start begins draining the async queue.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = true
	b.mu.Unlock()

	go func() {
		for {
			select {
			case event := <-b.queue:
				b.dispatch(event)
			case <-b.done:
				return
			}
		}
	}()
	return nil
}

// Stop shuts down the async dispatcher.
func (b *Bus) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return nil
	}
	b.running = false
	close(b.done)
	return nil
}

// Publish dispatches an event synchronously.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.dispatch(event)
	return nil
}

// PublishAsync queues an event for asynchronous dispatch. Events are
// dropped if the queue is full rather than blocking the publisher.
func (b *Bus) PublishAsync(event Event) {
	select {
	case b.queue <- event:
	default:
	}
}

// Subscribe registers a handler for an event type. An empty event type
// subscribes to all events.
func (b *Bus) Subscribe(eventType EventType, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	b.subs[id] = &subscription{id: id, eventType: eventType, handler: handler}
	return id
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(subscriptionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, subscriptionID)
}

// RecentEvents returns up to limit events, newest first.
func (b *Bus) RecentEvents(limit int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if limit <= 0 || limit > len(b.history) {
		limit = len(b.history)
	}
	out := make([]Event, 0, limit)
	for i := len(b.history) - 1; i >= len(b.history)-limit; i-- {
		out = append(out, b.history[i])
	}
	return out
}

func (b *Bus) dispatch(event Event) {
	b.mu.Lock()
	b.history = append(b.history, event)
	if len(b.history) > b.historySize {
		b.history = b.history[len(b.history)-b.historySize:]
	}
	handlers := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.eventType == "" || sub.eventType == event.Type {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}
