package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/forgo/guildhall/api/internal/metrics"
)

// EventType names a change event
type EventType string

const (
	// Guild events
	EventGuildAdd    EventType = "GUILD_ADD"
	EventGuildEdit   EventType = "GUILD_EDIT"
	EventGuildRemove EventType = "GUILD_REMOVE"

	// User events
	EventUserAdd         EventType = "USER_ADD"
	EventUserEdit        EventType = "USER_EDIT"
	EventUserRemove      EventType = "USER_REMOVE"
	EventUserRoleAdd     EventType = "USER_ROLE_ADD"
	EventUserRoleRemove  EventType = "USER_ROLE_REMOVE"
	EventUserGuildAdd    EventType = "USER_GUILD_ADD"
	EventUserGuildRemove EventType = "USER_GUILD_REMOVE"

	// Partner events
	EventPartnerAdd    EventType = "PARTNER_ADD"
	EventPartnerEdit   EventType = "PARTNER_EDIT"
	EventPartnerRemove EventType = "PARTNER_REMOVE"

	// Stream events, sent to a single client
	EventInit      EventType = "INIT"
	EventHeartbeat EventType = "HEARTBEAT"
)

// Event is a single change notification. Data is an immutable snapshot of
// the committed entity or relation.
type Event struct {
	Type EventType   `json:"event"`
	Data interface{} `json:"data"`
}

// Format returns the SSE formatted string
func (e *Event) Format() string {
	data, _ := json.Marshal(e.Data)
	return "event: " + string(e.Type) + "\ndata: " + string(data) + "\n\n"
}

// Publisher receives committed change events
type Publisher interface {
	Publish(event *Event)
}

// Subscriber represents a connected stream client
type Subscriber struct {
	ID     string
	Events chan *Event
	Done   chan struct{}
}

// EventHubConfig tunes an EventHub
type EventHubConfig struct {
	// Buffer is the per-subscriber channel size; a full buffer drops events
	Buffer int
	// Heartbeat is the keepalive interval; zero disables heartbeats
	Heartbeat time.Duration
	Metrics   *metrics.Metrics
}

// EventHub fans change events out to every subscriber
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	buffer      int
	metrics     *metrics.Metrics
	heartbeat   *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

// NewEventHub creates a new event hub
func NewEventHub(cfg EventHubConfig) *EventHub {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 100
	}
	hub := &EventHub{
		subscribers: make(map[string]*Subscriber),
		buffer:      cfg.Buffer,
		metrics:     cfg.Metrics,
		done:        make(chan struct{}),
	}
	if cfg.Heartbeat > 0 {
		hub.heartbeat = time.NewTicker(cfg.Heartbeat)
		go hub.sendHeartbeats()
	}
	return hub
}

// Subscribe adds a new subscriber
func (h *EventHub) Subscribe(subscriberID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{
		ID:     subscriberID,
		Events: make(chan *Event, h.buffer),
		Done:   make(chan struct{}),
	}
	if old, ok := h.subscribers[subscriberID]; ok {
		close(old.Done)
		close(old.Events)
	}
	h.subscribers[subscriberID] = sub

	return sub
}

// Unsubscribe removes a subscriber
func (h *EventHub) Unsubscribe(subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subscribers[subscriberID]; ok {
		close(sub.Done)
		close(sub.Events)
		delete(h.subscribers, subscriberID)
	}
}

// Publish sends an event to every subscriber without blocking
func (h *EventHub) Publish(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.metrics.EventPublished(string(event.Type))
	for _, sub := range h.subscribers {
		select {
		case sub.Events <- event:
		default:
			// Buffer full, skip this subscriber
			h.metrics.EventDropped()
		}
	}
}

func (h *EventHub) sendHeartbeats() {
	for {
		select {
		case <-h.heartbeat.C:
			event := &Event{
				Type: EventHeartbeat,
				Data: map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				},
			}
			h.mu.RLock()
			for _, sub := range h.subscribers {
				select {
				case sub.Events <- event:
				default:
				}
			}
			h.mu.RUnlock()
		case <-h.done:
			return
		}
	}
}

// Close stops the hub and disconnects every subscriber
func (h *EventHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		if h.heartbeat != nil {
			h.heartbeat.Stop()
		}

		h.mu.Lock()
		defer h.mu.Unlock()

		for id, sub := range h.subscribers {
			close(sub.Done)
			close(sub.Events)
			delete(h.subscribers, id)
		}
	})
}

// SubscriberCount returns the number of connected subscribers
func (h *EventHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

type discardPublisher struct{}

func (discardPublisher) Publish(*Event) {}
