package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventCartItemAdded     = "cart_item_added"
	EventCartItemRemoved   = "cart_item_removed"
	EventCartCleared       = "cart_cleared"
	EventCheckoutStarted   = "checkout_started"
	EventCheckoutCompleted = "checkout_completed"
	EventCheckoutFailed    = "checkout_failed"
)

// CartEventPayload describes a cart mutation. Index is set only on removal.
type CartEventPayload struct {
	ItemID    int64  `json:"item_id,omitempty"`
	RoomName  string `json:"room_name,omitempty"`
	ItemTotal int64  `json:"item_total,omitempty"`
	Index     *int   `json:"index,omitempty"`
	Count     int    `json:"count"`
	CartTotal int64  `json:"cart_total"`
}

// CheckoutEventPayload describes a checkout attempt.
type CheckoutEventPayload struct {
	ReceiptID     string `json:"receipt_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	Items         int    `json:"items"`
	Total         int64  `json:"total"`
	Currency      string `json:"currency,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	onError     func(event *Event, err error)
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// OnError sets a callback for handler failures; they are dropped otherwise.
func (b *EventBus) OnError(fn func(event *Event, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	onError := b.onError
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}

	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}

// Decode unmarshals the JSON payload into dst.
func (e *Event) Decode(dst interface{}) error {
	return json.Unmarshal(e.Payload, dst)
}
