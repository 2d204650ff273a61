package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"homestay/internal/domain"
	"homestay/internal/events"
	"homestay/internal/models"

	"github.com/rs/zerolog"
)

// ErrCartHeld is returned for mutations while a payment holds the cart.
var ErrCartHeld = errors.New("cart is locked while payment is processing")

// ObserverFunc adapts a plain function to domain.CartObserver.
type ObserverFunc func(count int, total int64, items []models.BookingItem)

func (f ObserverFunc) OnCartChanged(count int, total int64, items []models.BookingItem) {
	f(count, total, items)
}

// Store owns the cart and mirrors it to a key-value store after every
// mutation. The in-memory copy is authoritative: a failed persist is
// returned to the caller but the mutation is kept, and the next successful
// persist writes the full cart again.
type Store struct {
	repo      domain.KVStore
	key       string
	eventBus  domain.EventPublisher
	logger    *zerolog.Logger
	mu        sync.Mutex
	items     models.Cart
	held      bool
	observers []domain.CartObserver
}

func NewStore(repo domain.KVStore, key string, eventBus domain.EventPublisher, logger *zerolog.Logger) *Store {
	if key == "" {
		key = models.DefaultCartKey
	}
	return &Store{
		repo:     repo,
		key:      key,
		eventBus: eventBus,
		logger:   logger,
		items:    models.Cart{},
	}
}

// Subscribe registers an observer called after each mutation.
func (s *Store) Subscribe(observer domain.CartObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Load replaces the in-memory cart with the persisted one. A missing key,
// unreadable store or malformed payload all yield an empty cart.
func (s *Store) Load(ctx context.Context) models.Cart {
	loaded := s.read(ctx)

	s.mu.Lock()
	s.items = loaded
	snapshot := s.items.Clone()
	s.mu.Unlock()

	s.logger.Debug().Int("count", len(snapshot)).Str("key", s.key).Msg("cart loaded")
	return snapshot
}

func (s *Store) read(ctx context.Context) models.Cart {
	raw, found, err := s.repo.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("cart read failed, starting empty")
		return models.Cart{}
	}
	if !found || raw == "" {
		return models.Cart{}
	}

	var items models.Cart
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("malformed cart in storage, starting empty")
		return models.Cart{}
	}
	if items == nil {
		items = models.Cart{}
	}
	return items
}

// Add appends item and persists. Validation is the caller's job.
func (s *Store) Add(ctx context.Context, item models.BookingItem) error {
	s.mu.Lock()
	if s.held {
		s.mu.Unlock()
		return ErrCartHeld
	}
	s.items = append(s.items, item)
	snapshot := s.items.Clone()
	observers := s.observers
	err := s.persist(ctx, snapshot)
	s.mu.Unlock()

	s.notify(observers, snapshot)
	s.publish(events.EventCartItemAdded, item, -1, snapshot)
	return err
}

// Remove drops the item at index and persists. An out-of-range index is a
// no-op and reports false.
func (s *Store) Remove(ctx context.Context, index int) (bool, error) {
	s.mu.Lock()
	if s.held {
		s.mu.Unlock()
		return false, ErrCartHeld
	}
	if index < 0 || index >= len(s.items) {
		count := len(s.items)
		s.mu.Unlock()
		s.logger.Debug().Int("index", index).Int("count", count).Msg("remove ignored, index out of range")
		return false, nil
	}

	removed := s.items[index]
	next := make(models.Cart, 0, len(s.items)-1)
	next = append(next, s.items[:index]...)
	next = append(next, s.items[index+1:]...)
	s.items = next

	snapshot := s.items.Clone()
	observers := s.observers
	err := s.persist(ctx, snapshot)
	s.mu.Unlock()

	s.notify(observers, snapshot)
	s.publish(events.EventCartItemRemoved, removed, index, snapshot)
	return true, err
}

// Clear empties the cart and persists the empty state.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if s.held {
		s.mu.Unlock()
		return ErrCartHeld
	}
	return s.clearLocked(ctx)
}

// Hold freezes the cart for a payment and returns the items being charged.
// Add, Remove and Clear fail with ErrCartHeld until Release.
func (s *Store) Hold() ([]models.BookingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held {
		return nil, ErrCartHeld
	}
	s.held = true
	return s.items.Clone(), nil
}

// Release lifts the hold. With clear set the cart is emptied before any
// waiting mutation runs.
func (s *Store) Release(ctx context.Context, clear bool) error {
	s.mu.Lock()
	s.held = false
	if !clear {
		s.mu.Unlock()
		return nil
	}
	return s.clearLocked(ctx)
}

// clearLocked must be called with mu held; it unlocks before notifying.
func (s *Store) clearLocked(ctx context.Context) error {
	s.items = models.Cart{}
	snapshot := models.Cart{}
	observers := s.observers
	err := s.persist(ctx, snapshot)
	s.mu.Unlock()

	s.notify(observers, snapshot)
	s.publish(events.EventCartCleared, models.BookingItem{}, -1, snapshot)
	return err
}

func (s *Store) Items() []models.BookingItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone()
}

func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Total()
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// persist must be called with mu held so writes reach storage in mutation order.
func (s *Store) persist(ctx context.Context, items models.Cart) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.repo.Set(ctx, s.key, string(data)); err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("cart persist failed")
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func (s *Store) notify(observers []domain.CartObserver, snapshot models.Cart) {
	total := snapshot.Total()
	for _, o := range observers {
		o.OnCartChanged(len(snapshot), total, snapshot.Clone())
	}
}

func (s *Store) publish(eventType string, item models.BookingItem, index int, snapshot models.Cart) {
	if s.eventBus == nil {
		return
	}

	payload := events.CartEventPayload{
		ItemID:    item.ID,
		RoomName:  item.RoomName,
		ItemTotal: item.TotalPrice,
		Count:     len(snapshot),
		CartTotal: snapshot.Total(),
	}
	if index >= 0 {
		payload.Index = &index
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
