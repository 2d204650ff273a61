package domain

import (
	"context"

	"homestay/internal/models"
)

// KVStore is the durable string-keyed storage the cart is mirrored to.
// Get reports found=false with a nil error when the key is absent.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// CartObserver is notified after every cart mutation so a view can redraw.
type CartObserver interface {
	OnCartChanged(count int, total int64, items []models.BookingItem)
}

type CartService interface {
	Add(ctx context.Context, item models.BookingItem) error
	Remove(ctx context.Context, index int) (bool, error)
	Clear(ctx context.Context) error
	Hold() ([]models.BookingItem, error)
	Release(ctx context.Context, clear bool) error
	Items() []models.BookingItem
	Total() int64
	Count() int
}

type RoomService interface {
	GetRooms(ctx context.Context) ([]models.Room, error)
	GetRoomByID(ctx context.Context, id int64) (*models.Room, error)
}
