package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"homestay/internal/cart"
	"homestay/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCart struct {
	mock.Mock
}

func (m *MockCart) Add(ctx context.Context, item models.BookingItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockCart) Remove(ctx context.Context, index int) (bool, error) {
	args := m.Called(ctx, index)
	return args.Bool(0), args.Error(1)
}

func (m *MockCart) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCart) Hold() ([]models.BookingItem, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookingItem), args.Error(1)
}

func (m *MockCart) Release(ctx context.Context, clear bool) error {
	return m.Called(ctx, clear).Error(0)
}

func (m *MockCart) Items() []models.BookingItem {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.BookingItem)
}

func (m *MockCart) Total() int64 {
	return m.Called().Get(0).(int64)
}

func (m *MockCart) Count() int {
	return m.Called().Int(0)
}

func newBookingService(t *testing.T, cartSvc *MockCart) *BookingService {
	t.Helper()
	logger := zerolog.Nop()
	rooms := NewRoomService([]models.Room{{ID: 1, Name: "Deluxe Room", PricePerNight: 50}}, &logger)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	ids := cart.NewIDGenerator(func() time.Time { return now })
	s := NewBookingService(rooms, cartSvc, ids, 30, &logger)
	s.now = func() time.Time { return now }
	return s
}

func TestBookingService_Quote(t *testing.T) {
	s := newBookingService(t, new(MockCart))
	ctx := context.Background()

	tests := []struct {
		name string
		req  StayRequest
		want cart.Quote
	}{
		{name: "same day", req: StayRequest{RoomID: 1, CheckIn: "2024-01-01", CheckOut: "2024-01-01"}, want: cart.Quote{}},
		{name: "two nights", req: StayRequest{RoomID: 1, CheckIn: "2024-01-01", CheckOut: "2024-01-03"}, want: cart.Quote{Nights: 2, Total: 100, Bookable: true}},
		{name: "missing checkout", req: StayRequest{RoomID: 1, CheckIn: "2024-01-01"}, want: cart.Quote{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := s.Quote(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
		})
	}

	_, err := s.Quote(ctx, StayRequest{RoomID: 9, CheckIn: "2024-01-01", CheckOut: "2024-01-03"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestBookingService_AddToCart(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		cartSvc := new(MockCart)
		s := newBookingService(t, cartSvc)
		cartSvc.On("Add", ctx, mock.MatchedBy(func(item models.BookingItem) bool {
			return item.Nights == 2 && item.TotalPrice == 100 && item.RoomName == "Deluxe Room" && item.GuestName == "Ann"
		})).Return(nil).Once()

		item, err := s.AddToCart(ctx, StayRequest{RoomID: 1, CheckIn: "2024-01-01", CheckOut: "2024-01-03", GuestName: "Ann"})
		require.NoError(t, err)
		assert.Equal(t, int64(100), item.TotalPrice)
		cartSvc.AssertExpectations(t)
	})

	t.Run("ZeroNightsBlocked", func(t *testing.T) {
		cartSvc := new(MockCart)
		s := newBookingService(t, cartSvc)

		_, err := s.AddToCart(ctx, StayRequest{RoomID: 1, CheckIn: "2024-01-01", CheckOut: "2024-01-01"})
		assert.ErrorIs(t, err, cart.ErrInvalidDates)
		cartSvc.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("BadDateFormat", func(t *testing.T) {
		cartSvc := new(MockCart)
		s := newBookingService(t, cartSvc)

		_, err := s.AddToCart(ctx, StayRequest{RoomID: 1, CheckIn: "tomorrow", CheckOut: "2024-01-03"})
		assert.ErrorIs(t, err, cart.ErrInvalidDates)
		_, err = s.AddToCart(ctx, StayRequest{RoomID: 1, CheckIn: "2024-01-01", CheckOut: ""})
		assert.ErrorIs(t, err, cart.ErrInvalidDates)
	})

	t.Run("PastDate", func(t *testing.T) {
		s := newBookingService(t, new(MockCart))
		_, err := s.AddToCart(ctx, StayRequest{RoomID: 1, CheckIn: "2023-12-31", CheckOut: "2024-01-02"})
		assert.ErrorIs(t, err, ErrPastDate)
	})

	t.Run("TooFar", func(t *testing.T) {
		s := newBookingService(t, new(MockCart))
		_, err := s.AddToCart(ctx, StayRequest{RoomID: 1, CheckIn: "2024-03-01", CheckOut: "2024-03-02"})
		assert.ErrorIs(t, err, ErrDateTooFar)
	})

	t.Run("UnknownRoom", func(t *testing.T) {
		s := newBookingService(t, new(MockCart))
		_, err := s.AddToCart(ctx, StayRequest{RoomID: 7, CheckIn: "2024-01-01", CheckOut: "2024-01-03"})
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("CartHeldDuringPayment", func(t *testing.T) {
		cartSvc := new(MockCart)
		s := newBookingService(t, cartSvc)
		cartSvc.On("Add", ctx, mock.Anything).Return(cart.ErrCartHeld).Once()

		_, err := s.AddToCart(ctx, StayRequest{RoomID: 1, CheckIn: "2024-01-01", CheckOut: "2024-01-03"})
		assert.ErrorIs(t, err, cart.ErrCartHeld)
	})

	t.Run("UnpricedRoomBlocked", func(t *testing.T) {
		cartSvc := new(MockCart)
		s := newBookingService(t, cartSvc)
		s.rooms = NewRoomService([]models.Room{{ID: 5, Name: "Promo"}}, s.logger)

		q, err := s.Quote(ctx, StayRequest{RoomID: 5, CheckIn: "2024-01-01", CheckOut: "2024-01-03"})
		require.NoError(t, err)
		assert.False(t, q.Bookable)

		_, err = s.AddToCart(ctx, StayRequest{RoomID: 5, CheckIn: "2024-01-01", CheckOut: "2024-01-03"})
		assert.ErrorIs(t, err, cart.ErrInvalidDates)
		cartSvc.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("PersistFailureKeepsItem", func(t *testing.T) {
		cartSvc := new(MockCart)
		s := newBookingService(t, cartSvc)
		cartSvc.On("Add", ctx, mock.Anything).Return(errors.New("redis down")).Once()

		item, err := s.AddToCart(ctx, StayRequest{RoomID: 1, CheckIn: "2024-01-01", CheckOut: "2024-01-03"})
		require.NoError(t, err)
		assert.NotZero(t, item.ID)
	})
}

func TestBookingService_RemoveAndView(t *testing.T) {
	ctx := context.Background()
	cartSvc := new(MockCart)
	s := newBookingService(t, cartSvc)

	items := []models.BookingItem{{ID: 1, TotalPrice: 100}, {ID: 2, TotalPrice: 57}}
	cartSvc.On("Items").Return(items).Once()

	view := s.Cart()
	assert.Equal(t, CartView{Count: 2, Total: 157, Items: items}, view)

	cartSvc.On("Remove", ctx, 5).Return(false, nil).Once()
	removed, err := s.RemoveFromCart(ctx, 5)
	require.NoError(t, err)
	assert.False(t, removed)

	cartSvc.On("Remove", ctx, 0).Return(true, errors.New("persist failed")).Once()
	removed, err = s.RemoveFromCart(ctx, 0)
	require.NoError(t, err)
	assert.True(t, removed)

	cartSvc.On("Remove", ctx, 1).Return(false, cart.ErrCartHeld).Once()
	removed, err = s.RemoveFromCart(ctx, 1)
	assert.ErrorIs(t, err, cart.ErrCartHeld)
	assert.False(t, removed)

	cartSvc.AssertExpectations(t)
}
