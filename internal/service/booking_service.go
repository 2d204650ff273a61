package service

import (
	"context"
	"errors"
	"time"

	"homestay/internal/cart"
	"homestay/internal/domain"
	"homestay/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrPastDate   = errors.New("check-in date is in the past")
	ErrDateTooFar = errors.New("check-in date is too far in the future")
)

// StayRequest is what the booking form submits.
type StayRequest struct {
	RoomID    int64  `json:"room_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	GuestName string `json:"guest_name"`
}

// CartView is everything a view needs to redraw the badge, list and total.
type CartView struct {
	Count int                  `json:"count"`
	Total int64                `json:"total"`
	Items []models.BookingItem `json:"items"`
}

// BookingService turns booking form input into cart items.
type BookingService struct {
	rooms          domain.RoomService
	cart           domain.CartService
	ids            *cart.IDGenerator
	maxBookingDays int
	now            func() time.Time
	logger         *zerolog.Logger
}

func NewBookingService(rooms domain.RoomService, cartSvc domain.CartService, ids *cart.IDGenerator, maxBookingDays int, logger *zerolog.Logger) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = models.DefaultMaxBookingDays
	}
	if ids == nil {
		ids = cart.NewIDGenerator(nil)
	}
	return &BookingService{
		rooms:          rooms,
		cart:           cartSvc,
		ids:            ids,
		maxBookingDays: maxBookingDays,
		now:            time.Now,
		logger:         logger,
	}
}

// ValidateCheckIn rejects dates before today or beyond the booking window.
func (s *BookingService) ValidateCheckIn(checkIn models.Date) error {
	today := models.NewDate(s.now())
	if checkIn.Before(today.Time) {
		return ErrPastDate
	}
	if checkIn.After(today.AddDate(0, 0, s.maxBookingDays)) {
		return ErrDateTooFar
	}
	return nil
}

// Quote prices the requested stay without touching the cart. Unparseable
// or missing dates quote zero nights, like an incomplete date picker.
func (s *BookingService) Quote(ctx context.Context, req StayRequest) (cart.Quote, error) {
	room, err := s.rooms.GetRoomByID(ctx, req.RoomID)
	if err != nil {
		return cart.Quote{}, err
	}

	checkIn, errIn := models.ParseDate(req.CheckIn)
	checkOut, errOut := models.ParseDate(req.CheckOut)
	if errIn != nil || errOut != nil {
		return cart.Quote{}, nil
	}

	return cart.QuoteStay(*room, checkIn, checkOut), nil
}

// AddToCart validates the stay and appends it to the cart.
func (s *BookingService) AddToCart(ctx context.Context, req StayRequest) (models.BookingItem, error) {
	room, err := s.rooms.GetRoomByID(ctx, req.RoomID)
	if err != nil {
		return models.BookingItem{}, err
	}

	checkIn, err := models.ParseDate(req.CheckIn)
	if err != nil {
		return models.BookingItem{}, cart.ErrInvalidDates
	}
	checkOut, err := models.ParseDate(req.CheckOut)
	if err != nil {
		return models.BookingItem{}, cart.ErrInvalidDates
	}

	if err := s.ValidateCheckIn(checkIn); err != nil {
		return models.BookingItem{}, err
	}

	item, err := cart.NewBookingItem(s.ids, *room, checkIn, checkOut, req.GuestName)
	if err != nil {
		return models.BookingItem{}, err
	}

	if err := s.cart.Add(ctx, item); err != nil {
		if errors.Is(err, cart.ErrCartHeld) {
			return models.BookingItem{}, err
		}
		// the item is in the cart; only the durable copy lags
		s.logger.Error().Err(err).Int64("item_id", item.ID).Msg("cart persist failed after add")
	}

	s.logger.Info().
		Int64("item_id", item.ID).
		Str("room", item.RoomName).
		Int("nights", item.Nights).
		Int64("total", item.TotalPrice).
		Msg("room added to cart")
	return item, nil
}

// RemoveFromCart drops the item at index; out-of-range indexes are ignored.
// The only error returned is cart.ErrCartHeld.
func (s *BookingService) RemoveFromCart(ctx context.Context, index int) (bool, error) {
	removed, err := s.cart.Remove(ctx, index)
	if err != nil {
		if errors.Is(err, cart.ErrCartHeld) {
			return false, err
		}
		s.logger.Error().Err(err).Int("index", index).Msg("cart persist failed after remove")
	}
	return removed, nil
}

func (s *BookingService) Cart() CartView {
	items := s.cart.Items()
	return CartView{
		Count: len(items),
		Total: models.Cart(items).Total(),
		Items: items,
	}
}
