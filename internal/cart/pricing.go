package cart

import (
	"errors"
	"strings"

	"homestay/internal/models"
)

var (
	ErrInvalidDates = errors.New("please select valid dates (at least 1 night)")
	ErrRoomRequired = errors.New("room is required")
)

// Quote is what the booking form shows for a selected date range.
type Quote struct {
	Nights   int   `json:"nights"`
	Total    int64 `json:"total"`
	Bookable bool  `json:"bookable"`
}

// Nights returns the number of nights between check-in and check-out.
// A check-out on or before check-in yields 0.
func Nights(checkIn, checkOut models.Date) int {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 0
	}
	days := checkIn.DaysUntil(checkOut)
	if days <= 0 {
		return 0
	}
	return days
}

// QuoteStay prices a stay. Non-positive nights or a room without a price
// quote 0 and are not bookable.
func QuoteStay(room models.Room, checkIn, checkOut models.Date) Quote {
	if room.PricePerNight <= 0 {
		return Quote{}
	}
	nights := Nights(checkIn, checkOut)
	if nights <= 0 {
		return Quote{}
	}
	return Quote{
		Nights:   nights,
		Total:    int64(nights) * room.PricePerNight,
		Bookable: true,
	}
}

// NewBookingItem builds a cart line for room. The total is fixed here and
// never recomputed.
func NewBookingItem(ids *IDGenerator, room models.Room, checkIn, checkOut models.Date, guestName string) (models.BookingItem, error) {
	if strings.TrimSpace(room.Name) == "" {
		return models.BookingItem{}, ErrRoomRequired
	}

	quote := QuoteStay(room, checkIn, checkOut)
	if !quote.Bookable {
		return models.BookingItem{}, ErrInvalidDates
	}

	return models.BookingItem{
		ID:            ids.Next(),
		RoomName:      room.Name,
		PricePerNight: room.PricePerNight,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Nights:        quote.Nights,
		TotalPrice:    quote.Total,
		GuestName:     strings.TrimSpace(guestName),
	}, nil
}
