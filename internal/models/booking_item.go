package models

// BookingItem is one reserved room stay held in the cart.
// TotalPrice is computed once at creation and never recomputed.
type BookingItem struct {
	ID            int64  `json:"id"`
	RoomName      string `json:"roomName"`
	PricePerNight int64  `json:"pricePerNight"`
	CheckIn       Date   `json:"checkIn"`
	CheckOut      Date   `json:"checkOut"`
	Nights        int    `json:"nights"`
	TotalPrice    int64  `json:"totalPrice"`
	GuestName     string `json:"guestName"`
}

// Cart is the ordered list of pending bookings. Order is display order.
type Cart []BookingItem

// Total sums the stored TotalPrice of every item.
func (c Cart) Total() int64 {
	var total int64
	for _, item := range c {
		total += item.TotalPrice
	}
	return total
}

// Clone returns a copy that does not share the backing array.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
