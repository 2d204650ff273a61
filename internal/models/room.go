package models

// Room is a bookable catalog entry. PricePerNight is in whole currency units.
type Room struct {
	ID            int64  `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	PricePerNight int64  `json:"price_per_night" yaml:"price_per_night"`
	Description   string `json:"description,omitempty" yaml:"description"`
}
