package models

import "time"

type Hotel struct {
	HotelID   int64     `json:"hotel_id"`
	HotelName string    `json:"hotel_name"`
	CreatedAt time.Time `json:"created_at"`
}
