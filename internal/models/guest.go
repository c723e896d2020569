package models

import "time"

type Guest struct {
	GuestID         int64     `json:"guest_id"`
	Country         string    `json:"country"`
	IsRepeatedGuest bool      `json:"is_repeated_guest"`
	CustomerType    string    `json:"customer_type"`
	CreatedAt       time.Time `json:"created_at"`
}
