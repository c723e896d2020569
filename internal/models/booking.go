package models

import "time"

type Booking struct {
	BookingID                   int64     `json:"booking_id"`
	HotelID                     int64     `json:"hotel_id"`
	GuestID                     int64     `json:"guest_id"`
	LeadTime                    int       `json:"lead_time"`
	ArrivalDateYear             int       `json:"arrival_date_year"`
	ArrivalDateMonth            string    `json:"arrival_date_month"`
	ArrivalDateWeekNumber       int       `json:"arrival_date_week_number"`
	ArrivalDateDayOfMonth       int       `json:"arrival_date_day_of_month"`
	StaysInWeekendNights        int       `json:"stays_in_weekend_nights"`
	StaysInWeekNights           int       `json:"stays_in_week_nights"`
	Adults                      int       `json:"adults"`
	Children                    int       `json:"children"`
	Babies                      int       `json:"babies"`
	Meal                        string    `json:"meal"`
	MarketSegment               string    `json:"market_segment"`
	DistributionChannel         string    `json:"distribution_channel"`
	PreviousCancellations       int       `json:"previous_cancellations"`
	PreviousBookingsNotCanceled int       `json:"previous_bookings_not_canceled"`
	ReservedRoomType            string    `json:"reserved_room_type"`
	AssignedRoomType            string    `json:"assigned_room_type"`
	BookingChanges              int       `json:"booking_changes"`
	DepositType                 string    `json:"deposit_type"`
	Agent                       *int64    `json:"agent"`
	Company                     *int64    `json:"company"`
	DaysInWaitingList           int       `json:"days_in_waiting_list"`
	ADR                         float64   `json:"adr"`
	RequiredCarParkingSpaces    int       `json:"required_car_parking_spaces"`
	TotalOfSpecialRequests      int       `json:"total_of_special_requests"`
	IsCanceled                  bool      `json:"is_canceled"`
	ReservationStatus           string    `json:"reservation_status"`
	ReservationStatusDate       *string   `json:"reservation_status_date"`
	CreatedAt                   time.Time `json:"created_at"`
	UpdatedAt                   time.Time `json:"updated_at"`
	Version                     int64     `json:"version"`
}

// BookingUpdate carries the mutable subset of a booking. Nil fields are
// left unchanged.
type BookingUpdate struct {
	ReservationStatus     *string  `json:"reservation_status"`
	ReservationStatusDate *string  `json:"reservation_status_date"`
	IsCanceled            *bool    `json:"is_canceled"`
	BookingChanges        *int     `json:"booking_changes"`
	ADR                   *float64 `json:"adr"`
}
