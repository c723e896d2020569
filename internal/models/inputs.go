package models

type HotelInput struct {
	HotelName string `json:"hotel_name"`
}

type GuestInput struct {
	Country         string `json:"country"`
	IsRepeatedGuest bool   `json:"is_repeated_guest"`
	CustomerType    string `json:"customer_type"`
}

// BookingInput is the flat field bag accepted from the API layer.
type BookingInput struct {
	HotelID                     int64   `json:"hotel_id"`
	GuestID                     int64   `json:"guest_id"`
	LeadTime                    int     `json:"lead_time"`
	ArrivalDateYear             int     `json:"arrival_date_year"`
	ArrivalDateMonth            string  `json:"arrival_date_month"`
	ArrivalDateWeekNumber       int     `json:"arrival_date_week_number"`
	ArrivalDateDayOfMonth       int     `json:"arrival_date_day_of_month"`
	StaysInWeekendNights        int     `json:"stays_in_weekend_nights"`
	StaysInWeekNights           int     `json:"stays_in_week_nights"`
	Adults                      int     `json:"adults"`
	Children                    int     `json:"children"`
	Babies                      int     `json:"babies"`
	Meal                        string  `json:"meal"`
	MarketSegment               string  `json:"market_segment"`
	DistributionChannel         string  `json:"distribution_channel"`
	PreviousCancellations       int     `json:"previous_cancellations"`
	PreviousBookingsNotCanceled int     `json:"previous_bookings_not_canceled"`
	ReservedRoomType            string  `json:"reserved_room_type"`
	AssignedRoomType            string  `json:"assigned_room_type"`
	BookingChanges              int     `json:"booking_changes"`
	DepositType                 string  `json:"deposit_type"`
	Agent                       *int64  `json:"agent"`
	Company                     *int64  `json:"company"`
	DaysInWaitingList           int     `json:"days_in_waiting_list"`
	ADR                         float64 `json:"adr"`
	RequiredCarParkingSpaces    int     `json:"required_car_parking_spaces"`
	TotalOfSpecialRequests      int     `json:"total_of_special_requests"`
	IsCanceled                  bool    `json:"is_canceled"`
	ReservationStatus           string  `json:"reservation_status"`
	ReservationStatusDate       *string `json:"reservation_status_date"`
}

// ToBooking copies the input into a Booking ready for persistence.
func (in BookingInput) ToBooking() *Booking {
	return &Booking{
		HotelID:                     in.HotelID,
		GuestID:                     in.GuestID,
		LeadTime:                    in.LeadTime,
		ArrivalDateYear:             in.ArrivalDateYear,
		ArrivalDateMonth:            in.ArrivalDateMonth,
		ArrivalDateWeekNumber:       in.ArrivalDateWeekNumber,
		ArrivalDateDayOfMonth:       in.ArrivalDateDayOfMonth,
		StaysInWeekendNights:        in.StaysInWeekendNights,
		StaysInWeekNights:           in.StaysInWeekNights,
		Adults:                      in.Adults,
		Children:                    in.Children,
		Babies:                      in.Babies,
		Meal:                        in.Meal,
		MarketSegment:               in.MarketSegment,
		DistributionChannel:         in.DistributionChannel,
		PreviousCancellations:       in.PreviousCancellations,
		PreviousBookingsNotCanceled: in.PreviousBookingsNotCanceled,
		ReservedRoomType:            in.ReservedRoomType,
		AssignedRoomType:            in.AssignedRoomType,
		BookingChanges:              in.BookingChanges,
		DepositType:                 in.DepositType,
		Agent:                       in.Agent,
		Company:                     in.Company,
		DaysInWaitingList:           in.DaysInWaitingList,
		ADR:                         in.ADR,
		RequiredCarParkingSpaces:    in.RequiredCarParkingSpaces,
		TotalOfSpecialRequests:      in.TotalOfSpecialRequests,
		IsCanceled:                  in.IsCanceled,
		ReservationStatus:           in.ReservationStatus,
		ReservationStatusDate:       in.ReservationStatusDate,
	}
}
