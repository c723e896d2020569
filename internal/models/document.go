package models

import "time"

// BookingDocument is the denormalized per-booking document stored in
// the mirror. Hotel and guest fields are snapshots taken at write
// time; they are not refreshed when the parent entity is renamed.
type BookingDocument struct {
	BookingID int64                `json:"booking_id"`
	Hotel     HotelSnapshot        `json:"hotel"`
	Guest     GuestSnapshot        `json:"guest"`
	Details   BookingDetails       `json:"booking_details"`
	Status    ReservationStatusDoc `json:"status"`
	History   GuestHistory         `json:"history"`
	Metadata  DocumentMetadata     `json:"metadata"`
}

type HotelSnapshot struct {
	HotelID   int64  `json:"hotel_id"`
	HotelName string `json:"hotel_name"`
}

type GuestSnapshot struct {
	GuestID         int64  `json:"guest_id"`
	Country         string `json:"country"`
	IsRepeatedGuest bool   `json:"is_repeated_guest"`
}

type ArrivalDate struct {
	Year  int    `json:"year"`
	Month string `json:"month"`
	Week  int    `json:"week"`
	Day   int    `json:"day"`
}

type StayNights struct {
	WeekendNights int `json:"weekend_nights"`
	WeekNights    int `json:"week_nights"`
}

type Occupants struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Babies   int `json:"babies"`
}

type RoomTypes struct {
	Reserved string `json:"reserved"`
	Assigned string `json:"assigned"`
}

type BookingDetails struct {
	LeadTime                 int         `json:"lead_time"`
	ArrivalDate              ArrivalDate `json:"arrival_date"`
	Stays                    StayNights  `json:"stays"`
	Guests                   Occupants   `json:"guests"`
	Meal                     string      `json:"meal"`
	MarketSegment            string      `json:"market_segment"`
	DistributionChannel      string      `json:"distribution_channel"`
	Room                     RoomTypes   `json:"room"`
	BookingChanges           int         `json:"booking_changes"`
	DepositType              string      `json:"deposit_type"`
	Agent                    *int64      `json:"agent"`
	Company                  *int64      `json:"company"`
	DaysInWaitingList        int         `json:"days_in_waiting_list"`
	ADR                      float64     `json:"adr"`
	RequiredCarParkingSpaces int         `json:"required_car_parking_spaces"`
	TotalOfSpecialRequests   int         `json:"total_of_special_requests"`
}

type ReservationStatusDoc struct {
	IsCanceled            bool    `json:"is_canceled"`
	ReservationStatus     string  `json:"reservation_status"`
	ReservationStatusDate *string `json:"reservation_status_date"`
}

type GuestHistory struct {
	PreviousCancellations       int `json:"previous_cancellations"`
	PreviousBookingsNotCanceled int `json:"previous_bookings_not_canceled"`
}

type DocumentMetadata struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBookingDocument flattens a booking plus parent snapshots into the
// nested document shape.
func NewBookingDocument(b *Booking, hotel *Hotel, guest *Guest) *BookingDocument {
	doc := &BookingDocument{
		BookingID: b.BookingID,
		Details: BookingDetails{
			LeadTime: b.LeadTime,
			ArrivalDate: ArrivalDate{
				Year:  b.ArrivalDateYear,
				Month: b.ArrivalDateMonth,
				Week:  b.ArrivalDateWeekNumber,
				Day:   b.ArrivalDateDayOfMonth,
			},
			Stays: StayNights{
				WeekendNights: b.StaysInWeekendNights,
				WeekNights:    b.StaysInWeekNights,
			},
			Guests: Occupants{
				Adults:   b.Adults,
				Children: b.Children,
				Babies:   b.Babies,
			},
			Meal:                     b.Meal,
			MarketSegment:            b.MarketSegment,
			DistributionChannel:      b.DistributionChannel,
			Room:                     RoomTypes{Reserved: b.ReservedRoomType, Assigned: b.AssignedRoomType},
			BookingChanges:           b.BookingChanges,
			DepositType:              b.DepositType,
			Agent:                    b.Agent,
			Company:                  b.Company,
			DaysInWaitingList:        b.DaysInWaitingList,
			ADR:                      b.ADR,
			RequiredCarParkingSpaces: b.RequiredCarParkingSpaces,
			TotalOfSpecialRequests:   b.TotalOfSpecialRequests,
		},
		Status: ReservationStatusDoc{
			IsCanceled:            b.IsCanceled,
			ReservationStatus:     b.ReservationStatus,
			ReservationStatusDate: b.ReservationStatusDate,
		},
		History: GuestHistory{
			PreviousCancellations:       b.PreviousCancellations,
			PreviousBookingsNotCanceled: b.PreviousBookingsNotCanceled,
		},
		Metadata: DocumentMetadata{CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt},
	}
	if hotel != nil {
		doc.Hotel = HotelSnapshot{HotelID: hotel.HotelID, HotelName: hotel.HotelName}
	}
	if guest != nil {
		doc.Guest = GuestSnapshot{
			GuestID:         guest.GuestID,
			Country:         guest.Country,
			IsRepeatedGuest: guest.IsRepeatedGuest,
		}
	}
	return doc
}
