package domain

import (
	"context"

	"bookmirror/internal/models"
)

// RelationalStore is the authoritative, integrity-enforcing store.
type RelationalStore interface {
	CreateHotel(ctx context.Context, hotel *models.Hotel) error
	GetHotel(ctx context.Context, id int64) (*models.Hotel, error)
	GetHotelByName(ctx context.Context, name string) (*models.Hotel, error)
	ListHotels(ctx context.Context, limit, offset int) ([]*models.Hotel, error)
	RenameHotel(ctx context.Context, id int64, name string) error

	CreateGuest(ctx context.Context, guest *models.Guest) error
	GetGuest(ctx context.Context, id int64) (*models.Guest, error)
	ListGuests(ctx context.Context, limit, offset int) ([]*models.Guest, error)

	CreateBooking(ctx context.Context, booking *models.Booking) (*models.BookingLog, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context, limit, offset int) ([]*models.Booking, error)
	UpdateBooking(ctx context.Context, id int64, upd models.BookingUpdate) (*models.Booking, *models.BookingLog, error)
	DeleteBooking(ctx context.Context, id int64) error

	GetBookingLogs(ctx context.Context, bookingID int64) ([]*models.BookingLog, error)
	ListBookingLogs(ctx context.Context, limit, offset int) ([]*models.BookingLog, error)

	CreatePrediction(ctx context.Context, p *models.Prediction) error
	GetPredictions(ctx context.Context, bookingID int64) ([]*models.Prediction, error)

	GetStatistics(ctx context.Context) (*models.Statistics, error)
}

// DocumentStore is the denormalized mirror. It has no foreign keys;
// existence is always decided by the relational store first.
type DocumentStore interface {
	UpsertHotel(ctx context.Context, hotel *models.Hotel) error
	UpsertGuest(ctx context.Context, guest *models.Guest) error
	UpsertBooking(ctx context.Context, booking *models.Booking, hotel *models.Hotel, guest *models.Guest) error
	GetBooking(ctx context.Context, id int64) (*models.BookingDocument, error)
	DeleteBooking(ctx context.Context, id int64) error
	AppendLog(ctx context.Context, entry *models.BookingLog) error
	GetBookingLogs(ctx context.Context, bookingID int64) ([]*models.BookingLog, error)
	UpsertPrediction(ctx context.Context, p *models.Prediction) error
	GetPrediction(ctx context.Context, bookingID int64, modelVersion *string) (*models.Prediction, error)
	GetStatistics(ctx context.Context) (*models.Statistics, error)
}

// EventPublisher fans domain events out to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ReconcileEnqueuer queues a failed mirror write for later replay.
type ReconcileEnqueuer interface {
	Enqueue(ctx context.Context, task *models.SyncTask) error
}
