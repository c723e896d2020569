package service

import (
	"context"

	"github.com/rs/zerolog"

	"bookmirror/internal/audit"
	"bookmirror/internal/coordinator"
	"bookmirror/internal/domain"
	"bookmirror/internal/events"
	"bookmirror/internal/metrics"
	"bookmirror/internal/models"
	"bookmirror/internal/validation"
	"bookmirror/internal/worker"
)

// BookingService owns the write path: validation, the dual write
// through the coordinator, audit mirroring and domain events.
type BookingService struct {
	rel      domain.RelationalStore
	docs     domain.DocumentStore
	coord    *coordinator.Coordinator
	eventBus domain.EventPublisher
	trail    *audit.Writer
	logger   *zerolog.Logger
}

func NewBookingService(rel domain.RelationalStore, docs domain.DocumentStore, coord *coordinator.Coordinator, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		rel:      rel,
		docs:     docs,
		coord:    coord,
		eventBus: eventBus,
		trail:    audit.NewWriter(docs, logger),
		logger:   logger,
	}
}

func (s *BookingService) CreateHotel(ctx context.Context, in models.HotelInput) (*models.Hotel, coordinator.WriteOutcome, error) {
	if err := validation.ValidateHotel(in).Err(); err != nil {
		return nil, coordinator.WriteOutcome{}, err
	}

	hotel := &models.Hotel{HotelName: in.HotelName}
	outcome, err := s.coord.Write(ctx, coordinator.OpUpsertHotel,
		func(ctx context.Context) (int64, error) {
			if err := s.rel.CreateHotel(ctx, hotel); err != nil {
				return 0, err
			}
			return 0, nil
		},
		func(ctx context.Context) error {
			return s.docs.UpsertHotel(ctx, hotel)
		},
		func() string {
			return worker.EncodeMirrorPayload(worker.MirrorPayload{HotelID: hotel.HotelID})
		})
	if err != nil {
		return nil, outcome, err
	}

	return hotel, outcome, nil
}

func (s *BookingService) GetHotel(ctx context.Context, id int64) (*models.Hotel, error) {
	return s.rel.GetHotel(ctx, id)
}

func (s *BookingService) GetHotelByName(ctx context.Context, name string) (*models.Hotel, error) {
	return s.rel.GetHotelByName(ctx, name)
}

func (s *BookingService) ListHotels(ctx context.Context, limit, offset int) ([]*models.Hotel, error) {
	return s.rel.ListHotels(ctx, limit, offset)
}

// RenameHotel меняет имя только в реляционной базе. Снимки имени в
// документах броней сознательно не перечитываются.
func (s *BookingService) RenameHotel(ctx context.Context, id int64, name string) (*models.Hotel, coordinator.WriteOutcome, error) {
	if err := validation.ValidateHotel(models.HotelInput{HotelName: name}).Err(); err != nil {
		return nil, coordinator.WriteOutcome{}, err
	}

	var hotel *models.Hotel
	outcome, err := s.coord.Write(ctx, coordinator.OpUpsertHotel,
		func(ctx context.Context) (int64, error) {
			if err := s.rel.RenameHotel(ctx, id, name); err != nil {
				return 0, err
			}
			var err error
			hotel, err = s.rel.GetHotel(ctx, id)
			return 0, err
		},
		func(ctx context.Context) error {
			return s.docs.UpsertHotel(ctx, hotel)
		},
		func() string {
			return worker.EncodeMirrorPayload(worker.MirrorPayload{HotelID: id})
		})
	if err != nil {
		return nil, outcome, err
	}

	return hotel, outcome, nil
}

func (s *BookingService) CreateGuest(ctx context.Context, in models.GuestInput) (*models.Guest, coordinator.WriteOutcome, error) {
	if err := validation.ValidateGuest(in).Err(); err != nil {
		return nil, coordinator.WriteOutcome{}, err
	}

	guest := &models.Guest{
		Country:         in.Country,
		IsRepeatedGuest: in.IsRepeatedGuest,
		CustomerType:    in.CustomerType,
	}
	outcome, err := s.coord.Write(ctx, coordinator.OpUpsertGuest,
		func(ctx context.Context) (int64, error) {
			if err := s.rel.CreateGuest(ctx, guest); err != nil {
				return 0, err
			}
			return 0, nil
		},
		func(ctx context.Context) error {
			return s.docs.UpsertGuest(ctx, guest)
		},
		func() string {
			return worker.EncodeMirrorPayload(worker.MirrorPayload{GuestID: guest.GuestID})
		})
	if err != nil {
		return nil, outcome, err
	}

	return guest, outcome, nil
}

func (s *BookingService) GetGuest(ctx context.Context, id int64) (*models.Guest, error) {
	return s.rel.GetGuest(ctx, id)
}

func (s *BookingService) ListGuests(ctx context.Context, limit, offset int) ([]*models.Guest, error) {
	return s.rel.ListGuests(ctx, limit, offset)
}

// CreateBooking validates, writes the authoritative row plus its
// INSERT audit entry, then mirrors the denormalized document and the
// audit entry into the document store.
func (s *BookingService) CreateBooking(ctx context.Context, in models.BookingInput) (*models.Booking, coordinator.WriteOutcome, error) {
	if err := validation.ValidateBooking(in).Err(); err != nil {
		return nil, coordinator.WriteOutcome{}, err
	}

	booking := in.ToBooking()
	var entry *models.BookingLog

	outcome, err := s.coord.Write(ctx, coordinator.OpUpsertBooking,
		func(ctx context.Context) (int64, error) {
			var err error
			entry, err = s.rel.CreateBooking(ctx, booking)
			if err != nil {
				return 0, err
			}
			metrics.IncAuditEntry(models.ActionInsert)
			return booking.BookingID, nil
		},
		func(ctx context.Context) error {
			if err := s.mirrorBooking(ctx, booking); err != nil {
				return err
			}
			return s.trail.Record(ctx, entry)
		},
		nil)
	if err != nil {
		return nil, outcome, err
	}

	s.publishEvent(events.EventBookingCreated, events.BookingEventPayload{
		BookingID:  booking.BookingID,
		HotelID:    booking.HotelID,
		GuestID:    booking.GuestID,
		Status:     booking.ReservationStatus,
		IsCanceled: booking.IsCanceled,
		Partial:    outcome.Partial(),
	})

	return booking, outcome, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.rel.GetBooking(ctx, id)
}

func (s *BookingService) GetBookingDocument(ctx context.Context, id int64) (*models.BookingDocument, error) {
	return s.docs.GetBooking(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, limit, offset int) ([]*models.Booking, error) {
	return s.rel.ListBookings(ctx, limit, offset)
}

// UpdateBooking applies a partial update. The audit entry is written
// inside the relational transaction exactly when the status changed;
// the same entry is then appended to the document mirror.
func (s *BookingService) UpdateBooking(ctx context.Context, id int64, upd models.BookingUpdate) (*models.Booking, coordinator.WriteOutcome, error) {
	if err := validation.ValidateBookingUpdate(upd).Err(); err != nil {
		return nil, coordinator.WriteOutcome{}, err
	}

	var (
		booking *models.Booking
		entry   *models.BookingLog
	)

	outcome, err := s.coord.Write(ctx, coordinator.OpUpsertBooking,
		func(ctx context.Context) (int64, error) {
			var err error
			booking, entry, err = s.rel.UpdateBooking(ctx, id, upd)
			if err != nil {
				return 0, err
			}
			if entry != nil {
				metrics.IncAuditEntry(models.ActionUpdate)
			}
			return id, nil
		},
		func(ctx context.Context) error {
			if err := s.mirrorBooking(ctx, booking); err != nil {
				return err
			}
			return s.trail.Record(ctx, entry)
		},
		nil)
	if err != nil {
		return nil, outcome, err
	}

	if entry != nil {
		var oldStatus string
		if entry.OldStatus != nil {
			oldStatus = *entry.OldStatus
		}
		s.publishEvent(events.EventBookingStatusChanged, events.BookingEventPayload{
			BookingID:  booking.BookingID,
			HotelID:    booking.HotelID,
			GuestID:    booking.GuestID,
			Status:     booking.ReservationStatus,
			OldStatus:  oldStatus,
			IsCanceled: booking.IsCanceled,
			Partial:    outcome.Partial(),
		})
	}

	return booking, outcome, nil
}

// DeleteBooking removes the booking with its logs and predictions
// (relational cascade), then removes the document and its mirrors.
func (s *BookingService) DeleteBooking(ctx context.Context, id int64) (coordinator.WriteOutcome, error) {
	outcome, err := s.coord.Write(ctx, coordinator.OpDeleteBooking,
		func(ctx context.Context) (int64, error) {
			return id, s.rel.DeleteBooking(ctx, id)
		},
		func(ctx context.Context) error {
			return s.docs.DeleteBooking(ctx, id)
		},
		nil)
	if err != nil {
		return outcome, err
	}

	s.publishEvent(events.EventBookingDeleted, events.BookingEventPayload{
		BookingID: id,
		Partial:   outcome.Partial(),
	})

	return outcome, nil
}

func (s *BookingService) GetBookingLogs(ctx context.Context, bookingID int64) ([]*models.BookingLog, error) {
	return s.rel.GetBookingLogs(ctx, bookingID)
}

func (s *BookingService) ListBookingLogs(ctx context.Context, limit, offset int) ([]*models.BookingLog, error) {
	return s.rel.ListBookingLogs(ctx, limit, offset)
}

// GetStatistics reads from the authoritative store. Document-side
// aggregation is exposed separately for cross-checks.
func (s *BookingService) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	return s.rel.GetStatistics(ctx)
}

func (s *BookingService) GetDocumentStatistics(ctx context.Context) (*models.Statistics, error) {
	return s.docs.GetStatistics(ctx)
}

// mirrorBooking собирает документ из свежих реляционных снимков
// родителей и кладёт его в зеркало.
func (s *BookingService) mirrorBooking(ctx context.Context, booking *models.Booking) error {
	hotel, err := s.rel.GetHotel(ctx, booking.HotelID)
	if err != nil {
		return err
	}
	guest, err := s.rel.GetGuest(ctx, booking.GuestID)
	if err != nil {
		return err
	}
	return s.docs.UpsertBooking(ctx, booking, hotel, guest)
}

func (s *BookingService) publishEvent(eventType string, payload events.BookingEventPayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", payload.BookingID).Msg("publish event error")
	}
}
