package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookmirror/internal/audit"
	"bookmirror/internal/domain"
	"bookmirror/internal/models"
)

const bookingColumns = `booking_id, hotel_id, guest_id, lead_time, arrival_date_year,
        arrival_date_month, arrival_date_week_number, arrival_date_day_of_month,
        stays_in_weekend_nights, stays_in_week_nights, adults, children, babies,
        meal, market_segment, distribution_channel, previous_cancellations,
        previous_bookings_not_canceled, reserved_room_type, assigned_room_type,
        booking_changes, deposit_type, agent, company, days_in_waiting_list, adr,
        required_car_parking_spaces, total_of_special_requests, is_canceled,
        reservation_status, reservation_status_date, created_at, updated_at, version`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row scanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.BookingID, &b.HotelID, &b.GuestID, &b.LeadTime, &b.ArrivalDateYear,
		&b.ArrivalDateMonth, &b.ArrivalDateWeekNumber, &b.ArrivalDateDayOfMonth,
		&b.StaysInWeekendNights, &b.StaysInWeekNights, &b.Adults, &b.Children, &b.Babies,
		&b.Meal, &b.MarketSegment, &b.DistributionChannel, &b.PreviousCancellations,
		&b.PreviousBookingsNotCanceled, &b.ReservedRoomType, &b.AssignedRoomType,
		&b.BookingChanges, &b.DepositType, &b.Agent, &b.Company, &b.DaysInWaitingList, &b.ADR,
		&b.RequiredCarParkingSpaces, &b.TotalOfSpecialRequests, &b.IsCanceled,
		&b.ReservationStatus, &b.ReservationStatusDate, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBooking вставляет бронирование и в той же транзакции пишет
// журнальную запись INSERT, заменяя движковый триггер.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) (*models.BookingLog, error) {
	// Предварительная проверка ссылок даёт понятную ошибку до срабатывания FK.
	if err := db.checkReference(ctx, booking.HotelID, booking.GuestID); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO bookings (
                hotel_id, guest_id, lead_time, arrival_date_year, arrival_date_month,
                arrival_date_week_number, arrival_date_day_of_month,
                stays_in_weekend_nights, stays_in_week_nights, adults, children, babies,
                meal, market_segment, distribution_channel, previous_cancellations,
                previous_bookings_not_canceled, reserved_room_type, assigned_room_type,
                booking_changes, deposit_type, agent, company, days_in_waiting_list, adr,
                required_car_parking_spaces, total_of_special_requests, is_canceled,
                reservation_status, reservation_status_date, created_at, updated_at, version
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, query,
		booking.HotelID, booking.GuestID, booking.LeadTime, booking.ArrivalDateYear,
		booking.ArrivalDateMonth, booking.ArrivalDateWeekNumber, booking.ArrivalDateDayOfMonth,
		booking.StaysInWeekendNights, booking.StaysInWeekNights, booking.Adults,
		booking.Children, booking.Babies, booking.Meal, booking.MarketSegment,
		booking.DistributionChannel, booking.PreviousCancellations,
		booking.PreviousBookingsNotCanceled, booking.ReservedRoomType, booking.AssignedRoomType,
		booking.BookingChanges, booking.DepositType, booking.Agent, booking.Company,
		booking.DaysInWaitingList, booking.ADR, booking.RequiredCarParkingSpaces,
		booking.TotalOfSpecialRequests, booking.IsCanceled, booking.ReservationStatus,
		booking.ReservationStatusDate, now, now, 1,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", translateErr(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.BookingID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1

	entry, _ := audit.NewEntry(id, models.ActionInsert, nil, &booking.ReservationStatus)
	entry.Timestamp = db.logClock.Next()
	if err := insertBookingLogTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}
	return entry, nil
}

func (db *DB) checkReference(ctx context.Context, hotelID, guestID int64) error {
	if _, err := db.GetHotel(ctx, hotelID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("hotel %d: %w", hotelID, domain.ErrReferenceNotFound)
		}
		return err
	}
	if _, err := db.GetGuest(ctx, guestID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("guest %d: %w", guestID, domain.ErrReferenceNotFound)
		}
		return err
	}
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = ?`

	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) ListBookings(ctx context.Context, limit, offset int) ([]*models.Booking, error) {
	if limit <= 0 {
		limit = models.DefaultPageLimit
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY booking_id LIMIT ? OFFSET ?`

	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateBooking применяет частичное обновление под оптимистической
// проверкой версии. Ровно одна журнальная запись пишется тогда и
// только тогда, когда reservation_status реально изменился, в одной
// транзакции с самим обновлением.
func (db *DB) UpdateBooking(ctx context.Context, id int64, upd models.BookingUpdate) (*models.Booking, *models.BookingLog, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := scanBooking(tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE booking_id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to load booking for update: %w", err)
	}

	oldStatus := current.ReservationStatus

	updated := *current
	if upd.ReservationStatus != nil {
		updated.ReservationStatus = *upd.ReservationStatus
	}
	if upd.ReservationStatusDate != nil {
		updated.ReservationStatusDate = upd.ReservationStatusDate
	}
	if upd.IsCanceled != nil {
		updated.IsCanceled = *upd.IsCanceled
	}
	if upd.BookingChanges != nil {
		updated.BookingChanges = *upd.BookingChanges
	}
	if upd.ADR != nil {
		updated.ADR = *upd.ADR
	}

	now := time.Now()
	query := `UPDATE bookings
              SET reservation_status = ?, reservation_status_date = ?, is_canceled = ?,
                  booking_changes = ?, adr = ?, updated_at = ?, version = version + 1
              WHERE booking_id = ? AND version = ?`
	result, err := tx.ExecContext(ctx, query,
		updated.ReservationStatus, updated.ReservationStatusDate, updated.IsCanceled,
		updated.BookingChanges, updated.ADR, now, id, current.Version,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update booking: %w", translateErr(err))
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, nil, domain.ErrConcurrentModification
	}
	updated.UpdatedAt = now
	updated.Version = current.Version + 1

	var entry *models.BookingLog
	if e, ok := audit.NewEntry(id, models.ActionUpdate, &oldStatus, &updated.ReservationStatus); ok {
		e.Timestamp = db.logClock.Next()
		if err := insertBookingLogTx(ctx, tx, e); err != nil {
			return nil, nil, err
		}
		entry = e
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit booking update: %w", err)
	}
	return &updated, entry, nil
}

// DeleteBooking удаляет бронирование; booking_logs и predictions
// уходят каскадом.
func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE booking_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", translateErr(err))
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
