package document

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"bookmirror/internal/models"
)

func (s *Store) UpsertHotel(ctx context.Context, hotel *models.Hotel) error {
	data, err := json.Marshal(hotel)
	if err != nil {
		return fmt.Errorf("failed to marshal hotel: %w", err)
	}
	return wrapErr("set hotel", s.client.Set(ctx, hotelKey(hotel.HotelID), data, 0).Err())
}

func (s *Store) GetHotel(ctx context.Context, id int64) (*models.Hotel, error) {
	val, err := s.client.Get(ctx, hotelKey(id)).Result()
	if err != nil {
		return nil, wrapErr("get hotel", err)
	}
	var hotel models.Hotel
	if err := json.Unmarshal([]byte(val), &hotel); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hotel: %w", err)
	}
	return &hotel, nil
}

func (s *Store) UpsertGuest(ctx context.Context, guest *models.Guest) error {
	data, err := json.Marshal(guest)
	if err != nil {
		return fmt.Errorf("failed to marshal guest: %w", err)
	}
	return wrapErr("set guest", s.client.Set(ctx, guestKey(guest.GuestID), data, 0).Err())
}

func (s *Store) GetGuest(ctx context.Context, id int64) (*models.Guest, error) {
	val, err := s.client.Get(ctx, guestKey(id)).Result()
	if err != nil {
		return nil, wrapErr("get guest", err)
	}
	var guest models.Guest
	if err := json.Unmarshal([]byte(val), &guest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal guest: %w", err)
	}
	return &guest, nil
}

// UpsertBooking пишет денормализованный документ со снимками отеля и
// гостя на момент записи. Снимки не обновляются при последующем
// переименовании родителя, это осознанный компромисс зеркала.
func (s *Store) UpsertBooking(ctx context.Context, booking *models.Booking, hotel *models.Hotel, guest *models.Guest) error {
	doc := models.NewBookingDocument(booking, hotel, guest)
	if doc.Metadata.UpdatedAt.IsZero() {
		doc.Metadata.UpdatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal booking document: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, bookingKey(booking.BookingID), data, 0)
	pipe.SAdd(ctx, bookingIndexKey, booking.BookingID)
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapErr("set booking", err)
	}
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id int64) (*models.BookingDocument, error) {
	val, err := s.client.Get(ctx, bookingKey(id)).Result()
	if err != nil {
		return nil, wrapErr("get booking", err)
	}
	var doc models.BookingDocument
	if err := json.Unmarshal([]byte(val), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking document: %w", err)
	}
	return &doc, nil
}

// DeleteBooking удаляет документ, его журнал и все предсказания,
// аналог каскада реляционного хранилища.
func (s *Store) DeleteBooking(ctx context.Context, id int64) error {
	versions, err := s.client.SMembers(ctx, predictionSetKey(id)).Result()
	if err != nil {
		return wrapErr("get prediction versions", err)
	}

	keys := []string{bookingKey(id), bookingLogsKey(id), predictionSetKey(id)}
	for _, v := range versions {
		keys = append(keys, fmt.Sprintf("prediction:%d:%s", id, v))
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.SRem(ctx, bookingIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapErr("delete booking", err)
	}
	return nil
}

// AppendLog добавляет журнальную запись в хэш по log_id. Повторная
// доставка той же записи перезаписывает её тем же содержимым, так что
// журнал не теряет и не дублирует переходы.
func (s *Store) AppendLog(ctx context.Context, entry *models.BookingLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal booking log: %w", err)
	}
	field := strconv.FormatInt(entry.LogID, 10)
	return wrapErr("append booking log",
		s.client.HSet(ctx, bookingLogsKey(entry.BookingID), field, data).Err())
}

func (s *Store) GetBookingLogs(ctx context.Context, bookingID int64) ([]*models.BookingLog, error) {
	vals, err := s.client.HGetAll(ctx, bookingLogsKey(bookingID)).Result()
	if err != nil {
		return nil, wrapErr("get booking logs", err)
	}

	logs := make([]*models.BookingLog, 0, len(vals))
	for _, raw := range vals {
		l := &models.BookingLog{}
		if err := json.Unmarshal([]byte(raw), l); err != nil {
			return nil, fmt.Errorf("failed to unmarshal booking log: %w", err)
		}
		logs = append(logs, l)
	}

	// Хэш не упорядочен; восстанавливаем порядок по log_id.
	for i := 1; i < len(logs); i++ {
		for j := i; j > 0 && logs[j-1].LogID > logs[j].LogID; j-- {
			logs[j-1], logs[j] = logs[j], logs[j-1]
		}
	}
	return logs, nil
}
