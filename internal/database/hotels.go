package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookmirror/internal/domain"
	"bookmirror/internal/models"
)

// CreateHotel вставляет отель; имя уникально.
func (db *DB) CreateHotel(ctx context.Context, hotel *models.Hotel) error {
	query := `INSERT INTO hotels (hotel_name, created_at) VALUES (?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, hotel.HotelName, now)
	if err != nil {
		return fmt.Errorf("failed to create hotel: %w", translateErr(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	hotel.HotelID = id
	hotel.CreatedAt = now

	return nil
}

func (db *DB) GetHotel(ctx context.Context, id int64) (*models.Hotel, error) {
	query := `SELECT hotel_id, hotel_name, created_at FROM hotels WHERE hotel_id = ?`

	var hotel models.Hotel
	err := db.QueryRowContext(ctx, query, id).Scan(&hotel.HotelID, &hotel.HotelName, &hotel.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get hotel: %w", err)
	}
	return &hotel, nil
}

func (db *DB) GetHotelByName(ctx context.Context, name string) (*models.Hotel, error) {
	query := `SELECT hotel_id, hotel_name, created_at FROM hotels WHERE hotel_name = ?`

	var hotel models.Hotel
	err := db.QueryRowContext(ctx, query, name).Scan(&hotel.HotelID, &hotel.HotelName, &hotel.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get hotel by name: %w", err)
	}
	return &hotel, nil
}

func (db *DB) ListHotels(ctx context.Context, limit, offset int) ([]*models.Hotel, error) {
	if limit <= 0 {
		limit = models.DefaultPageLimit
	}
	query := `SELECT hotel_id, hotel_name, created_at FROM hotels ORDER BY hotel_id LIMIT ? OFFSET ?`

	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list hotels: %w", err)
	}
	defer rows.Close()

	var hotels []*models.Hotel
	for rows.Next() {
		h := &models.Hotel{}
		if err := rows.Scan(&h.HotelID, &h.HotelName, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan hotel: %w", err)
		}
		hotels = append(hotels, h)
	}
	return hotels, rows.Err()
}

// RenameHotel единственная разрешённая мутация отеля.
func (db *DB) RenameHotel(ctx context.Context, id int64, name string) error {
	query := `UPDATE hotels SET hotel_name = ? WHERE hotel_id = ?`
	result, err := db.ExecContext(ctx, query, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename hotel: %w", translateErr(err))
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
