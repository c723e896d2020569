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

func (db *DB) CreateGuest(ctx context.Context, guest *models.Guest) error {
	query := `INSERT INTO guests (country, is_repeated_guest, customer_type, created_at)
              VALUES (?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		guest.Country,
		guest.IsRepeatedGuest,
		guest.CustomerType,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create guest: %w", translateErr(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	guest.GuestID = id
	guest.CreatedAt = now

	return nil
}

func (db *DB) GetGuest(ctx context.Context, id int64) (*models.Guest, error) {
	query := `SELECT guest_id, country, is_repeated_guest, customer_type, created_at
              FROM guests WHERE guest_id = ?`

	var guest models.Guest
	err := db.QueryRowContext(ctx, query, id).Scan(
		&guest.GuestID, &guest.Country, &guest.IsRepeatedGuest, &guest.CustomerType, &guest.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}
	return &guest, nil
}

func (db *DB) ListGuests(ctx context.Context, limit, offset int) ([]*models.Guest, error) {
	if limit <= 0 {
		limit = models.DefaultPageLimit
	}
	query := `SELECT guest_id, country, is_repeated_guest, customer_type, created_at
              FROM guests ORDER BY guest_id LIMIT ? OFFSET ?`

	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	defer rows.Close()

	var guests []*models.Guest
	for rows.Next() {
		g := &models.Guest{}
		if err := rows.Scan(&g.GuestID, &g.Country, &g.IsRepeatedGuest, &g.CustomerType, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan guest: %w", err)
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}
