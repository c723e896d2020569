package database

import (
	"context"
	"database/sql"
	"fmt"

	"bookmirror/internal/models"
)

func insertBookingLogTx(ctx context.Context, tx *sql.Tx, entry *models.BookingLog) error {
	query := `INSERT INTO booking_logs (booking_id, action, old_status, new_status, timestamp)
              VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, query,
		entry.BookingID, entry.Action, entry.OldStatus, entry.NewStatus, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking log: %w", translateErr(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get log id: %w", err)
	}
	entry.LogID = id
	return nil
}

// AppendLog makes the relational store usable as an audit sink outside
// a booking transaction (verifier / fallback path).
func (db *DB) AppendLog(ctx context.Context, entry *models.BookingLog) error {
	query := `INSERT INTO booking_logs (booking_id, action, old_status, new_status, timestamp)
              VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		entry.BookingID, entry.Action, entry.OldStatus, entry.NewStatus, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append booking log: %w", translateErr(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get log id: %w", err)
	}
	entry.LogID = id
	return nil
}

func (db *DB) GetBookingLogs(ctx context.Context, bookingID int64) ([]*models.BookingLog, error) {
	query := `SELECT log_id, booking_id, action, old_status, new_status, timestamp
              FROM booking_logs WHERE booking_id = ? ORDER BY log_id`

	rows, err := db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking logs: %w", err)
	}
	defer rows.Close()

	return scanLogs(rows)
}

func (db *DB) ListBookingLogs(ctx context.Context, limit, offset int) ([]*models.BookingLog, error) {
	if limit <= 0 {
		limit = models.DefaultPageLimit
	}
	query := `SELECT log_id, booking_id, action, old_status, new_status, timestamp
              FROM booking_logs ORDER BY log_id DESC LIMIT ? OFFSET ?`

	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking logs: %w", err)
	}
	defer rows.Close()

	return scanLogs(rows)
}

func scanLogs(rows *sql.Rows) ([]*models.BookingLog, error) {
	var logs []*models.BookingLog
	for rows.Next() {
		l := &models.BookingLog{}
		err := rows.Scan(&l.LogID, &l.BookingID, &l.Action, &l.OldStatus, &l.NewStatus, &l.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
