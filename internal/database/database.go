package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bookmirror/internal/audit"
	"bookmirror/internal/domain"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB это авторитетное реляционное хранилище на SQLite.
type DB struct {
	*sql.DB
	logger   *zerolog.Logger
	logClock audit.Clock
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// foreign_keys включает каскадное удаление booking_logs и predictions
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("relational store initialized")
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS hotels (
            hotel_id INTEGER PRIMARY KEY AUTOINCREMENT,
            hotel_name TEXT UNIQUE NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS guests (
            guest_id INTEGER PRIMARY KEY AUTOINCREMENT,
            country TEXT NOT NULL,
            is_repeated_guest BOOLEAN NOT NULL DEFAULT 0,
            customer_type TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS bookings (
            booking_id INTEGER PRIMARY KEY AUTOINCREMENT,
            hotel_id INTEGER NOT NULL REFERENCES hotels(hotel_id),
            guest_id INTEGER NOT NULL REFERENCES guests(guest_id),
            lead_time INTEGER NOT NULL DEFAULT 0,
            arrival_date_year INTEGER NOT NULL DEFAULT 0,
            arrival_date_month TEXT,
            arrival_date_week_number INTEGER NOT NULL DEFAULT 0,
            arrival_date_day_of_month INTEGER NOT NULL DEFAULT 0,
            stays_in_weekend_nights INTEGER NOT NULL DEFAULT 0,
            stays_in_week_nights INTEGER NOT NULL DEFAULT 0,
            adults INTEGER NOT NULL DEFAULT 0,
            children INTEGER NOT NULL DEFAULT 0,
            babies INTEGER NOT NULL DEFAULT 0,
            meal TEXT,
            market_segment TEXT,
            distribution_channel TEXT,
            previous_cancellations INTEGER NOT NULL DEFAULT 0,
            previous_bookings_not_canceled INTEGER NOT NULL DEFAULT 0,
            reserved_room_type TEXT,
            assigned_room_type TEXT,
            booking_changes INTEGER NOT NULL DEFAULT 0,
            deposit_type TEXT,
            agent INTEGER,
            company INTEGER,
            days_in_waiting_list INTEGER NOT NULL DEFAULT 0,
            adr REAL NOT NULL DEFAULT 0,
            required_car_parking_spaces INTEGER NOT NULL DEFAULT 0,
            total_of_special_requests INTEGER NOT NULL DEFAULT 0,
            is_canceled BOOLEAN NOT NULL DEFAULT 0,
            reservation_status TEXT NOT NULL,
            reservation_status_date TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,

		`CREATE TABLE IF NOT EXISTS booking_logs (
            log_id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id INTEGER NOT NULL REFERENCES bookings(booking_id) ON DELETE CASCADE,
            action TEXT NOT NULL,
            old_status TEXT,
            new_status TEXT,
            timestamp DATETIME NOT NULL
        )`,

		`CREATE TABLE IF NOT EXISTS predictions (
            prediction_id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id INTEGER NOT NULL REFERENCES bookings(booking_id) ON DELETE CASCADE,
            predicted_canceled BOOLEAN NOT NULL,
            cancellation_probability REAL NOT NULL,
            not_cancelled_probability REAL NOT NULL,
            features_used INTEGER NOT NULL DEFAULT 0,
            model_version TEXT,
            prediction_timestamp DATETIME NOT NULL,
            notes TEXT
        )`,

		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            booking_id INTEGER NOT NULL,
            payload TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_hotel_id ON bookings(hotel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_guest_id ON bookings(guest_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(reservation_status)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_logs_booking_id ON booking_logs(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_booking_id ON predictions(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// translateErr maps SQLite constraint failures onto the shared error
// taxonomy so callers never depend on driver error codes.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", domain.ErrDuplicate, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", domain.ErrReferenceNotFound, err)
		}
	}
	return err
}

func (db *DB) Close() error {
	return db.DB.Close()
}
