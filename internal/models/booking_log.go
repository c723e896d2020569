package models

import "time"

// BookingLog is an append-only audit entry for a booking status
// transition. Entries are never updated; they disappear only when the
// parent booking is deleted (cascade).
type BookingLog struct {
	LogID     int64     `json:"log_id"`
	BookingID int64     `json:"booking_id"`
	Action    string    `json:"action"` // INSERT, UPDATE, DELETE
	OldStatus *string   `json:"old_status"`
	NewStatus *string   `json:"new_status"`
	Timestamp time.Time `json:"timestamp"`
}
