package audit

import (
	"context"
	"sync"
	"time"

	"bookmirror/internal/models"

	"github.com/rs/zerolog"
)

// Sink appends one audit entry to a concrete store. Implementations
// must be append-only: no overwrite-in-place, no deletes.
type Sink interface {
	AppendLog(ctx context.Context, entry *models.BookingLog) error
}

// NewEntry builds the audit entry for a transition, or reports that no
// entry is needed. An UPDATE that leaves the status unchanged produces
// nothing; this is the single place that invariant lives, shared by
// the relational trigger replacement and the document-side writer.
func NewEntry(bookingID int64, action string, oldStatus, newStatus *string) (*models.BookingLog, bool) {
	switch action {
	case models.ActionInsert:
		oldStatus = nil
	case models.ActionUpdate:
		if oldStatus != nil && newStatus != nil && *oldStatus == *newStatus {
			return nil, false
		}
	case models.ActionDelete:
		newStatus = nil
	}

	return &models.BookingLog{
		BookingID: bookingID,
		Action:    action,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}, true
}

// Clock hands out strictly increasing timestamps so that interleaved
// writers never produce two entries with the same ordering key.
type Clock struct {
	mu     sync.Mutex
	lastTS time.Time
}

// Next returns a timestamp strictly after every previously returned one.
func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := time.Now().UTC()
	if !ts.After(c.lastTS) {
		ts = c.lastTS.Add(time.Microsecond)
	}
	c.lastTS = ts
	return ts
}

// Writer records status transitions through a sink with monotonically
// increasing timestamps. Concurrent writers may interleave but entries
// are never lost or reordered against the clock.
type Writer struct {
	sink   Sink
	logger *zerolog.Logger
	clock  Clock
}

func NewWriter(sink Sink, logger *zerolog.Logger) *Writer {
	return &Writer{sink: sink, logger: logger}
}

// RecordTransition appends an entry for the transition, returning the
// entry written or nil for a no-op (UPDATE with unchanged status).
func (w *Writer) RecordTransition(ctx context.Context, bookingID int64, action string, oldStatus, newStatus *string) (*models.BookingLog, error) {
	entry, ok := NewEntry(bookingID, action, oldStatus, newStatus)
	if !ok {
		return nil, nil
	}

	entry.Timestamp = w.clock.Next()

	if err := w.sink.AppendLog(ctx, entry); err != nil {
		return nil, err
	}

	if w.logger != nil {
		w.logger.Debug().
			Int64("booking_id", entry.BookingID).
			Str("action", entry.Action).
			Time("timestamp", entry.Timestamp).
			Msg("audit entry recorded")
	}
	return entry, nil
}

// Record appends a pre-built entry, assigning a timestamp when the
// entry carries none. Used when mirroring entries already written by
// the authoritative store.
func (w *Writer) Record(ctx context.Context, entry *models.BookingLog) error {
	if entry == nil {
		return nil
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = w.clock.Next()
	}
	return w.sink.AppendLog(ctx, entry)
}
