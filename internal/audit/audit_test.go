package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmirror/internal/models"
)

type memorySink struct {
	mu      sync.Mutex
	entries []*models.BookingLog
	fail    error
}

func (s *memorySink) AppendLog(_ context.Context, entry *models.BookingLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.entries = append(s.entries, entry)
	return nil
}

func strp(s string) *string { return &s }

func TestNewEntryInsert(t *testing.T) {
	entry, ok := NewEntry(1, models.ActionInsert, strp("ignored"), strp(models.StatusCheckOut))
	require.True(t, ok)
	assert.Nil(t, entry.OldStatus, "INSERT carries no old status")
	assert.Equal(t, models.StatusCheckOut, *entry.NewStatus)
}

func TestNewEntryUpdateUnchangedStatus(t *testing.T) {
	entry, ok := NewEntry(1, models.ActionUpdate, strp(models.StatusCheckOut), strp(models.StatusCheckOut))
	assert.False(t, ok)
	assert.Nil(t, entry)
}

func TestNewEntryUpdateChangedStatus(t *testing.T) {
	entry, ok := NewEntry(1, models.ActionUpdate, strp(models.StatusCheckOut), strp(models.StatusCanceled))
	require.True(t, ok)
	assert.Equal(t, models.StatusCheckOut, *entry.OldStatus)
	assert.Equal(t, models.StatusCanceled, *entry.NewStatus)
}

func TestNewEntryDelete(t *testing.T) {
	entry, ok := NewEntry(1, models.ActionDelete, strp(models.StatusCanceled), strp("ignored"))
	require.True(t, ok)
	assert.Equal(t, models.StatusCanceled, *entry.OldStatus)
	assert.Nil(t, entry.NewStatus, "DELETE carries no new status")
}

func TestClockStrictlyIncreasing(t *testing.T) {
	var c Clock
	prev := c.Next()
	for i := 0; i < 1000; i++ {
		ts := c.Next()
		require.True(t, ts.After(prev), "timestamps must strictly increase")
		prev = ts
	}
}

func TestClockConcurrentNoDuplicates(t *testing.T) {
	var (
		c  Clock
		wg sync.WaitGroup
		mu sync.Mutex
	)
	seen := make(map[int64]bool)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				ts := c.Next().UnixNano()
				mu.Lock()
				assert.False(t, seen[ts])
				seen[ts] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestWriterRecordTransition(t *testing.T) {
	sink := &memorySink{}
	w := NewWriter(sink, nil)

	entry, err := w.RecordTransition(context.Background(), 7, models.ActionUpdate, strp(models.StatusCheckOut), strp(models.StatusCanceled))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.False(t, entry.Timestamp.IsZero())
	require.Len(t, sink.entries, 1)

	// unchanged status is a no-op, nothing reaches the sink
	entry, err = w.RecordTransition(context.Background(), 7, models.ActionUpdate, strp(models.StatusCanceled), strp(models.StatusCanceled))
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Len(t, sink.entries, 1)
}

func TestWriterRecordTransitionSinkError(t *testing.T) {
	sinkErr := errors.New("sink down")
	w := NewWriter(&memorySink{fail: sinkErr}, nil)

	entry, err := w.RecordTransition(context.Background(), 7, models.ActionInsert, nil, strp(models.StatusCheckOut))
	assert.ErrorIs(t, err, sinkErr)
	assert.Nil(t, entry)
}

func TestWriterRecordKeepsExistingTimestamp(t *testing.T) {
	sink := &memorySink{}
	w := NewWriter(sink, nil)

	var c Clock
	ts := c.Next()
	entry := &models.BookingLog{BookingID: 3, Action: models.ActionInsert, NewStatus: strp(models.StatusCheckOut), Timestamp: ts}
	require.NoError(t, w.Record(context.Background(), entry))
	assert.Equal(t, ts, sink.entries[0].Timestamp)

	require.NoError(t, w.Record(context.Background(), nil), "nil entry is a no-op")
	assert.Len(t, sink.entries, 1)
}
