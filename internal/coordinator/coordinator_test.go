package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmirror/internal/domain"
	"bookmirror/internal/models"
	"bookmirror/internal/worker"
)

type fakeQueue struct {
	tasks []*models.SyncTask
	err   error
}

func (q *fakeQueue) Enqueue(_ context.Context, task *models.SyncTask) error {
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func testPolicy() worker.RetryPolicy {
	return worker.RetryPolicy{
		MaxRetries:    2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func newTestCoordinator(q domain.ReconcileEnqueuer) *Coordinator {
	return New(q, testPolicy(), time.Second, zerolog.Nop())
}

func TestWriteBothLegsSucceed(t *testing.T) {
	c := newTestCoordinator(&fakeQueue{})

	var relCalls, docCalls int
	outcome, err := c.Write(context.Background(), OpUpsertBooking,
		func(ctx context.Context) (int64, error) { relCalls++; return 7, nil },
		func(ctx context.Context) error { docCalls++; return nil },
		func() string { return "{}" })

	require.NoError(t, err)
	assert.Equal(t, 1, relCalls)
	assert.Equal(t, 1, docCalls)
	assert.True(t, outcome.RelationalDone)
	assert.True(t, outcome.DocumentDone)
	assert.False(t, outcome.Partial())
	assert.False(t, outcome.Enqueued)
}

func TestWriteRelationalFailureSkipsDocument(t *testing.T) {
	c := newTestCoordinator(&fakeQueue{})

	var docCalls int
	relErr := domain.ErrDuplicate
	outcome, err := c.Write(context.Background(), OpUpsertBooking,
		func(ctx context.Context) (int64, error) { return 0, relErr },
		func(ctx context.Context) error { docCalls++; return nil },
		func() string { return "{}" })

	require.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, 0, docCalls, "реляционная ошибка не должна трогать зеркало")
	assert.False(t, outcome.RelationalDone)
	assert.False(t, outcome.Partial())
}

func TestWriteRelationalNeverRetried(t *testing.T) {
	c := newTestCoordinator(&fakeQueue{})

	var relCalls int
	_, err := c.Write(context.Background(), OpUpsertBooking,
		func(ctx context.Context) (int64, error) {
			relCalls++
			return 0, domain.Transientf("db locked")
		},
		func(ctx context.Context) error { return nil },
		func() string { return "{}" })

	require.Error(t, err)
	assert.Equal(t, 1, relCalls)
}

func TestWriteDocumentTransientRetriesThenSucceeds(t *testing.T) {
	c := newTestCoordinator(&fakeQueue{})

	var docCalls int
	outcome, err := c.Write(context.Background(), OpUpsertBooking,
		func(ctx context.Context) (int64, error) { return 7, nil },
		func(ctx context.Context) error {
			docCalls++
			if docCalls < 3 {
				return domain.Transientf("connection refused")
			}
			return nil
		},
		func() string { return "{}" })

	require.NoError(t, err)
	assert.Equal(t, 3, docCalls)
	assert.True(t, outcome.DocumentDone)
	assert.Equal(t, 3, outcome.DocumentAttempts)
	assert.False(t, outcome.Partial())
}

func TestWriteDocumentExhaustionIsPartial(t *testing.T) {
	q := &fakeQueue{}
	c := newTestCoordinator(q)

	var docCalls int
	docErr := domain.Transientf("connection refused")
	outcome, err := c.Write(context.Background(), OpUpsertBooking,
		func(ctx context.Context) (int64, error) { return 42, nil },
		func(ctx context.Context) error { docCalls++; return docErr },
		func() string { return `{"booking_id":42}` })

	require.NoError(t, err, "partial write is a result, not an error")
	assert.Equal(t, 3, docCalls, "initial attempt plus MaxRetries")
	assert.True(t, outcome.Partial())
	assert.True(t, outcome.Enqueued)
	assert.ErrorIs(t, outcome.DocumentErr, domain.ErrTransient)

	require.Len(t, q.tasks, 1)
	assert.Equal(t, string(OpUpsertBooking), q.tasks[0].TaskType)
	assert.Equal(t, int64(42), q.tasks[0].BookingID)
	assert.Equal(t, `{"booking_id":42}`, q.tasks[0].Payload)
}

func TestWriteDocumentTerminalErrorNotRetried(t *testing.T) {
	q := &fakeQueue{}
	c := newTestCoordinator(q)

	var docCalls int
	outcome, err := c.Write(context.Background(), OpAppendLog,
		func(ctx context.Context) (int64, error) { return 7, nil },
		func(ctx context.Context) error {
			docCalls++
			return domain.ErrNotFound
		},
		func() string { return "{}" })

	require.NoError(t, err)
	assert.Equal(t, 1, docCalls, "терминальная ошибка не переигрывается")
	assert.True(t, outcome.Partial())
}

func TestWriteCanceledBeforeRelationalLeg(t *testing.T) {
	c := newTestCoordinator(&fakeQueue{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var relCalls int
	outcome, err := c.Write(ctx, OpUpsertBooking,
		func(ctx context.Context) (int64, error) { relCalls++; return 7, nil },
		func(ctx context.Context) error { return nil },
		func() string { return "{}" })

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, relCalls)
	assert.False(t, outcome.RelationalDone)
}

func TestWriteCancellationAfterRelationalStillMirrors(t *testing.T) {
	c := newTestCoordinator(&fakeQueue{})

	ctx, cancel := context.WithCancel(context.Background())
	var docCalls int
	outcome, err := c.Write(ctx, OpUpsertBooking,
		func(ctx context.Context) (int64, error) {
			cancel()
			return 7, nil
		},
		func(ctx context.Context) error { docCalls++; return nil },
		func() string { return "{}" })

	require.NoError(t, err)
	assert.Equal(t, 1, docCalls, "после реляционной ноги отмена не прерывает зеркало")
	assert.True(t, outcome.DocumentDone)
}

func TestWriteEnqueueFailureReported(t *testing.T) {
	q := &fakeQueue{err: errors.New("queue down")}
	c := newTestCoordinator(q)

	outcome, err := c.Write(context.Background(), OpUpsertBooking,
		func(ctx context.Context) (int64, error) { return 7, nil },
		func(ctx context.Context) error { return domain.ErrNotFound },
		func() string { return "{}" })

	require.NoError(t, err)
	assert.True(t, outcome.Partial())
	assert.False(t, outcome.Enqueued)
}

func TestMirrorOnly(t *testing.T) {
	c := newTestCoordinator(&fakeQueue{})

	var docCalls int
	outcome := c.MirrorOnly(context.Background(), OpDeleteBooking, 9,
		func(ctx context.Context) error { docCalls++; return nil },
		nil)

	assert.Equal(t, 1, docCalls)
	assert.True(t, outcome.DocumentDone)
	assert.False(t, outcome.Partial())
}
