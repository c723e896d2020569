package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmirror/internal/models"
)

func TestSyncTaskLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{
		TaskType:  "upsert_booking",
		BookingID: 7,
		Payload:   `{"booking_id":7}`,
		Status:    "pending",
	}
	require.NoError(t, db.CreateSyncTask(ctx, task))
	assert.NotZero(t, task.ID)

	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "upsert_booking", pending[0].TaskType)
	assert.Equal(t, int64(7), pending[0].BookingID)

	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil))

	pending, err = db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSyncTaskRetryIncrementsCount(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{TaskType: "append_log", BookingID: 1, Status: "pending"}
	require.NoError(t, db.CreateSyncTask(ctx, task))

	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "retry", "connection refused", &past))

	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1, "retry task with elapsed next_retry_at is picked up")
	assert.Equal(t, 1, pending[0].RetryCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "connection refused", *pending[0].LastError)
}

func TestSyncTaskFutureRetryNotPicked(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{TaskType: "upsert_booking", BookingID: 2, Status: "pending"}
	require.NoError(t, db.CreateSyncTask(ctx, task))

	future := time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "retry", "still down", &future))

	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGetFailedSyncTasks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{TaskType: "upsert_prediction", BookingID: 3, Status: "pending"}
	require.NoError(t, db.CreateSyncTask(ctx, task))
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "failed", "gave up", nil))

	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "failed", failed[0].Status)
	assert.NotNil(t, failed[0].ProcessedAt)
}
