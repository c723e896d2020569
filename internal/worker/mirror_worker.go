package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"bookmirror/internal/database"
	"bookmirror/internal/domain"
	"bookmirror/internal/metrics"
	"bookmirror/internal/models"
)

const (
	TaskUpsertHotel      = "upsert_hotel"
	TaskUpsertGuest      = "upsert_guest"
	TaskUpsertBooking    = "upsert_booking"
	TaskDeleteBooking    = "delete_booking"
	TaskAppendLog        = "append_log"
	TaskUpsertPrediction = "upsert_prediction"
)

// MirrorPayload is persisted in SyncTask.Payload as JSON. Bookings are
// re-read from the relational store at replay time, so the payload only
// carries what cannot be re-read by booking id.
type MirrorPayload struct {
	HotelID    int64              `json:"hotel_id,omitempty"`
	GuestID    int64              `json:"guest_id,omitempty"`
	Prediction *models.Prediction `json:"prediction,omitempty"`
}

// EncodeMirrorPayload сериализует payload; ошибок кодирования у этой
// структуры не бывает.
func EncodeMirrorPayload(p MirrorPayload) string {
	data, _ := json.Marshal(p)
	return string(data)
}

// MirrorWorker replays failed document-store writes from the
// sync_queue table until they complete or dead-letter.
type MirrorWorker struct {
	db           *database.DB
	docs         domain.DocumentStore
	retryPolicy  RetryPolicy
	queue        chan models.SyncTask
	pollInterval time.Duration
	batchSize    int
	logger       zerolog.Logger
}

// NewMirrorWorker builds a worker with sane defaults.
func NewMirrorWorker(db *database.DB, docs domain.DocumentStore, retry RetryPolicy, logger zerolog.Logger) *MirrorWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &MirrorWorker{
		db:           db,
		docs:         docs,
		retryPolicy:  retry,
		queue:        make(chan models.SyncTask, models.ReconcileQueueSize),
		pollInterval: 2 * time.Second,
		batchSize:    20,
		logger:       logger.With().Str("component", "mirror_worker").Logger(),
	}
}

// SetPollInterval overrides the DB poll interval. Call before Start.
func (w *MirrorWorker) SetPollInterval(d time.Duration) {
	if d > 0 {
		w.pollInterval = d
	}
}

// SetBatchSize overrides the DB poll batch size. Call before Start.
func (w *MirrorWorker) SetBatchSize(n int) {
	if n > 0 {
		w.batchSize = n
	}
}

// Enqueue persists the task and schedules it for prompt replay.
// Реализует domain.ReconcileEnqueuer; таблица sync_queue остаётся
// источником истины, канал лишь ускоряет подхват.
func (w *MirrorWorker) Enqueue(ctx context.Context, task *models.SyncTask) error {
	if task.TaskType == "" {
		return errors.New("task type is required")
	}
	if task.Status == "" {
		task.Status = "pending"
	}

	if err := w.db.CreateSyncTask(ctx, task); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	select {
	case w.queue <- *task:
	default:
		// Канал полон, задача дождётся опроса таблицы.
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *MirrorWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("mirror worker started")
	defer w.logger.Info().Msg("mirror worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending tasks")
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *MirrorWorker) sleep(ctx context.Context) {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (w *MirrorWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *MirrorWorker) processTask(ctx context.Context, task *models.SyncTask) {
	var payload MirrorPayload
	if task.Payload != "" {
		if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
			w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
			return
		}
	}

	if err := w.replay(ctx, task, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark completed")
	}
	metrics.IncReconcileTask("completed")
}

// replay перечитывает авторитетное состояние и приводит зеркало к
// нему. Повтор того же задания безопасен.
func (w *MirrorWorker) replay(ctx context.Context, task *models.SyncTask, payload MirrorPayload) error {
	switch task.TaskType {
	case TaskUpsertHotel:
		hotel, err := w.db.GetHotel(ctx, payload.HotelID)
		if err != nil {
			return err
		}
		return w.docs.UpsertHotel(ctx, hotel)

	case TaskUpsertGuest:
		guest, err := w.db.GetGuest(ctx, payload.GuestID)
		if err != nil {
			return err
		}
		return w.docs.UpsertGuest(ctx, guest)

	case TaskUpsertBooking:
		booking, err := w.db.GetBooking(ctx, task.BookingID)
		if errors.Is(err, domain.ErrNotFound) {
			// Бронь удалили после постановки задачи; документ тоже убираем.
			return w.docs.DeleteBooking(ctx, task.BookingID)
		}
		if err != nil {
			return err
		}
		hotel, err := w.db.GetHotel(ctx, booking.HotelID)
		if err != nil {
			return err
		}
		guest, err := w.db.GetGuest(ctx, booking.GuestID)
		if err != nil {
			return err
		}
		if err := w.docs.UpsertBooking(ctx, booking, hotel, guest); err != nil {
			return err
		}
		// Лег документа пишет документ вместе с журналом; при сверке
		// восстанавливаем обе части, иначе зеркальный журнал теряет переход.
		return w.replayLogs(ctx, task.BookingID)

	case TaskDeleteBooking:
		return w.docs.DeleteBooking(ctx, task.BookingID)

	case TaskAppendLog:
		return w.replayLogs(ctx, task.BookingID)

	case TaskUpsertPrediction:
		if payload.Prediction == nil {
			return errors.New("prediction payload missing")
		}
		return w.docs.UpsertPrediction(ctx, payload.Prediction)

	default:
		return fmt.Errorf("unknown task type: %s", task.TaskType)
	}
}

// replayLogs переносит журнал брони из реляционной базы в зеркало.
// AppendLog идемпотентен по log_id, повторный прогон безопасен.
func (w *MirrorWorker) replayLogs(ctx context.Context, bookingID int64) error {
	logs, err := w.db.GetBookingLogs(ctx, bookingID)
	if err != nil {
		return err
	}
	for _, entry := range logs {
		if err := w.docs.AppendLog(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (w *MirrorWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.failTask(ctx, task, cause)
		return
	}

	nextDelay := w.retryPolicy.NextDelay(attempt)
	nextTime := time.Now().Add(nextDelay)
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark retry")
	}
	metrics.IncReconcileTask("retry")
}

func (w *MirrorWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	w.logger.Error().Err(cause).
		Int64("task_id", task.ID).
		Str("task_type", task.TaskType).
		Int64("booking_id", task.BookingID).
		Msg("reconcile task dead-lettered")
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark failed")
	}
	metrics.IncReconcileTask("failed")
}
