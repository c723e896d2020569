package coordinator

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"bookmirror/internal/domain"
	"bookmirror/internal/metrics"
	"bookmirror/internal/models"
	"bookmirror/internal/worker"
)

// Operation называет тип двойной записи; совпадает с task_type в
// очереди переигрывания.
type Operation string

const (
	OpUpsertHotel      Operation = "upsert_hotel"
	OpUpsertGuest      Operation = "upsert_guest"
	OpUpsertBooking    Operation = "upsert_booking"
	OpDeleteBooking    Operation = "delete_booking"
	OpAppendLog        Operation = "append_log"
	OpUpsertPrediction Operation = "upsert_prediction"
)

// WriteOutcome reports how far a dual write got. A partial write is a
// successful relational write whose document leg failed; it is a
// result, not an error.
type WriteOutcome struct {
	Operation        Operation
	BookingID        int64
	RelationalDone   bool
	DocumentDone     bool
	DocumentAttempts int
	DocumentErr      error
	Enqueued         bool
}

// Partial reports whether the authoritative write landed but the
// mirror did not.
func (o WriteOutcome) Partial() bool {
	return o.RelationalDone && !o.DocumentDone
}

// Coordinator sequences the two legs of every write: relational first
// (never retried), then the document mirror with bounded backoff.
type Coordinator struct {
	queue   domain.ReconcileEnqueuer
	policy  worker.RetryPolicy
	timeout time.Duration
	logger  zerolog.Logger
}

func New(queue domain.ReconcileEnqueuer, policy worker.RetryPolicy, timeout time.Duration, logger zerolog.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = time.Duration(models.DefaultStoreTimeout) * time.Second
	}
	return &Coordinator{
		queue:   queue,
		policy:  policy,
		timeout: timeout,
		logger:  logger.With().Str("component", "coordinator").Logger(),
	}
}

// Write выполняет обе ноги записи. Реляционная нога решает судьбу
// операции: её ошибка возвращается как есть и зеркало не трогается.
// Отмена контекста проверяется только до реляционной ноги; после неё
// операция доводится до конца, чтобы не оставить диссонанс без
// задачи на переигрывание.
func (c *Coordinator) Write(
	ctx context.Context,
	op Operation,
	relational func(ctx context.Context) (int64, error),
	document func(ctx context.Context) error,
	payload func() string,
) (WriteOutcome, error) {
	outcome := WriteOutcome{Operation: op}

	if err := ctx.Err(); err != nil {
		return outcome, err
	}

	id, err := relational(ctx)
	if err != nil {
		metrics.IncStoreWrite("relational", "error")
		return outcome, err
	}
	outcome.BookingID = id
	outcome.RelationalDone = true
	metrics.IncStoreWrite("relational", "ok")

	c.mirror(ctx, &outcome, document, payload)
	return outcome, nil
}

// MirrorOnly replays just the document leg, for writes whose
// authoritative part already happened (reconciliation, read repair).
func (c *Coordinator) MirrorOnly(
	ctx context.Context,
	op Operation,
	bookingID int64,
	document func(ctx context.Context) error,
	payload func() string,
) WriteOutcome {
	outcome := WriteOutcome{Operation: op, BookingID: bookingID, RelationalDone: true}
	c.mirror(ctx, &outcome, document, payload)
	return outcome
}

func (c *Coordinator) mirror(ctx context.Context, outcome *WriteOutcome, document func(ctx context.Context) error, payload func() string) {
	maxAttempts := c.policy.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		outcome.DocumentAttempts = attempt
		err := c.tryDocument(ctx, document)
		if err == nil {
			outcome.DocumentDone = true
			metrics.IncStoreWrite("document", "ok")
			return
		}
		lastErr = err
		metrics.IncStoreWrite("document", "error")

		if !domain.IsTransient(err) {
			c.logger.Error().Err(err).
				Str("operation", string(outcome.Operation)).
				Int64("booking_id", outcome.BookingID).
				Msg("терминальная ошибка зеркала, повторов не будет")
			break
		}
		if attempt == maxAttempts {
			break
		}

		metrics.IncMirrorRetry()
		delay := c.policy.NextDelay(attempt)
		c.logger.Warn().Err(err).
			Str("operation", string(outcome.Operation)).
			Int64("booking_id", outcome.BookingID).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("document write failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			// Реляционная запись уже состоялась; уходим в очередь.
			c.finishPartial(outcome, payload, lastErr)
			return
		}
	}

	c.finishPartial(outcome, payload, lastErr)
}

// tryDocument runs one mirror attempt under the per-attempt timeout.
// The parent context is deliberately not used as the base: the mirror
// leg must complete or be queued even when the caller has gone away.
func (c *Coordinator) tryDocument(ctx context.Context, document func(ctx context.Context) error) error {
	attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()
	return document(attemptCtx)
}

func (c *Coordinator) finishPartial(outcome *WriteOutcome, payload func() string, lastErr error) {
	outcome.DocumentErr = lastErr
	metrics.IncPartialWrite(string(outcome.Operation))

	if c.queue == nil {
		c.logger.Error().Err(lastErr).
			Str("operation", string(outcome.Operation)).
			Int64("booking_id", outcome.BookingID).
			Msg("зеркало не записано и очередь не настроена")
		return
	}

	task := &models.SyncTask{
		TaskType:  string(outcome.Operation),
		BookingID: outcome.BookingID,
	}
	if payload != nil {
		task.Payload = payload()
	}
	if err := c.queue.Enqueue(context.Background(), task); err != nil {
		c.logger.Error().Err(err).
			Str("operation", string(outcome.Operation)).
			Int64("booking_id", outcome.BookingID).
			Msg("failed to enqueue reconcile task")
		return
	}
	outcome.Enqueued = true
	c.logger.Warn().
		Str("operation", string(outcome.Operation)).
		Int64("booking_id", outcome.BookingID).
		Int("attempts", outcome.DocumentAttempts).
		Msg("partial write, reconcile task queued")
}
