package service

import (
	"context"

	"github.com/rs/zerolog"

	"bookmirror/internal/coordinator"
	"bookmirror/internal/domain"
	"bookmirror/internal/events"
	"bookmirror/internal/models"
	"bookmirror/internal/worker"
)

// PredictionService persists model outputs: append-only history in the
// relational store, latest-wins per (booking, model version) in the
// document store.
type PredictionService struct {
	rel      domain.RelationalStore
	docs     domain.DocumentStore
	coord    *coordinator.Coordinator
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewPredictionService(rel domain.RelationalStore, docs domain.DocumentStore, coord *coordinator.Coordinator, eventBus domain.EventPublisher, logger *zerolog.Logger) *PredictionService {
	return &PredictionService{
		rel:      rel,
		docs:     docs,
		coord:    coord,
		eventBus: eventBus,
		logger:   logger,
	}
}

// PersistPrediction stores one model output for an existing booking.
// Существование брони решает реляционная база; вероятности
// сохраняются ровно как получены.
func (s *PredictionService) PersistPrediction(ctx context.Context, bookingID int64, res models.PredictionResult) (*models.Prediction, coordinator.WriteOutcome, error) {
	prediction := &models.Prediction{
		BookingID:               bookingID,
		PredictedCanceled:       res.PredictedCanceled,
		CancellationProbability: res.CancellationProbability,
		NotCancelledProbability: res.NotCancelledProbability,
		FeaturesUsed:            res.FeaturesUsed,
		ModelVersion:            res.ModelVersion,
		Notes:                   res.Notes,
	}

	outcome, err := s.coord.Write(ctx, coordinator.OpUpsertPrediction,
		func(ctx context.Context) (int64, error) {
			return bookingID, s.rel.CreatePrediction(ctx, prediction)
		},
		func(ctx context.Context) error {
			return s.docs.UpsertPrediction(ctx, prediction)
		},
		func() string {
			return worker.EncodeMirrorPayload(worker.MirrorPayload{Prediction: prediction})
		})
	if err != nil {
		return nil, outcome, err
	}

	if s.eventBus != nil {
		payload := events.BookingEventPayload{
			BookingID:    bookingID,
			ModelVersion: prediction.ModelVersion,
			Partial:      outcome.Partial(),
		}
		if err := s.eventBus.PublishJSON(events.EventPredictionPersisted, payload); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("publish event error")
		}
	}

	return prediction, outcome, nil
}

// GetPredictionHistory returns every stored prediction for a booking
// in insertion order.
func (s *PredictionService) GetPredictionHistory(ctx context.Context, bookingID int64) ([]*models.Prediction, error) {
	return s.rel.GetPredictions(ctx, bookingID)
}

// GetLatestPrediction reads the current prediction for a model version
// from the document store.
func (s *PredictionService) GetLatestPrediction(ctx context.Context, bookingID int64, modelVersion *string) (*models.Prediction, error) {
	return s.docs.GetPrediction(ctx, bookingID, modelVersion)
}
