package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookmirror/internal/domain"
	"bookmirror/internal/models"
)

// CreatePrediction всегда добавляет новую строку: реляционное
// хранилище хранит полную историю предсказаний.
func (db *DB) CreatePrediction(ctx context.Context, p *models.Prediction) error {
	if _, err := db.GetBooking(ctx, p.BookingID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("booking %d: %w", p.BookingID, domain.ErrNotFound)
		}
		return err
	}

	if p.PredictionTimestamp.IsZero() {
		p.PredictionTimestamp = time.Now().UTC()
	}

	query := `INSERT INTO predictions (
                booking_id, predicted_canceled, cancellation_probability,
                not_cancelled_probability, features_used, model_version,
                prediction_timestamp, notes
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		p.BookingID, p.PredictedCanceled, p.CancellationProbability,
		p.NotCancelledProbability, p.FeaturesUsed, p.ModelVersion,
		p.PredictionTimestamp, p.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create prediction: %w", translateErr(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.PredictionID = id

	return nil
}

func (db *DB) GetPredictions(ctx context.Context, bookingID int64) ([]*models.Prediction, error) {
	query := `SELECT prediction_id, booking_id, predicted_canceled, cancellation_probability,
                     not_cancelled_probability, features_used, model_version,
                     prediction_timestamp, notes
              FROM predictions WHERE booking_id = ? ORDER BY prediction_id`

	rows, err := db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*models.Prediction
	for rows.Next() {
		p := &models.Prediction{}
		err := rows.Scan(
			&p.PredictionID, &p.BookingID, &p.PredictedCanceled, &p.CancellationProbability,
			&p.NotCancelledProbability, &p.FeaturesUsed, &p.ModelVersion,
			&p.PredictionTimestamp, &p.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}
