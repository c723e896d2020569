package document

import (
	"context"
	"encoding/json"
	"fmt"

	"bookmirror/internal/models"
)

// UpsertPrediction хранит последнее предсказание для пары
// (booking_id, model_version): повторная запись перекрывает прежнюю.
func (s *Store) UpsertPrediction(ctx context.Context, p *models.Prediction) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, predictionKey(p.BookingID, p.ModelVersion), data, 0)
	pipe.SAdd(ctx, predictionSetKey(p.BookingID), versionField(p.ModelVersion))
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapErr("set prediction", err)
	}
	return nil
}

func (s *Store) GetPrediction(ctx context.Context, bookingID int64, modelVersion *string) (*models.Prediction, error) {
	val, err := s.client.Get(ctx, predictionKey(bookingID, modelVersion)).Result()
	if err != nil {
		return nil, wrapErr("get prediction", err)
	}
	var p models.Prediction
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prediction: %w", err)
	}
	return &p, nil
}
