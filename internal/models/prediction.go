package models

import "time"

type Prediction struct {
	PredictionID            int64     `json:"prediction_id"`
	BookingID               int64     `json:"booking_id"`
	PredictedCanceled       bool      `json:"predicted_canceled"`
	CancellationProbability float64   `json:"cancellation_probability"`
	NotCancelledProbability float64   `json:"not_cancelled_probability"`
	FeaturesUsed            int       `json:"features_used"`
	ModelVersion            *string   `json:"model_version"`
	PredictionTimestamp     time.Time `json:"prediction_timestamp"`
	Notes                   string    `json:"notes"`
}

// PredictionResult is what the external prediction runner produces for
// a booking. Probabilities are stored exactly as given, no
// renormalization.
type PredictionResult struct {
	PredictedCanceled       bool    `json:"predicted_canceled"`
	CancellationProbability float64 `json:"cancellation_probability"`
	NotCancelledProbability float64 `json:"not_cancelled_probability"`
	FeaturesUsed            int     `json:"features_used"`
	ModelVersion            *string `json:"model_version"`
	Notes                   string  `json:"notes"`
}
