package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmirror/internal/config"
	"bookmirror/internal/coordinator"
	"bookmirror/internal/database"
	"bookmirror/internal/document"
	"bookmirror/internal/events"
	"bookmirror/internal/export"
	"bookmirror/internal/models"
	"bookmirror/internal/service"
	"bookmirror/internal/worker"
)

const (
	testKeyFull     = "key-full-access"
	testKeyReadOnly = "key-read-only"
)

type apiEnv struct {
	srv   *HTTPServer
	redis *miniredis.Miniredis
	db    *database.DB
}

func newAPIEnv(t *testing.T, cfg config.APIConfig) *apiEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	docs := document.NewStore(client)

	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	w := worker.NewMirrorWorker(db, docs, worker.RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond}, logger)
	coord := coordinator.New(w, worker.RetryPolicy{
		MaxRetries:    1,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2,
	}, time.Second, logger)

	bus := events.NewEventBus()
	bookings := service.NewBookingService(db, docs, coord, bus, &logger)
	predictions := service.NewPredictionService(db, docs, coord, bus, &logger)
	exporter := export.NewExporter(filepath.Join(t.TempDir(), "exports"), &logger)

	srv := NewHTTPServer(cfg, bookings, predictions, exporter, logger)
	return &apiEnv{srv: srv, redis: mr, db: db}
}

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true, Port: 0},
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			APIKeys: []config.APIClientKey{
				{Key: testKeyFull, Name: "integration"},
				{Key: testKeyReadOnly, Name: "dashboard", Permissions: []string{"read"}},
			},
		},
		RateLimit: config.APIRateLimitConfig{RPS: 1000, Burst: 1000},
	}
}

func (e *apiEnv) do(t *testing.T, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (e *apiEnv) seedBooking(t *testing.T) (hotelID, guestID, bookingID int64) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/v1/hotels", testKeyFull, models.HotelInput{HotelName: "City Hotel"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	hotelID = int64(decodeBody(t, rec)["hotel"].(map[string]any)["hotel_id"].(float64))

	rec = e.do(t, http.MethodPost, "/api/v1/guests", testKeyFull, models.GuestInput{Country: "PRT", CustomerType: models.CustomerTransient})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	guestID = int64(decodeBody(t, rec)["guest"].(map[string]any)["guest_id"].(float64))

	rec = e.do(t, http.MethodPost, "/api/v1/bookings", testKeyFull, bookingBody(hotelID, guestID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bookingID = int64(decodeBody(t, rec)["booking"].(map[string]any)["booking_id"].(float64))
	return hotelID, guestID, bookingID
}

func bookingBody(hotelID, guestID int64) map[string]any {
	return map[string]any{
		"hotel_id":           hotelID,
		"guest_id":           guestID,
		"lead_time":          30,
		"arrival_date_year":  2017,
		"arrival_date_month": "July",
		"adults":             2,
		"adr":                95.5,
		"reservation_status": models.StatusCheckOut,
	}
}

func TestHealthNoAuth(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMissingKey(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())
	rec := env.do(t, http.MethodGet, "/api/v1/hotels", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthInvalidKey(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())
	rec := env.do(t, http.MethodGet, "/api/v1/hotels", "wrong-key", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthReadOnlyKeyCannotWrite(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())

	rec := env.do(t, http.MethodGet, "/api/v1/hotels", testKeyReadOnly, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/hotels", testKeyReadOnly, models.HotelInput{HotelName: "X"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testAPIConfig()
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 1, Burst: 2}
	env := newAPIEnv(t, cfg)

	var limited bool
	for i := 0; i < 5; i++ {
		rec := env.do(t, http.MethodGet, "/api/v1/hotels", testKeyFull, nil)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "burst exhausted requests must be limited")
}

func TestCreateBookingFlow(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())
	_, _, bookingID := env.seedBooking(t)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", bookingID), testKeyFull, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, models.StatusCheckOut, body["booking"].(map[string]any)["reservation_status"])

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d/document", bookingID), testKeyFull, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeBody(t, rec)["document"].(map[string]any)
	assert.Equal(t, "City Hotel", doc["hotel"].(map[string]any)["hotel_name"])

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d/logs", bookingID), testKeyFull, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decodeBody(t, rec)["logs"].([]any)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionInsert, logs[0].(map[string]any)["action"])
}

func TestCreateBookingValidationErrors(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())

	body := bookingBody(1, 1)
	body["lead_time"] = -1
	body["adults"] = 0
	body["reservation_status"] = "Departed"

	rec := env.do(t, http.MethodPost, "/api/v1/bookings", testKeyFull, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	violations := decodeBody(t, rec)["violations"].([]any)
	assert.Len(t, violations, 3)
}

func TestCreateBookingUnknownParent(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())

	rec := env.do(t, http.MethodPost, "/api/v1/bookings", testKeyFull, bookingBody(404, 404))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateHotelConflict(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())

	rec := env.do(t, http.MethodPost, "/api/v1/hotels", testKeyFull, models.HotelInput{HotelName: "Resort"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/hotels", testKeyFull, models.HotelInput{HotelName: "Resort"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLookupHotelByName(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())
	env.seedBooking(t)

	rec := env.do(t, http.MethodGet, "/api/v1/hotels?name=City+Hotel", testKeyFull, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	hotel := decodeBody(t, rec)["hotel"].(map[string]any)
	assert.Equal(t, "City Hotel", hotel["hotel_name"])

	rec = env.do(t, http.MethodGet, "/api/v1/hotels?name=No+Such+Hotel", testKeyFull, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAndDeleteBooking(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())
	_, _, bookingID := env.seedBooking(t)

	upd := map[string]any{
		"reservation_status":      models.StatusCanceled,
		"reservation_status_date": "2017-07-01",
		"is_canceled":             true,
	}
	rec := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d", bookingID), testKeyFull, upd)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	booking := decodeBody(t, rec)["booking"].(map[string]any)
	assert.Equal(t, models.StatusCanceled, booking["reservation_status"])

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/bookings/%d", bookingID), testKeyFull, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", bookingID), testKeyFull, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPartialWriteReportedInBody(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())
	hotelID, guestID, _ := env.seedBooking(t)

	env.redis.Close()

	rec := env.do(t, http.MethodPost, "/api/v1/bookings", testKeyFull, bookingBody(hotelID, guestID))
	require.Equal(t, http.StatusCreated, rec.Code, "partial write still creates the booking")
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["partial"])
	assert.Equal(t, true, body["mirror_queued"])
}

func TestPredictionEndpoints(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())
	_, _, bookingID := env.seedBooking(t)

	res := map[string]any{
		"predicted_canceled":        true,
		"cancellation_probability":  0.8,
		"not_cancelled_probability": 0.2,
		"features_used":             18,
		"model_version":             "v1",
	}
	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/predictions", bookingID), testKeyFull, res)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res["cancellation_probability"] = 0.9
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/predictions", bookingID), testKeyFull, res)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d/predictions", bookingID), testKeyFull, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeBody(t, rec)["predictions"].([]any)
	assert.Len(t, history, 2)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d/predictions/latest?model_version=v1", bookingID), testKeyFull, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	latest := decodeBody(t, rec)["prediction"].(map[string]any)
	assert.Equal(t, 0.9, latest["cancellation_probability"])

	rec = env.do(t, http.MethodPost, "/api/v1/bookings/9999/predictions", testKeyFull, res)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatisticsEndpoint(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())
	env.seedBooking(t)

	rec := env.do(t, http.MethodGet, "/api/v1/statistics", testKeyFull, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody(t, rec)["statistics"].(map[string]any)
	assert.Equal(t, float64(1), stats["total_bookings"])

	rec = env.do(t, http.MethodGet, "/api/v1/statistics?source=document", testKeyFull, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	docStats := decodeBody(t, rec)["statistics"].(map[string]any)
	assert.Equal(t, float64(1), docStats["total_bookings"])
}

func TestExportEndpoint(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())
	env.seedBooking(t)

	rec := env.do(t, http.MethodGet, "/api/v1/export", testKeyFull, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotZero(t, rec.Body.Len())
}

func TestStatisticsDocumentSourceUnavailable(t *testing.T) {
	env := newAPIEnv(t, testAPIConfig())
	env.seedBooking(t)
	env.redis.Close()

	rec := env.do(t, http.MethodGet, "/api/v1/statistics?source=document", testKeyFull, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
