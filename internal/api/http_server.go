package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bookmirror/internal/config"
	"bookmirror/internal/domain"
	"bookmirror/internal/export"
	"bookmirror/internal/metrics"
	"bookmirror/internal/service"
)

// HTTPServer exposes the booking and prediction API over HTTP.
type HTTPServer struct {
	cfg         config.APIConfig
	bookings    *service.BookingService
	predictions *service.PredictionService
	exporter    *export.Exporter
	server      *http.Server
	auth        *HTTPAuth
	log         zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, bookings *service.BookingService, predictions *service.PredictionService, exporter *export.Exporter, logger zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:         cfg,
		bookings:    bookings,
		predictions: predictions,
		exporter:    exporter,
		auth:        NewHTTPAuth(cfg),
		log:         logger.With().Str("component", "http").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", srv.handleHealth)

	mux.HandleFunc("POST /api/v1/hotels", srv.handleCreateHotel)
	mux.HandleFunc("GET /api/v1/hotels", srv.handleListHotels)
	mux.HandleFunc("GET /api/v1/hotels/{id}", srv.handleGetHotel)
	mux.HandleFunc("PUT /api/v1/hotels/{id}", srv.handleRenameHotel)

	mux.HandleFunc("POST /api/v1/guests", srv.handleCreateGuest)
	mux.HandleFunc("GET /api/v1/guests", srv.handleListGuests)
	mux.HandleFunc("GET /api/v1/guests/{id}", srv.handleGetGuest)

	mux.HandleFunc("POST /api/v1/bookings", srv.handleCreateBooking)
	mux.HandleFunc("GET /api/v1/bookings", srv.handleListBookings)
	mux.HandleFunc("GET /api/v1/bookings/logs", srv.handleListBookingLogs)
	mux.HandleFunc("GET /api/v1/bookings/{id}", srv.handleGetBooking)
	mux.HandleFunc("PUT /api/v1/bookings/{id}", srv.handleUpdateBooking)
	mux.HandleFunc("DELETE /api/v1/bookings/{id}", srv.handleDeleteBooking)
	mux.HandleFunc("GET /api/v1/bookings/{id}/document", srv.handleGetBookingDocument)
	mux.HandleFunc("GET /api/v1/bookings/{id}/logs", srv.handleGetBookingLogs)

	mux.HandleFunc("POST /api/v1/bookings/{id}/predictions", srv.handlePersistPrediction)
	mux.HandleFunc("GET /api/v1/bookings/{id}/predictions", srv.handleGetPredictions)
	mux.HandleFunc("GET /api/v1/bookings/{id}/predictions/latest", srv.handleGetLatestPrediction)

	mux.HandleFunc("GET /api/v1/statistics", srv.handleStatistics)
	mux.HandleFunc("GET /api/v1/export", srv.handleExport)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

// Handler отдаёт собранный стек для тестов.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// writeStoreError переводит доменную ошибку в HTTP статус.
func writeStoreError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "validation failed",
			"violations": verr.Violations,
		})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrReferenceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrTransient):
		writeError(w, http.StatusBadGateway, "store temporarily unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
