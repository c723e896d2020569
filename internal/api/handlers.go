package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"bookmirror/internal/coordinator"
	"bookmirror/internal/models"
)

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// pagination читает limit/offset из query, отрицательные значения
// отбрасываются.
func pagination(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// mirrorFields reports the mirror leg in the response body: the
// authoritative write succeeded even when the document leg is pending.
func mirrorFields(resp map[string]any, outcome coordinator.WriteOutcome) map[string]any {
	if outcome.Partial() {
		resp["partial"] = true
		resp["mirror_queued"] = outcome.Enqueued
	}
	return resp
}

// Hotels

func (s *HTTPServer) handleCreateHotel(w http.ResponseWriter, r *http.Request) {
	var in models.HotelInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	hotel, outcome, err := s.bookings.CreateHotel(r.Context(), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mirrorFields(map[string]any{"hotel": hotel}, outcome))
}

func (s *HTTPServer) handleListHotels(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("name"); name != "" {
		hotel, err := s.bookings.GetHotelByName(r.Context(), name)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"hotel": hotel})
		return
	}
	limit, offset := pagination(r)
	hotels, err := s.bookings.ListHotels(r.Context(), limit, offset)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hotels": hotels})
}

func (s *HTTPServer) handleGetHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid hotel id")
		return
	}
	hotel, err := s.bookings.GetHotel(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hotel": hotel})
}

func (s *HTTPServer) handleRenameHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid hotel id")
		return
	}
	var in models.HotelInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	hotel, outcome, err := s.bookings.RenameHotel(r.Context(), id, in.HotelName)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mirrorFields(map[string]any{"hotel": hotel}, outcome))
}

// Guests

func (s *HTTPServer) handleCreateGuest(w http.ResponseWriter, r *http.Request) {
	var in models.GuestInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	guest, outcome, err := s.bookings.CreateGuest(r.Context(), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mirrorFields(map[string]any{"guest": guest}, outcome))
}

func (s *HTTPServer) handleListGuests(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	guests, err := s.bookings.ListGuests(r.Context(), limit, offset)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"guests": guests})
}

func (s *HTTPServer) handleGetGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid guest id")
		return
	}
	guest, err := s.bookings.GetGuest(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"guest": guest})
}

// Bookings

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var in models.BookingInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, outcome, err := s.bookings.CreateBooking(r.Context(), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mirrorFields(map[string]any{"booking": booking}, outcome))
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	bookings, err := s.bookings.ListBookings(r.Context(), limit, offset)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
}

func (s *HTTPServer) handleGetBookingDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	doc, err := s.bookings.GetBookingDocument(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": doc})
}

func (s *HTTPServer) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	var upd models.BookingUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, outcome, err := s.bookings.UpdateBooking(r.Context(), id, upd)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mirrorFields(map[string]any{"booking": booking}, outcome))
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	outcome, err := s.bookings.DeleteBooking(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mirrorFields(map[string]any{"deleted": id}, outcome))
}

// Booking logs

func (s *HTTPServer) handleGetBookingLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	logs, err := s.bookings.GetBookingLogs(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (s *HTTPServer) handleListBookingLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	logs, err := s.bookings.ListBookingLogs(r.Context(), limit, offset)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// Predictions

func (s *HTTPServer) handlePersistPrediction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	var res models.PredictionResult
	if err := decodeJSON(r, &res); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	prediction, outcome, err := s.predictions.PersistPrediction(r.Context(), id, res)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mirrorFields(map[string]any{"prediction": prediction}, outcome))
}

func (s *HTTPServer) handleGetPredictions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	predictions, err := s.predictions.GetPredictionHistory(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": predictions})
}

func (s *HTTPServer) handleGetLatestPrediction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var modelVersion *string
	if v := strings.TrimSpace(r.URL.Query().Get("model_version")); v != "" {
		modelVersion = &v
	}

	prediction, err := s.predictions.GetLatestPrediction(r.Context(), id, modelVersion)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prediction": prediction})
}

// Statistics and export

func (s *HTTPServer) handleStatistics(w http.ResponseWriter, r *http.Request) {
	var (
		stats any
		err   error
	)
	if r.URL.Query().Get("source") == "document" {
		stats, err = s.bookings.GetDocumentStatistics(r.Context())
	} else {
		stats, err = s.bookings.GetStatistics(r.Context())
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"statistics": stats})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusNotFound, "export is not configured")
		return
	}

	limit, offset := pagination(r)
	bookings, err := s.bookings.ListBookings(r.Context(), limit, offset)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	path, err := s.exporter.ExportBookings(bookings)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}
