package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bookmirror/internal/models"
)

func TestExportBookings(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, nil)

	date := "2017-07-15"
	bookings := []*models.Booking{
		{
			BookingID:             1,
			HotelID:               1,
			GuestID:               2,
			LeadTime:              30,
			ArrivalDateYear:       2017,
			ArrivalDateMonth:      "July",
			ArrivalDateDayOfMonth: 15,
			Adults:                2,
			ADR:                   95.5,
			ReservationStatus:     models.StatusCheckOut,
			ReservationStatusDate: &date,
			CreatedAt:             time.Now(),
		},
		{
			BookingID:         2,
			HotelID:           1,
			GuestID:           3,
			Adults:            1,
			IsCanceled:        true,
			ReservationStatus: models.StatusCanceled,
			CreatedAt:         time.Now(),
		},
	}

	path, err := e.ExportBookings(bookings)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Бронирования")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two bookings")
	assert.Equal(t, "Booking ID", rows[0][0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, models.StatusCheckOut, rows[1][13])
	assert.Equal(t, "Да", rows[2][15])
}

func TestExportBookingsEmpty(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, nil)

	path, err := e.ExportBookings(nil)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
