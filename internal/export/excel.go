package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"bookmirror/internal/models"
)

// Exporter пишет снимок бронирований в xlsx файл.
type Exporter struct {
	path   string
	logger *zerolog.Logger
}

func NewExporter(path string, logger *zerolog.Logger) *Exporter {
	if path == "" {
		path = "exports"
	}
	return &Exporter{path: path, logger: logger}
}

// ExportBookings создает Excel файл со списком бронирований и
// возвращает путь к нему.
func (e *Exporter) ExportBookings(bookings []*models.Booking) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Бронирования"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Booking ID", "Hotel ID", "Guest ID", "Lead Time",
		"Arrival Year", "Arrival Month", "Arrival Day",
		"Weekend Nights", "Week Nights", "Adults", "Children", "Babies",
		"ADR", "Status", "Status Date", "Canceled", "Created At",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle)

	for i, b := range bookings {
		row := i + 2
		values := []interface{}{
			b.BookingID, b.HotelID, b.GuestID, b.LeadTime,
			b.ArrivalDateYear, b.ArrivalDateMonth, b.ArrivalDateDayOfMonth,
			b.StaysInWeekendNights, b.StaysInWeekNights, b.Adults, b.Children, b.Babies,
			b.ADR, b.ReservationStatus, statusDate(b), canceledMark(b.IsCanceled),
			b.CreatedAt.Format("02.01.2006 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "C", 12)
	_ = f.SetColWidth(sheetName, "D", "L", 14)
	_ = f.SetColWidth(sheetName, "M", "Q", 18)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_export_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	if e.logger != nil {
		e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	}
	return filePath, nil
}

func statusDate(b *models.Booking) string {
	if b.ReservationStatusDate == nil {
		return ""
	}
	return *b.ReservationStatusDate
}

// canceledMark преобразует флаг в "Да"/"Нет"
func canceledMark(canceled bool) string {
	if canceled {
		return "Да"
	}
	return "Нет"
}
