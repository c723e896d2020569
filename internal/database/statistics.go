package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookmirror/internal/models"
)

// GetStatistics реализует бывшую хранимую процедуру статистики как
// обычные запросы: счётчики, процент отмен с защитой от деления на
// ноль и самая частая страна гостей.
func (db *DB) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	stats := &models.Statistics{}

	query := `SELECT COUNT(*),
                     COALESCE(SUM(CASE WHEN is_canceled THEN 1 ELSE 0 END), 0),
                     COALESCE(AVG(adr), 0)
              FROM bookings`
	err := db.QueryRowContext(ctx, query).Scan(&stats.TotalBookings, &stats.CanceledBookings, &stats.AvgADR)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking counts: %w", err)
	}

	if stats.TotalBookings > 0 {
		stats.CancellationRate = float64(stats.CanceledBookings) / float64(stats.TotalBookings) * 100
	}

	// Ничья разрешается в пользу страны, встретившейся раньше.
	topQuery := `SELECT g.country
                 FROM bookings b JOIN guests g ON g.guest_id = b.guest_id
                 GROUP BY g.country
                 ORDER BY COUNT(*) DESC, MIN(b.booking_id) ASC
                 LIMIT 1`
	err = db.QueryRowContext(ctx, topQuery).Scan(&stats.TopCountry)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get top country: %w", err)
	}

	return stats, nil
}
