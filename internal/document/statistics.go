package document

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"bookmirror/internal/models"
)

// GetStatistics считает агрегаты прямо по документам, без джойнов:
// страна гостя уже вложена в каждый документ бронирования.
func (s *Store) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	ids, err := s.client.SMembers(ctx, bookingIndexKey).Result()
	if err != nil {
		return nil, wrapErr("list bookings", err)
	}

	stats := &models.Statistics{}
	if len(ids) == 0 {
		return stats, nil
	}

	// Стабильный порядок обхода: по возрастанию booking_id, чтобы
	// ничья по странам разрешалась первой встреченной.
	numeric := make([]int64, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad booking index entry %q: %w", raw, err)
		}
		numeric = append(numeric, id)
	}
	sort.Slice(numeric, func(i, j int) bool { return numeric[i] < numeric[j] })

	keys := make([]string, len(numeric))
	for i, id := range numeric {
		keys[i] = bookingKey(id)
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrapErr("mget bookings", err)
	}

	var adrSum float64
	countryCounts := make(map[string]int64)
	var countryOrder []string

	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue // документ удалён между SMEMBERS и MGET
		}
		var doc models.BookingDocument
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal booking document: %w", err)
		}

		stats.TotalBookings++
		if doc.Status.IsCanceled {
			stats.CanceledBookings++
		}
		adrSum += doc.Details.ADR

		country := doc.Guest.Country
		if _, seen := countryCounts[country]; !seen {
			countryOrder = append(countryOrder, country)
		}
		countryCounts[country]++
	}

	if stats.TotalBookings > 0 {
		stats.CancellationRate = float64(stats.CanceledBookings) / float64(stats.TotalBookings) * 100
		stats.AvgADR = adrSum / float64(stats.TotalBookings)
	}

	var best int64
	for _, country := range countryOrder {
		if countryCounts[country] > best {
			best = countryCounts[country]
			stats.TopCountry = country
		}
	}

	return stats, nil
}
