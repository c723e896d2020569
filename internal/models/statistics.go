package models

// Statistics is the aggregate view over all stored bookings.
// CancellationRate is a percentage; 0 when there are no bookings.
type Statistics struct {
	TotalBookings    int64   `json:"total_bookings"`
	CanceledBookings int64   `json:"canceled_bookings"`
	CancellationRate float64 `json:"cancellation_rate"`
	AvgADR           float64 `json:"avg_adr"`
	TopCountry       string  `json:"top_country"`
}
