package models

// Reservation status values. Spellings are part of the storage
// contract and must match in both stores.
const (
	StatusCheckOut = "Check-Out"
	StatusCanceled = "Canceled"
	StatusNoShow   = "No-Show"
)

// Customer types.
const (
	CustomerTransient      = "Transient"
	CustomerContract       = "Contract"
	CustomerGroup          = "Group"
	CustomerTransientParty = "Transient-Party"
)

// Audit log actions.
const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// ReservationStatuses lists the allowed status values in a stable order.
var ReservationStatuses = []string{StatusCheckOut, StatusCanceled, StatusNoShow}

// ValidStatus reports whether s is one of the allowed reservation statuses.
func ValidStatus(s string) bool {
	for _, v := range ReservationStatuses {
		if s == v {
			return true
		}
	}
	return false
}

const (
	// DefaultMirrorRetries ограничение количества повторов зеркальной записи
	DefaultMirrorRetries = 3

	// DefaultStoreTimeout таймаут одного обращения к хранилищу
	DefaultStoreTimeout = 5 // секунд

	// DefaultPageLimit размер страницы списков по умолчанию
	DefaultPageLimit = 100

	// ReconcileQueueSize размер очереди воркера сверки
	ReconcileQueueSize = 256
)
