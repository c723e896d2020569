package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound: запрошенная сущность отсутствует в авторитетном хранилище.
	ErrNotFound = errors.New("not found")

	// ErrReferenceNotFound: внешняя ссылка (hotel_id/guest_id) не существует.
	ErrReferenceNotFound = errors.New("referenced entity not found")

	// ErrDuplicate: нарушение уникальности в авторитетном хранилище.
	ErrDuplicate = errors.New("duplicate entity")

	// ErrTransient: таймаут или обрыв соединения; допускает повтор.
	ErrTransient = errors.New("transient store error")

	// ErrConcurrentModification: проигранная оптимистическая проверка версии.
	ErrConcurrentModification = errors.New("concurrent modification")
)

// ValidationError collects every violated rule for one record. All
// violations are reported together, never just the first.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// NewValidationError wraps a non-empty violation list.
func NewValidationError(violations []string) *ValidationError {
	return &ValidationError{Violations: violations}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransient reports whether err may succeed on retry. Validation,
// integrity and not-found failures are always terminal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrReferenceNotFound) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrConcurrentModification) ||
		IsValidation(err) {
		return false
	}
	return true
}

// Transientf wraps ErrTransient with context, pattern mirrors fmt.Errorf.
func Transientf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrTransient)...)
}
