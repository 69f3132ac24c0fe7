package apperror

import (
	"errors"

	"volt-inventory/pkg/database"

	"gorm.io/gorm"
)

const (
	defaultNotFound = "resource not found"
	defaultConflict = "resource already exists"
)

// FromDB translates a persistence error into the taxonomy. notFound is the
// message used when the record does not exist; conflict is used for
// uniqueness violations. Empty messages fall back to generic ones.
func FromDB(err error, notFound, conflict string) error {
	if err == nil {
		return nil
	}
	if notFound == "" {
		notFound = defaultNotFound
	}
	if conflict == "" {
		conflict = defaultConflict
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), database.IsMalformedID(err):
		return Wrap(KindNotFound, notFound, err)
	case database.IsUniqueViolation(err):
		return Wrap(KindConflict, conflict, err)
	case database.IsConstraintViolation(err):
		return Wrap(KindValidation, "invalid data", err)
	default:
		return Internal("database error", err)
	}
}
