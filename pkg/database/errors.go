package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	switch pgCode(err) {
	case "40001":
		return ErrorClassSerialization
	case "40P01":
		return ErrorClassDeadlock
	case "55P03":
		return ErrorClassTransient
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}

// IsUniqueViolation reports duplicate-key errors from either dialect.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || pgCode(err) == "23505" {
		return true
	}
	// sqlite without error translation
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsMalformedID reports postgres rejecting a value that is not a valid uuid.
func IsMalformedID(err error) bool {
	return pgCode(err) == "22P02"
}

// IsConstraintViolation reports not-null and check constraint failures,
// whether or not gorm translated them.
func IsConstraintViolation(err error) bool {
	switch pgCode(err) {
	case "23502", "23514":
		return true
	}
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "NOT NULL constraint failed") || strings.Contains(msg, "CHECK constraint failed")
}
